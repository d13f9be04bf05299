// Package engine defines the contract between the hook lifecycle layer and a
// patch engine, the component that actually redirects a target function to a
// detour and produces a trampoline back to the original code.
package engine

import "fmt"

// Address is an opaque handle to a function entry point. It wraps the raw
// address so that handles cannot be mixed with plain integers by accident.
type Address struct {
	p uintptr
}

// Nil is the zero Address.
var Nil = Address{}

// AddressOf wraps a raw code address.
func AddressOf(p uintptr) Address {
	return Address{p: p}
}

// Uintptr returns the raw address. Only engines should need it.
func (a Address) Uintptr() uintptr {
	return a.p
}

// IsNil reports whether a is the zero Address.
func (a Address) IsNil() bool {
	return a.p == 0
}

// Less orders addresses, used to get a stable iteration order.
func (a Address) Less(b Address) bool {
	return a.p < b.p
}

func (a Address) String() string {
	return fmt.Sprintf("%#x", a.p)
}

// Engine is a patch engine. Every method returns a Status; StatusOK is the
// only success value.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// Initialize sets up the engine's global state. A second call reports
	// StatusAlreadyInitialized.
	Initialize() Status
	// Uninitialize disables and removes every hook and tears the engine down.
	Uninitialize() Status

	// CreateHook installs a disabled hook on target and returns the
	// trampoline that runs the original code.
	CreateHook(target, detour Address) (Address, Status)
	// CreateHookAPI resolves symbol in module and hooks it. It returns the
	// trampoline and the resolved target.
	CreateHookAPI(module, symbol string, detour Address) (trampoline, target Address, st Status)
	RemoveHook(target Address) Status

	EnableHook(target Address) Status
	DisableHook(target Address) Status
	EnableAllHooks() Status
	DisableAllHooks() Status

	// QueueEnableHook and QueueDisableHook mark a hook without patching.
	QueueEnableHook(target Address) Status
	QueueDisableHook(target Address) Status
	// ApplyQueued commits every marked hook in one go.
	ApplyQueued() Status
}

// Inspector is implemented by engines that can report whether a hook is
// currently live.
type Inspector interface {
	IsEnabled(target Address) (bool, Status)
}
