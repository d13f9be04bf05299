package minhook

import (
	"errors"
	"fmt"

	"github.com/k2io/minhook/engine"
)

var (
	// ErrAlreadyInitialized means the engine is already initialized
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrNotInitialized means the engine is not initialized yet, or already uninitialized
	ErrNotInitialized = errors.New("not initialized")
	// ErrAlreadyCreated means already hooked
	ErrAlreadyCreated = errors.New("hook already created")
	// ErrNotCreated means the hook not found
	ErrNotCreated = errors.New("hook not created")
	// ErrAlreadyEnabled means the hook is already live
	ErrAlreadyEnabled = errors.New("hook already enabled")
	// ErrAlreadyDisabled means the hook is not enabled yet, or already disabled
	ErrAlreadyDisabled = errors.New("hook already disabled")
	// ErrNotExecutable means the address does not point to code
	ErrNotExecutable = errors.New("address is not executable")
	// ErrUnsupportedFunction means the target cannot be hooked
	ErrUnsupportedFunction = errors.New("target function cannot be hooked")
	// ErrMemoryAlloc means no trampoline memory could be allocated
	ErrMemoryAlloc = errors.New("memory allocation failed")
	// ErrMemoryProtect means page protection could not be changed
	ErrMemoryProtect = errors.New("memory protection change failed")
	// ErrModuleNotFound means the module is not loaded
	ErrModuleNotFound = errors.New("module not found")
	// ErrFunctionNotFound means the module has no such function
	ErrFunctionNotFound = errors.New("function not found")
	// ErrUnknown means the engine reported a status outside the known set
	ErrUnknown = errors.New("unknown error")

	// ErrInputType means inputs are not func type
	ErrInputType = errors.New("inputs are not func type")
	// ErrDifferentType means target and detour are of different types
	ErrDifferentType = errors.New("inputs are of different type")
)

var statusErrors = map[engine.Status]error{
	engine.StatusAlreadyInitialized:  ErrAlreadyInitialized,
	engine.StatusNotInitialized:      ErrNotInitialized,
	engine.StatusAlreadyCreated:      ErrAlreadyCreated,
	engine.StatusNotCreated:          ErrNotCreated,
	engine.StatusEnabled:             ErrAlreadyEnabled,
	engine.StatusDisabled:            ErrAlreadyDisabled,
	engine.StatusNotExecutable:       ErrNotExecutable,
	engine.StatusUnsupportedFunction: ErrUnsupportedFunction,
	engine.StatusMemoryAlloc:         ErrMemoryAlloc,
	engine.StatusMemoryProtect:       ErrMemoryProtect,
	engine.StatusModuleNotFound:      ErrModuleNotFound,
	engine.StatusFunctionNotFound:    ErrFunctionNotFound,
	engine.StatusUnknown:             ErrUnknown,
}

// StatusError is returned for every engine outcome other than StatusOK. It
// unwraps to the matching ErrXxx value, so callers branch with errors.Is.
type StatusError struct {
	Op     string
	Target engine.Address
	Status engine.Status
}

func (e *StatusError) Error() string {
	if e.Target.IsNil() {
		return fmt.Sprintf("minhook: %s: %s", e.Op, e.Status)
	}
	return fmt.Sprintf("minhook: %s %s: %s", e.Op, e.Target, e.Status)
}

func (e *StatusError) Unwrap() error {
	if err, ok := statusErrors[e.Status]; ok {
		return err
	}
	return ErrUnknown
}

// statusError returns nil for StatusOK and a *StatusError for anything else.
func statusError(op string, target engine.Address, st engine.Status) error {
	if st.OK() {
		return nil
	}
	return &StatusError{Op: op, Target: target, Status: st}
}

// StatusOf returns the engine status carried by err: StatusOK for nil and
// StatusUnknown when err did not come from an engine.
func StatusOf(err error) engine.Status {
	if err == nil {
		return engine.StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return engine.StatusUnknown
}
