package minhook

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/engine/native"
	"github.com/k2io/minhook/internal/logger"
)

var (
	// the registry behind the package level functions
	defaultRegistry *Registry
	// protect defaultRegistry creation
	defaultOnce sync.Once
)

// Default returns the process-wide registry, building it on first use from
// LoadConfig(viper.New()). A configuration that cannot be loaded falls back
// to the native engine with default settings.
func Default() *Registry {
	defaultOnce.Do(func() {
		log := logger.GetLogger()
		cfg, err := LoadConfig(viper.New())
		if err == nil {
			defaultRegistry, err = New(cfg)
		}
		if err != nil {
			log.WithError(err).Warn("invalid configuration, using the native engine")
			defaultRegistry = NewRegistry(native.New())
		}
	})
	return defaultRegistry
}

// SetDebug enables debug logging of every hook operation.
func SetDebug(debug bool) {
	logger.SetDebug(debug)
}

// CreateHook hooks target with detour on the default registry and returns
// the trampoline. The hook starts disabled.
func CreateHook(target, detour engine.Address) (engine.Address, error) {
	h, err := Default().Create(target, detour)
	if err != nil {
		return engine.Nil, err
	}
	return h.Trampoline(), nil
}

// CreateHookAPI hooks the function exported as symbol by module on the
// default registry and returns the trampoline.
func CreateHookAPI(module, symbol string, detour engine.Address) (engine.Address, error) {
	tramp, _, err := CreateHookAPIEx(module, symbol, detour)
	return tramp, err
}

// CreateHookAPIEx is CreateHookAPI that also returns the resolved target.
func CreateHookAPIEx(module, symbol string, detour engine.Address) (trampoline, target engine.Address, err error) {
	h, err := Default().CreateAPI(module, symbol, detour)
	if err != nil {
		return engine.Nil, engine.Nil, err
	}
	return h.Trampoline(), h.Target(), nil
}

func EnableHook(target engine.Address) error {
	return Default().Enable(target)
}

func DisableHook(target engine.Address) error {
	return Default().Disable(target)
}

func EnableAllHooks() error {
	return Default().EnableAll()
}

func DisableAllHooks() error {
	return Default().DisableAll()
}

func RemoveHook(target engine.Address) error {
	return Default().Remove(target)
}

func QueueEnableHook(target engine.Address) error {
	return Default().QueueEnable(target)
}

func QueueDisableHook(target engine.Address) error {
	return Default().QueueDisable(target)
}

func ApplyQueued() error {
	return Default().ApplyQueued()
}

// Uninitialize tears down the engine of the default registry. Hooks still
// enabled are restored by the engine and every record is marked removed; the
// package functions fail with ErrNotInitialized afterwards.
func Uninitialize() error {
	return Default().State().Uninitialize()
}
