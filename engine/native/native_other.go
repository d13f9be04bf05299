//go:build !amd64 || !(linux || darwin || freebsd)

package native

import (
	"sync"

	"github.com/k2io/minhook/engine"
)

// Engine reports every target as unsupported on this platform. It still
// tracks initialization so that lifecycle calls behave as documented.
type Engine struct {
	mu          sync.Mutex
	initialized bool
}

var _ engine.Engine = (*Engine)(nil)

func New(opts ...Option) *Engine {
	_ = buildOptions(opts)
	return &Engine{}
}

func (e *Engine) Initialize() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return engine.StatusAlreadyInitialized
	}
	e.initialized = true
	return engine.StatusOK
}

func (e *Engine) Uninitialize() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	e.initialized = false
	return engine.StatusOK
}

func (e *Engine) status(notCreated engine.Status) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	return notCreated
}

func (e *Engine) CreateHook(target, detour engine.Address) (engine.Address, engine.Status) {
	return engine.Nil, e.status(engine.StatusUnsupportedFunction)
}

func (e *Engine) CreateHookAPI(module, symbol string, detour engine.Address) (engine.Address, engine.Address, engine.Status) {
	return engine.Nil, engine.Nil, e.status(engine.StatusUnsupportedFunction)
}

func (e *Engine) RemoveHook(target engine.Address) engine.Status {
	return e.status(engine.StatusNotCreated)
}

func (e *Engine) EnableHook(target engine.Address) engine.Status {
	return e.status(engine.StatusNotCreated)
}

func (e *Engine) DisableHook(target engine.Address) engine.Status {
	return e.status(engine.StatusNotCreated)
}

func (e *Engine) EnableAllHooks() engine.Status {
	return e.status(engine.StatusOK)
}

func (e *Engine) DisableAllHooks() engine.Status {
	return e.status(engine.StatusOK)
}

func (e *Engine) QueueEnableHook(target engine.Address) engine.Status {
	return e.status(engine.StatusNotCreated)
}

func (e *Engine) QueueDisableHook(target engine.Address) engine.Status {
	return e.status(engine.StatusNotCreated)
}

func (e *Engine) ApplyQueued() engine.Status {
	return e.status(engine.StatusOK)
}
