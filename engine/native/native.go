//go:build amd64 && (linux || darwin || freebsd)

package native

import (
	"errors"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/logger"
	"github.com/k2io/minhook/internal/symbols"
)

type hook struct {
	target uintptr
	detour uintptr
	// original bytes of the patch window
	backup []byte
	// jump to the detour, same length as backup
	patch      []byte
	trampoline []byte
	enabled    bool
	queued     bool
}

// Engine patches amd64 code in place. Goroutines running the target while it
// is patched are not stopped; callers toggle hooks when no such calls are in
// flight.
type Engine struct {
	mu          sync.Mutex
	initialized bool
	hooks       map[uintptr]*hook
	resolver    *symbols.Resolver
	pageSize    uintptr
	log         logrus.FieldLogger
}

var _ engine.Engine = (*Engine)(nil)
var _ engine.Inspector = (*Engine)(nil)

func New(opts ...Option) *Engine {
	o := buildOptions(opts)
	e := &Engine{
		hooks:    make(map[uintptr]*hook),
		pageSize: getPageSize(),
		log:      logger.GetLogger().WithField("engine", "native"),
	}
	r, err := symbols.NewResolver(o.cacheSize, o.load)
	if err != nil {
		e.log.WithError(err).Warn("symbol lookup disabled")
	}
	e.resolver = r
	return e
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

// Uninitialize restores every enabled target and frees all trampolines. It
// keeps going after a failure and reports the first one.
func (e *Engine) Uninitialize() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	st := engine.StatusOK
	for target, h := range e.hooks {
		if s := e.removeLocked(target, h); !s.OK() && st.OK() {
			st = s
		}
	}
	e.initialized = false
	return st
}

func (e *Engine) CreateHook(target, detour engine.Address) (engine.Address, engine.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createLocked(target.Uintptr(), detour.Uintptr())
}

func (e *Engine) createLocked(target, detour uintptr) (engine.Address, engine.Status) {
	if !e.initialized {
		return engine.Nil, engine.StatusNotInitialized
	}
	if target == 0 || detour == 0 {
		return engine.Nil, engine.StatusNotExecutable
	}
	if _, ok := e.hooks[target]; ok {
		return engine.Nil, engine.StatusAlreadyCreated
	}
	log := e.log.WithField("target", engine.AddressOf(target))

	code := makeSlice(target, maxPrologue)
	inf, err := prologue(code)
	if err != nil {
		log.WithError(err).Debug("prologue cannot be patched")
		return engine.Nil, engine.StatusUnsupportedFunction
	}
	n := inf.length
	backup := make([]byte, n)
	copy(backup, code)

	near := uintptr(0)
	if inf.near {
		near = target
	}
	tramp, err := mapPages(maxPrologue*jccAbsLen, near, e.pageSize)
	if err != nil {
		log.WithError(err).Debug("trampoline allocation failed")
		return engine.Nil, statusFor(err)
	}
	body, err := trampolineFor(code, inf, target, slicePtr(tramp))
	if err == nil {
		copy(tramp, body)
		err = sealCode(tramp)
	}
	if err != nil {
		freeCode(tramp)
		log.WithError(err).Debug("trampoline cannot be built")
		if errors.Is(err, errRelativeAddr) {
			return engine.Nil, engine.StatusUnsupportedFunction
		}
		return engine.Nil, statusFor(err)
	}
	e.hooks[target] = &hook{
		target:     target,
		detour:     detour,
		backup:     backup,
		patch:      patchFor(detour, n),
		trampoline: tramp,
	}
	return engine.AddressOf(slicePtr(tramp)), engine.StatusOK
}

func (e *Engine) CreateHookAPI(module, symbol string, detour engine.Address) (engine.Address, engine.Address, engine.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.Nil, engine.Nil, engine.StatusNotInitialized
	}
	if e.resolver == nil {
		return engine.Nil, engine.Nil, engine.StatusModuleNotFound
	}
	addr, err := e.resolver.Lookup(module, symbol)
	if err != nil {
		e.log.WithError(err).WithField("module", module).WithField("symbol", symbol).Debug("symbol lookup failed")
		if errors.Is(err, symbols.ErrFunctionNotFound) {
			return engine.Nil, engine.Nil, engine.StatusFunctionNotFound
		}
		return engine.Nil, engine.Nil, engine.StatusModuleNotFound
	}
	tramp, st := e.createLocked(addr, detour.Uintptr())
	if !st.OK() {
		return engine.Nil, engine.Nil, st
	}
	return tramp, engine.AddressOf(addr), st
}

func (e *Engine) RemoveHook(target engine.Address) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, st := e.findLocked(target)
	if !st.OK() {
		return st
	}
	return e.removeLocked(h.target, h)
}

func (e *Engine) removeLocked(target uintptr, h *hook) engine.Status {
	if h.enabled {
		if err := e.patchLocked(h, false); err != nil {
			return statusFor(err)
		}
	}
	delete(e.hooks, target)
	if err := freeCode(h.trampoline); err != nil {
		e.log.WithError(err).WithField("target", engine.AddressOf(target)).Warn("failed to free trampoline")
	}
	return engine.StatusOK
}

func (e *Engine) findLocked(target engine.Address) (*hook, engine.Status) {
	if !e.initialized {
		return nil, engine.StatusNotInitialized
	}
	h, ok := e.hooks[target.Uintptr()]
	if !ok {
		return nil, engine.StatusNotCreated
	}
	return h, engine.StatusOK
}

// patchLocked writes the jump or the backup over the target window.
func (e *Engine) patchLocked(h *hook, enable bool) error {
	code := h.backup
	if enable {
		code = h.patch
	}
	if err := writeCode(h.target, code, e.pageSize); err != nil {
		return err
	}
	h.enabled = enable
	return nil
}

func (e *Engine) EnableHook(target engine.Address) engine.Status {
	return e.toggle(target, true)
}

func (e *Engine) DisableHook(target engine.Address) engine.Status {
	return e.toggle(target, false)
}

func (e *Engine) toggle(target engine.Address, enable bool) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, st := e.findLocked(target)
	if !st.OK() {
		return st
	}
	if h.enabled == enable {
		if enable {
			return engine.StatusEnabled
		}
		return engine.StatusDisabled
	}
	if err := e.patchLocked(h, enable); err != nil {
		return statusFor(err)
	}
	h.queued = enable
	return engine.StatusOK
}

func (e *Engine) EnableAllHooks() engine.Status {
	return e.toggleAll(true)
}

func (e *Engine) DisableAllHooks() engine.Status {
	return e.toggleAll(false)
}

func (e *Engine) toggleAll(enable bool) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	var batch []*hook
	for _, h := range e.sortedLocked() {
		if h.enabled != enable {
			batch = append(batch, h)
		}
	}
	prev := make([]bool, len(batch))
	for i, h := range batch {
		prev[i] = h.queued
		h.queued = enable
	}
	st := e.commitLocked(batch)
	if !st.OK() {
		for i, h := range batch {
			h.queued = prev[i]
		}
	}
	return st
}

func (e *Engine) QueueEnableHook(target engine.Address) engine.Status {
	return e.queue(target, true)
}

func (e *Engine) QueueDisableHook(target engine.Address) engine.Status {
	return e.queue(target, false)
}

func (e *Engine) queue(target engine.Address, enable bool) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, st := e.findLocked(target)
	if !st.OK() {
		return st
	}
	h.queued = enable
	return engine.StatusOK
}

func (e *Engine) ApplyQueued() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	var batch []*hook
	for _, h := range e.sortedLocked() {
		if h.queued != h.enabled {
			batch = append(batch, h)
		}
	}
	return e.commitLocked(batch)
}

// commitLocked moves every hook of batch to its queued state. When one write
// fails the hooks already written are put back, so the batch commits whole
// or not at all.
func (e *Engine) commitLocked(batch []*hook) engine.Status {
	for i, h := range batch {
		err := e.patchLocked(h, h.queued)
		if err == nil {
			continue
		}
		e.log.WithError(err).WithField("target", engine.AddressOf(h.target)).Warn("apply failed, rolling back")
		for j := i - 1; j >= 0; j-- {
			if rerr := e.patchLocked(batch[j], !batch[j].enabled); rerr != nil {
				e.log.WithError(rerr).WithField("target", engine.AddressOf(batch[j].target)).Error("rollback failed")
			}
		}
		return statusFor(err)
	}
	return engine.StatusOK
}

func (e *Engine) sortedLocked() []*hook {
	hooks := make([]*hook, 0, len(e.hooks))
	for _, h := range e.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].target < hooks[j].target })
	return hooks
}

func (e *Engine) IsEnabled(target engine.Address) (bool, engine.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, st := e.findLocked(target)
	if !st.OK() {
		return false, st
	}
	return h.enabled, engine.StatusOK
}

func statusFor(err error) engine.Status {
	switch {
	case errors.Is(err, errAlloc):
		return engine.StatusMemoryAlloc
	case errors.Is(err, errProtect):
		return engine.StatusMemoryProtect
	default:
		return engine.StatusUnknown
	}
}
