// Package table implements an engine.Engine that hooks functions routed
// through an indirection table instead of rewriting machine code.
//
// A function takes part by being declared with Declare or Export. Callers
// reach it through Func.Call, which loads whichever implementation is live:
// the original while the hook is disabled, the detour while it is enabled.
// Trampolines are table entries bound to the original implementation.
package table

import (
	"reflect"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/logger"
)

const (
	// first handle given out; handles step by entryStride
	baseHandle  = 0x10000
	entryStride = 0x10
)

// cell holds the live implementation of a declared function.
type cell struct {
	active atomic.Value
}

type entry struct {
	fn   any
	typ  reflect.Type
	cell *cell
}

type hook struct {
	target     *entry
	detour     *entry
	trampoline engine.Address
	enabled    bool
	queued     bool
}

// Engine is the table patch engine. The zero value is not usable, use New.
type Engine struct {
	mu          sync.Mutex
	initialized bool
	next        uintptr
	entries     map[engine.Address]*entry
	modules     map[string]map[string]engine.Address
	hooks       map[engine.Address]*hook
	log         logrus.FieldLogger
}

var _ engine.Engine = (*Engine)(nil)
var _ engine.Inspector = (*Engine)(nil)

func New() *Engine {
	return &Engine{
		next:    baseHandle,
		entries: make(map[engine.Address]*entry),
		modules: make(map[string]map[string]engine.Address),
		hooks:   make(map[engine.Address]*hook),
		log:     logger.GetLogger().WithField("engine", "table"),
	}
}

// Func is a declared function of type T.
type Func[T any] struct {
	addr engine.Address
	cell *cell
}

// Declare adds fn to the table. It panics if T is not a func type or fn is
// nil.
func Declare[T any](e *Engine, fn T) *Func[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	addr, c := e.declareLocked(fn)
	return &Func[T]{addr: addr, cell: c}
}

// Export declares fn and names it symbol in module, so it can be hooked
// with CreateHookAPI.
func Export[T any](e *Engine, module, symbol string, fn T) *Func[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	addr, c := e.declareLocked(fn)
	syms, ok := e.modules[module]
	if !ok {
		syms = make(map[string]engine.Address)
		e.modules[module] = syms
	}
	syms[symbol] = addr
	return &Func[T]{addr: addr, cell: c}
}

func (e *Engine) declareLocked(fn any) (engine.Address, *cell) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		panic("table: declared value must be a non-nil func")
	}
	return e.addLocked(fn, v.Type())
}

func (e *Engine) addLocked(fn any, typ reflect.Type) (engine.Address, *cell) {
	addr := engine.AddressOf(e.next)
	e.next += entryStride
	c := &cell{}
	c.active.Store(fn)
	e.entries[addr] = &entry{fn: fn, typ: typ, cell: c}
	return addr, c
}

// Addr returns the handle to pass to the engine.
func (f *Func[T]) Addr() engine.Address {
	return f.addr
}

// Call returns the live implementation of f.
func (f *Func[T]) Call() T {
	return f.cell.active.Load().(T)
}

// Lookup returns the live implementation behind addr, typically a
// trampoline. It fails once the entry is gone or has a different type.
func Lookup[T any](e *Engine, addr engine.Address) (T, bool) {
	e.mu.Lock()
	ent, ok := e.entries[addr]
	e.mu.Unlock()
	var zero T
	if !ok {
		return zero, false
	}
	fn, ok := ent.cell.active.Load().(T)
	if !ok {
		return zero, false
	}
	return fn, true
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
	for target, h := range e.hooks {
		e.removeLocked(target, h)
	}
	e.initialized = false
	return engine.StatusOK
}

func (e *Engine) CreateHook(target, detour engine.Address) (engine.Address, engine.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.createLocked(target, detour)
}

func (e *Engine) createLocked(target, detour engine.Address) (engine.Address, engine.Status) {
	if !e.initialized {
		return engine.Nil, engine.StatusNotInitialized
	}
	t, ok := e.entries[target]
	if !ok {
		return engine.Nil, engine.StatusNotExecutable
	}
	d, ok := e.entries[detour]
	if !ok {
		return engine.Nil, engine.StatusNotExecutable
	}
	if _, ok := e.hooks[target]; ok {
		return engine.Nil, engine.StatusAlreadyCreated
	}
	if t.typ != d.typ || target == detour {
		return engine.Nil, engine.StatusUnsupportedFunction
	}
	tramp, _ := e.addLocked(t.fn, t.typ)
	e.hooks[target] = &hook{target: t, detour: d, trampoline: tramp}
	e.log.WithFields(logrus.Fields{
		"target":     target,
		"detour":     detour,
		"trampoline": tramp,
	}).Debug("hook created")
	return tramp, engine.StatusOK
}

func (e *Engine) CreateHookAPI(module, symbol string, detour engine.Address) (engine.Address, engine.Address, engine.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.Nil, engine.Nil, engine.StatusNotInitialized
	}
	syms, ok := e.modules[module]
	if !ok {
		return engine.Nil, engine.Nil, engine.StatusModuleNotFound
	}
	target, ok := syms[symbol]
	if !ok {
		return engine.Nil, engine.Nil, engine.StatusFunctionNotFound
	}
	tramp, st := e.createLocked(target, detour)
	if !st.OK() {
		return engine.Nil, engine.Nil, st
	}
	return tramp, target, st
}

func (e *Engine) RemoveHook(target engine.Address) engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, st := e.findLocked(target)
	if !st.OK() {
		return st
	}
	e.removeLocked(target, h)
	return engine.StatusOK
}

func (e *Engine) removeLocked(target engine.Address, h *hook) {
	if h.enabled {
		e.patchLocked(h, false)
	}
	delete(e.entries, h.trampoline)
	delete(e.hooks, target)
}

func (e *Engine) findLocked(target engine.Address) (*hook, engine.Status) {
	if !e.initialized {
		return nil, engine.StatusNotInitialized
	}
	h, ok := e.hooks[target]
	if !ok {
		return nil, engine.StatusNotCreated
	}
	return h, engine.StatusOK
}

func (e *Engine) patchLocked(h *hook, enable bool) {
	if enable {
		h.target.cell.active.Store(h.detour.fn)
	} else {
		h.target.cell.active.Store(h.target.fn)
	}
	h.enabled = enable
	h.queued = enable
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
	e.patchLocked(h, enable)
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
	for _, h := range e.hooks {
		if h.enabled != enable {
			e.patchLocked(h, enable)
		}
	}
	return engine.StatusOK
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

// ApplyQueued swaps every queued implementation while holding the table
// lock. Swaps cannot fail, so the batch always commits whole.
func (e *Engine) ApplyQueued() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return engine.StatusNotInitialized
	}
	targets := make([]engine.Address, 0, len(e.hooks))
	for target, h := range e.hooks {
		if h.queued != h.enabled {
			targets = append(targets, target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Less(targets[j]) })
	for _, target := range targets {
		h := e.hooks[target]
		e.patchLocked(h, h.queued)
	}
	e.log.WithField("count", len(targets)).Debug("applied queued hooks")
	return engine.StatusOK
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
