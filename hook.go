package minhook

import (
	"sync"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/metrics"
)

// State is the lifecycle state of a Hook.
type State int

const (
	// StateCreated is the state right after creation; the hook is not live.
	StateCreated State = iota
	StateEnabled
	StateDisabled
	// StateRemoved is terminal. The trampoline must not be called anymore.
	StateRemoved
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateRemoved:
		return "removed"
	}
	return "invalid"
}

// Hook binds one target to its detour.
type Hook struct {
	reg *Registry
	// the function being redirected
	target engine.Address
	// the function run instead
	detour engine.Address
	// use to call the origin function
	trampoline engine.Address

	// serializes engine calls for this target with the state update
	mu    sync.Mutex
	state State
}

func newHook(reg *Registry, target, detour, trampoline engine.Address) *Hook {
	h := &Hook{
		reg:        reg,
		target:     target,
		detour:     detour,
		trampoline: trampoline,
		state:      StateCreated,
	}
	metrics.GetHooks(StateCreated.String()).Inc()
	return h
}

func (h *Hook) Target() engine.Address {
	return h.target
}

func (h *Hook) Detour() engine.Address {
	return h.detour
}

// Trampoline returns the callable path to the original target. It dangles
// once the hook is removed.
func (h *Hook) Trampoline() engine.Address {
	return h.trampoline
}

func (h *Hook) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hook) setStateLocked(s State) {
	if h.state == s {
		return
	}
	metrics.GetHooks(h.state.String()).Dec()
	metrics.GetHooks(s.String()).Inc()
	h.state = s
}

// Enable makes the target run the detour. An enabled hook reports
// ErrAlreadyEnabled, a removed one ErrNotCreated.
func (h *Hook) Enable() error {
	return h.toggle(opEnable, true)
}

// Disable restores the original target. A hook that is not live reports
// ErrAlreadyDisabled, a removed one ErrNotCreated.
func (h *Hook) Disable() error {
	return h.toggle(opDisable, false)
}

func (h *Hook) toggle(op string, enable bool) error {
	r := h.reg
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateRemoved {
		return r.result(op, h.target, engine.StatusNotCreated)
	}

	var st engine.Status
	if enable {
		st = r.eng.EnableHook(h.target)
	} else {
		st = r.eng.DisableHook(h.target)
	}
	switch {
	case st.OK() && enable, st == engine.StatusEnabled:
		h.setStateLocked(StateEnabled)
	case st.OK() && !enable:
		h.setStateLocked(StateDisabled)
	case st == engine.StatusDisabled && h.state == StateEnabled:
		h.setStateLocked(StateDisabled)
	}
	return r.result(op, h.target, st)
}

// Remove deletes the hook. Every later operation on h reports ErrNotCreated;
// hooking the target again takes a new Create.
func (h *Hook) Remove() error {
	return h.reg.remove(h)
}

// QueueEnable marks h to be enabled by the next ApplyQueued of its registry.
func (h *Hook) QueueEnable() error {
	return h.reg.queue(h, opQueueEnable, IntentEnable)
}

// QueueDisable marks h to be disabled by the next ApplyQueued of its
// registry.
func (h *Hook) QueueDisable() error {
	return h.reg.queue(h, opQueueDisable, IntentDisable)
}
