package minhook

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/logger"
	"github.com/k2io/minhook/internal/metrics"
)

// Intent is the state a queued hook should reach on the next apply.
type Intent bool

const (
	IntentDisable Intent = false
	IntentEnable  Intent = true
)

func (i Intent) String() string {
	if i {
		return "enable"
	}
	return "disable"
}

// Registry owns the hooks created through one LibraryState and the batch
// queue of pending intents.
//
// Lock order is Registry.mu before Hook.mu. Hook.Enable and Hook.Disable
// take only the hook lock. Registries sharing a LibraryState never hold each
// other's locks: EnableAll and DisableAll update the records of the others
// one registry at a time after the engine call.
type Registry struct {
	state *LibraryState
	eng   engine.Engine
	log   logrus.FieldLogger

	mu      sync.Mutex
	hooks   map[engine.Address]*Hook
	pending map[engine.Address]Intent
}

type Option func(*Registry)

// WithLogger sets the logger of the registry and of the library state it
// creates.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry returns a registry with its own LibraryState over eng.
func NewRegistry(eng engine.Engine, opts ...Option) *Registry {
	r := NewRegistryWithState(NewLibraryState(eng), opts...)
	r.state.log = r.log
	return r
}

// NewRegistryWithState returns a registry sharing state with other
// registries over the same engine.
func NewRegistryWithState(state *LibraryState, opts ...Option) *Registry {
	r := &Registry{
		state:   state,
		eng:     state.Engine(),
		log:     logger.GetLogger(),
		hooks:   make(map[engine.Address]*Hook),
		pending: make(map[engine.Address]Intent),
	}
	for _, opt := range opts {
		opt(r)
	}
	state.attach(r)
	return r
}

func (r *Registry) State() *LibraryState {
	return r.state
}

func (r *Registry) Engine() engine.Engine {
	return r.eng
}

// Create hooks target with detour. The hook starts disabled.
func (r *Registry) Create(target, detour engine.Address) (*Hook, error) {
	if err := r.state.EnsureInitialized(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.hooks[target]; ok {
		return nil, r.result(opCreate, target, engine.StatusAlreadyCreated)
	}
	tramp, st := r.eng.CreateHook(target, detour)
	if !st.OK() {
		return nil, r.result(opCreate, target, st)
	}
	h := newHook(r, target, detour, tramp)
	r.hooks[target] = h
	r.log.WithFields(logrus.Fields{
		"target":     target,
		"detour":     detour,
		"trampoline": tramp,
	}).Debug("hook created")
	return h, r.result(opCreate, target, st)
}

// CreateAPI hooks the function exported as symbol by module. An empty
// module names the running executable.
func (r *Registry) CreateAPI(module, symbol string, detour engine.Address) (*Hook, error) {
	if err := r.state.EnsureInitialized(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tramp, target, st := r.eng.CreateHookAPI(module, symbol, detour)
	log := r.log.WithFields(logrus.Fields{
		"module": module,
		"symbol": symbol,
	})
	if !st.OK() {
		log.WithField("status", st).Debug("symbol hook rejected")
		return nil, r.result(opCreateAPI, target, st)
	}
	h := newHook(r, target, detour, tramp)
	r.hooks[target] = h
	log.WithFields(logrus.Fields{
		"target":     target,
		"detour":     detour,
		"trampoline": tramp,
	}).Debug("hook created")
	return h, r.result(opCreateAPI, target, st)
}

// Lookup returns the live hook on target.
func (r *Registry) Lookup(target engine.Address) (*Hook, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hooks[target]
	return h, ok
}

// Hooks returns the live hooks ordered by target.
func (r *Registry) Hooks() []*Hook {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Pending returns a copy of the intents waiting for the next apply.
func (r *Registry) Pending() map[engine.Address]Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	pending := make(map[engine.Address]Intent, len(r.pending))
	for target, intent := range r.pending {
		pending[target] = intent
	}
	return pending
}

func (r *Registry) sortedLocked() []*Hook {
	hooks := make([]*Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].target.Less(hooks[j].target) })
	return hooks
}

func (r *Registry) find(op string, target engine.Address) (*Hook, error) {
	if err := r.state.EnsureInitialized(); err != nil {
		return nil, err
	}
	h, ok := r.Lookup(target)
	if !ok {
		return nil, r.result(op, target, engine.StatusNotCreated)
	}
	return h, nil
}

func (r *Registry) Enable(target engine.Address) error {
	h, err := r.find(opEnable, target)
	if err != nil {
		return err
	}
	return h.Enable()
}

func (r *Registry) Disable(target engine.Address) error {
	h, err := r.find(opDisable, target)
	if err != nil {
		return err
	}
	return h.Disable()
}

func (r *Registry) Remove(target engine.Address) error {
	h, err := r.find(opRemove, target)
	if err != nil {
		return err
	}
	return h.Remove()
}

func (r *Registry) QueueEnable(target engine.Address) error {
	h, err := r.find(opQueueEnable, target)
	if err != nil {
		return err
	}
	return h.QueueEnable()
}

func (r *Registry) QueueDisable(target engine.Address) error {
	h, err := r.find(opQueueDisable, target)
	if err != nil {
		return err
	}
	return h.QueueDisable()
}

func (r *Registry) remove(h *Hook) error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h.mu.Lock()
	defer h.mu.Unlock()
	return r.removeLocked(h)
}

func (r *Registry) removeLocked(h *Hook) error {
	if h.state == StateRemoved {
		return r.result(opRemove, h.target, engine.StatusNotCreated)
	}
	st := r.eng.RemoveHook(h.target)
	if st.OK() {
		h.setStateLocked(StateRemoved)
		delete(r.hooks, h.target)
		delete(r.pending, h.target)
	}
	return r.result(opRemove, h.target, st)
}

func (r *Registry) queue(h *Hook, op string, intent Intent) error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h.mu.Lock()
	removed := h.state == StateRemoved
	h.mu.Unlock()
	if removed || r.hooks[h.target] != h {
		return r.result(op, h.target, engine.StatusNotCreated)
	}
	r.pending[h.target] = intent
	r.log.WithFields(logrus.Fields{
		"target": h.target,
		"intent": intent,
	}).Debug("hook queued")
	return r.result(op, h.target, engine.StatusOK)
}

// EnableAll enables every hook the engine knows about in one call, without
// going through the queue.
func (r *Registry) EnableAll() error {
	return r.toggleAll(opEnableAll, true)
}

// DisableAll disables every hook the engine knows about in one call, without
// going through the queue.
func (r *Registry) DisableAll() error {
	return r.toggleAll(opDisableAll, false)
}

func (r *Registry) toggleAll(op string, enable bool) error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	st := r.toggleAllLocal(enable)
	// the engine call reached the hooks of every registry over the engine
	for _, other := range r.state.registries() {
		if other != r {
			other.syncAll(enable, st)
		}
	}
	return r.result(op, engine.Nil, st)
}

func (r *Registry) toggleAllLocal(enable bool) engine.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := r.sortedLocked()
	lockAll(hooks)
	defer unlockAll(hooks)

	var st engine.Status
	if enable {
		st = r.eng.EnableAllHooks()
	} else {
		st = r.eng.DisableAllHooks()
	}
	r.settleAllLocked(hooks, enable, st)
	return st
}

// syncAll updates the records of r after another registry toggled all hooks.
func (r *Registry) syncAll(enable bool, st engine.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	hooks := r.sortedLocked()
	lockAll(hooks)
	defer unlockAll(hooks)
	r.settleAllLocked(hooks, enable, st)
}

func (r *Registry) settleAllLocked(hooks []*Hook, enable bool, st engine.Status) {
	if !st.OK() {
		r.reconcileLocked(hooks)
		return
	}
	for _, h := range hooks {
		if enable {
			h.setStateLocked(StateEnabled)
		} else if h.state == StateEnabled {
			h.setStateLocked(StateDisabled)
		}
	}
}

// ApplyQueued commits every pending intent in one engine apply. The queue is
// empty afterwards whatever the outcome; on failure the hook states are
// refreshed from the engine when it can report them, and the caller decides
// what to queue again.
func (r *Registry) ApplyQueued() error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(opApplyQueued)
}

// ApplyAll queues every hook for enabling and applies the batch.
func (r *Registry) ApplyAll() error {
	return r.queueAllAndApply(opApplyAll, IntentEnable)
}

// UnapplyAll queues every hook for disabling and applies the batch.
func (r *Registry) UnapplyAll() error {
	return r.queueAllAndApply(opUnapplyAll, IntentDisable)
}

func (r *Registry) queueAllAndApply(op string, intent Intent) error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for target := range r.hooks {
		r.pending[target] = intent
	}
	return r.applyLocked(op)
}

type staged struct {
	hook   *Hook
	intent Intent
}

func (r *Registry) applyLocked(op string) error {
	pending := r.pending
	r.pending = make(map[engine.Address]Intent)

	targets := make([]engine.Address, 0, len(pending))
	for target := range pending {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Less(targets[j]) })

	batch := make([]staged, 0, len(targets))
	hooks := make([]*Hook, 0, len(targets))
	for _, target := range targets {
		if h, ok := r.hooks[target]; ok {
			batch = append(batch, staged{hook: h, intent: pending[target]})
			hooks = append(hooks, h)
		}
	}
	lockAll(hooks)
	defer unlockAll(hooks)

	var errs error
	for _, s := range batch {
		var st engine.Status
		if s.intent {
			st = r.eng.QueueEnableHook(s.hook.target)
		} else {
			st = r.eng.QueueDisableHook(s.hook.target)
		}
		errs = multierr.Append(errs, statusError(op, s.hook.target, st))
	}
	if errs != nil {
		r.restageLocked(hooks)
		r.log.WithError(errs).WithField("count", len(batch)).Warn("queued hooks not applied")
		observe(op, StatusOf(multierr.Errors(errs)[0]))
		return errs
	}

	st := r.eng.ApplyQueued()
	if !st.OK() {
		r.reconcileLocked(hooks)
		r.restageLocked(hooks)
		return r.result(op, engine.Nil, st)
	}
	for _, s := range batch {
		if s.intent {
			s.hook.setStateLocked(StateEnabled)
		} else if s.hook.state == StateEnabled {
			s.hook.setStateLocked(StateDisabled)
		}
	}
	metrics.ApplyBatchSize.Observe(float64(len(batch)))
	r.log.WithField("count", len(batch)).Debug("queued hooks applied")
	return r.result(op, engine.Nil, st)
}

// restageLocked sets the engine's queue flags back to the recorded state of
// hooks so that nothing staged by a failed apply lingers for the next one.
func (r *Registry) restageLocked(hooks []*Hook) {
	for _, h := range hooks {
		var st engine.Status
		if h.state == StateEnabled {
			st = r.eng.QueueEnableHook(h.target)
		} else {
			st = r.eng.QueueDisableHook(h.target)
		}
		if !st.OK() {
			r.log.WithFields(logrus.Fields{
				"target": h.target,
				"status": st,
			}).Debug("failed to restage hook")
		}
	}
}

// reconcileLocked refreshes hook states from the engine after a failed
// batch. Engines that cannot report live state leave the records unchanged.
func (r *Registry) reconcileLocked(hooks []*Hook) {
	insp, ok := r.eng.(engine.Inspector)
	if !ok {
		return
	}
	for _, h := range hooks {
		enabled, st := insp.IsEnabled(h.target)
		if !st.OK() {
			continue
		}
		if enabled {
			h.setStateLocked(StateEnabled)
		} else if h.state == StateEnabled {
			h.setStateLocked(StateDisabled)
		}
	}
}

// dropAll marks every hook removed and empties the queue. The state calls it
// once the engine is torn down.
func (r *Registry) dropAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.sortedLocked() {
		h.mu.Lock()
		h.setStateLocked(StateRemoved)
		h.mu.Unlock()
	}
	r.hooks = make(map[engine.Address]*Hook)
	r.pending = make(map[engine.Address]Intent)
	r.log.Debug("hooks dropped with the engine")
}

// Close removes every hook and uninitializes the library state. All
// failures are reported together.
func (r *Registry) Close() error {
	if err := r.state.EnsureInitialized(); err != nil {
		return err
	}
	var errs error
	r.mu.Lock()
	for _, h := range r.sortedLocked() {
		h.mu.Lock()
		errs = multierr.Append(errs, r.removeLocked(h))
		h.mu.Unlock()
	}
	r.pending = make(map[engine.Address]Intent)
	r.mu.Unlock()
	return multierr.Append(errs, r.state.Uninitialize())
}

func (r *Registry) result(op string, target engine.Address, st engine.Status) error {
	observe(op, st)
	err := statusError(op, target, st)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"op":     op,
			"target": target,
			"status": st,
		}).Debug("hook operation failed")
	}
	return err
}

// lockAll locks hooks in order. Callers pass them sorted by target.
func lockAll(hooks []*Hook) {
	for _, h := range hooks {
		h.mu.Lock()
	}
}

func unlockAll(hooks []*Hook) {
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i].mu.Unlock()
	}
}
