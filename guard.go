package minhook

import (
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/k2io/minhook/engine"
	"github.com/k2io/minhook/internal/logger"
)

// LibraryState runs the engine's global initialize and uninitialize exactly
// once each, whatever the number of concurrent callers.
//
// A failed initialize or uninitialize is a configuration error: the failure
// is kept and returned to every later caller, it is never retried. Once
// uninitialized the state stays that way, and hook operations report
// ErrNotInitialized from the engine. The engine drops every hook when it is
// torn down, so the registries over s drop their records too.
type LibraryState struct {
	eng engine.Engine
	log logrus.FieldLogger

	// registries created over s
	mu   sync.Mutex
	regs []*Registry

	initOnce   sync.Once
	uninitOnce sync.Once
	initErr    error
	uninitErr  error

	initialized   atomic.Bool
	uninitialized atomic.Bool
}

func NewLibraryState(eng engine.Engine) *LibraryState {
	return &LibraryState{
		eng: eng,
		log: logger.GetLogger(),
	}
}

// Engine returns the engine guarded by s.
func (s *LibraryState) Engine() engine.Engine {
	return s.eng
}

// EnsureInitialized initializes the engine on the first call. An engine that
// is already initialized by someone else is accepted.
func (s *LibraryState) EnsureInitialized() error {
	s.initOnce.Do(func() {
		st := s.eng.Initialize()
		observe(opInitialize, st)
		s.log.WithField("status", st).Debug("engine initialized")
		if st.OK() || st == engine.StatusAlreadyInitialized {
			s.initialized.Store(true)
			return
		}
		s.initErr = statusError(opInitialize, engine.Nil, st)
		s.log.WithError(s.initErr).Error("failed to initialize patch engine")
	})
	return s.initErr
}

// Uninitialize tears the engine down on the first call, initializing it
// first if nothing did yet.
func (s *LibraryState) Uninitialize() error {
	if err := s.EnsureInitialized(); err != nil {
		return err
	}
	s.uninitOnce.Do(func() {
		st := s.eng.Uninitialize()
		observe(opUninitialize, st)
		s.log.WithField("status", st).Debug("engine uninitialized")
		if st.OK() {
			s.uninitialized.Store(true)
			for _, r := range s.registries() {
				r.dropAll()
			}
			return
		}
		s.uninitErr = statusError(opUninitialize, engine.Nil, st)
		s.log.WithError(s.uninitErr).Error("failed to uninitialize patch engine")
	})
	return s.uninitErr
}

func (s *LibraryState) attach(r *Registry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs = append(s.regs, r)
}

func (s *LibraryState) registries() []*Registry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Registry(nil), s.regs...)
}

// Initialized reports whether initialization succeeded. It stays true after
// Uninitialize.
func (s *LibraryState) Initialized() bool {
	return s.initialized.Load()
}

// Uninitialized reports whether the engine was torn down.
func (s *LibraryState) Uninitialized() bool {
	return s.uninitialized.Load()
}
