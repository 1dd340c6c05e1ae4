package statebox

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	// View is the store-shaped surface consumed by UI layers and scopes:
	// read a state snapshot, send an action, subscribe to committed states.
	// Store and Scope both implement it, so scopes nest
	View[S, A any] interface {
		State() S
		Send(A)
		Subscribe(func(S)) func()
	}

	// Store owns the current state, the reducer, the middleware pipeline, and
	// the effect scheduler. All state transitions are serialized: the reducer
	// never runs concurrently with itself, and every invocation sees the
	// state left by the immediately preceding accepted action
	Store[S, A any] struct {
		reducer  Reducer[S, A]
		pipeline pipeline[S, A]
		sched    *scheduler[A]
		logger   *zap.Logger
		equals   func(S, S) bool
		recorder *Recorder[S, A]
		cancel   context.CancelFunc

		dispatchMu sync.Mutex
		queue      []A
		draining   bool
		closed     bool

		stateMu sync.RWMutex
		state   S

		subMu sync.RWMutex
		subs  []*subscription[S]
	}

	subscription[S any] struct {
		fn func(S)
		id string
	}
)

// New creates a Store holding initial and driven by reducer
func New[S, A any](
	initial S, reducer Reducer[S, A], opts ...Option[S, A],
) *Store[S, A] {
	cfg := newConfig(opts)
	ctx, cancel := context.WithCancel(context.Background())

	s := &Store[S, A]{
		reducer: reducer,
		logger:  cfg.logger,
		equals:  cfg.equals,
		cancel:  cancel,
		state:   initial,
	}
	s.sched = newScheduler(ctx, cfg.clock, cfg.logger, s.Send)

	stages := cfg.middleware
	if cfg.recorder != nil {
		// The recorder stage sits closest to the reducer so it only sees
		// actions that actually reach it
		stages = append(stages, cfg.recorder.stage())
		s.recorder = cfg.recorder
	}
	s.pipeline = pipeline[S, A]{stages: stages}
	return s
}

// Send enqueues the action for serialized dispatch. Actions are processed one
// at a time in arrival order; actions produced by completed effects re-enter
// this same queue. Send never surfaces failures synchronously
func (s *Store[S, A]) Send(action A) {
	s.dispatchMu.Lock()
	if s.closed {
		s.dispatchMu.Unlock()
		s.logger.Debug("action dropped, store closed")
		return
	}
	s.queue = append(s.queue, action)
	if s.draining {
		s.dispatchMu.Unlock()
		return
	}
	s.draining = true
	for {
		if len(s.queue) == 0 {
			s.draining = false
			s.dispatchMu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue = s.queue[1:]
		s.dispatchMu.Unlock()
		s.process(next)
		s.dispatchMu.Lock()
	}
}

// process runs the middleware pipeline and reducer for one action. The
// reducer mutates a private copy; observers only ever see fully committed
// states
func (s *Store[S, A]) process(action A) {
	prev := s.State()
	act, ok := s.pipeline.run(prev, action)
	if !ok {
		s.logger.Debug("action swallowed by middleware")
		return
	}

	next := prev
	eff := s.reducer(&next, act)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	if s.recorder != nil {
		s.recorder.commit(next)
	}
	if s.equals == nil || !s.equals(prev, next) {
		s.notify(next)
	}
	s.sched.run(eff)
}

// State returns a snapshot of the last committed state
func (s *Store[S, A]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Subscribe registers fn to be called once per accepted action, after the
// new state is fully committed. The returned function removes the
// subscription
func (s *Store[S, A]) Subscribe(fn func(S)) func() {
	sub := &subscription[S]{id: uuid.NewString(), fn: fn}
	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, cur := range s.subs {
			if cur.id == sub.id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store[S, A]) notify(state S) {
	s.subMu.RLock()
	subs := make([]*subscription[S], len(s.subs))
	copy(subs, s.subs)
	s.subMu.RUnlock()

	for _, sub := range subs {
		sub.fn(state)
	}
}

// Close rejects further sends, cancels in-flight effects, and stops pending
// timers. Effect work is cancelled cooperatively; third-party resources it
// opened remain the effect author's responsibility
func (s *Store[S, A]) Close() error {
	s.dispatchMu.Lock()
	if s.closed {
		s.dispatchMu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	s.dispatchMu.Unlock()

	s.cancel()
	s.sched.shutdown()
	return nil
}
