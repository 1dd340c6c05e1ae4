package statebox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type (
	// scheduler interprets Effect descriptions into running work. It owns the
	// id registry exclusively; at most one live registration exists per
	// EffectID at any instant
	scheduler[A any] struct {
		clock    clockwork.Clock
		logger   *zap.Logger
		send     func(A)
		ctx      context.Context
		mu       sync.Mutex
		registry map[EffectID]*registration
		nextGen  uint64
		wg       sync.WaitGroup
	}

	// registration is a generation-stamped handle for the execution currently
	// live under an id. Late callbacks from superseded executions compare
	// their captured registration against the registry entry and discard
	// themselves on mismatch
	registration struct {
		cancel   context.CancelFunc
		timer    clockwork.Timer
		trailing *func()
		gen      uint64
		kind     effectKind
	}
)

func newScheduler[A any](
	ctx context.Context, clock clockwork.Clock, logger *zap.Logger,
	send func(A),
) *scheduler[A] {
	return &scheduler[A]{
		clock:    clock,
		logger:   logger,
		send:     send,
		ctx:      ctx,
		registry: map[EffectID]*registration{},
	}
}

// run schedules the effect. Safe for concurrent use; completions re-enter the
// store through the send callback
func (s *scheduler[A]) run(e Effect[A]) {
	switch e.kind {
	case effectNone:
	case effectTask:
		s.startTask(e.id, e.work)
	case effectFire:
		s.startFire(e.fire)
	case effectMerge:
		for _, child := range e.children {
			s.run(child)
		}
	case effectCancel:
		s.cancelID(e.id)
	case effectDebounce:
		s.debounce(e)
	case effectThrottle:
		s.throttle(e)
	}
}

func (s *scheduler[A]) startTask(id EffectID, work Work[A]) {
	ctx := s.ctx
	var reg *registration
	if id != "" {
		s.mu.Lock()
		reg = s.register(id, effectTask)
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(s.ctx)
		reg.cancel = cancel
		s.mu.Unlock()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		action, ok, err := work(ctx)

		if reg != nil && !s.complete(id, reg) {
			s.logger.Debug("stale effect result discarded",
				zap.String("effect_id", string(id)),
				zap.Uint64("generation", reg.gen),
			)
			return
		}
		if err != nil {
			s.logger.Debug("effect failed",
				zap.String("effect_id", string(id)),
				zap.Error(err),
			)
			return
		}
		if ctx.Err() != nil || !ok {
			return
		}
		s.send(action)
	}()
}

func (s *scheduler[A]) startFire(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

func (s *scheduler[A]) cancelID(id EffectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.registry[id]
	if !ok {
		return
	}
	reg.drop()
	delete(s.registry, id)
	s.logger.Debug("effect cancelled", zap.String("effect_id", string(id)))
}

func (s *scheduler[A]) debounce(e Effect[A]) {
	inner := *e.inner
	id := e.id

	s.mu.Lock()
	reg := s.register(id, effectDebounce)
	reg.timer = s.clock.AfterFunc(e.duration, func() {
		s.mu.Lock()
		if s.registry[id] != reg {
			s.mu.Unlock()
			return
		}
		delete(s.registry, id)
		s.mu.Unlock()
		s.run(inner)
	})
	s.mu.Unlock()
}

func (s *scheduler[A]) throttle(e Effect[A]) {
	inner := *e.inner
	id := e.id

	s.mu.Lock()
	reg, live := s.registry[id]
	if live && reg.kind == effectThrottle {
		// Window already open; remember only the latest suppressed call
		if e.policy&ThrottleTrailing != 0 {
			fire := func() { s.run(inner) }
			reg.trailing = &fire
		}
		s.mu.Unlock()
		return
	}

	reg = s.register(id, effectThrottle)
	if e.policy&ThrottleLeading == 0 {
		fire := func() { s.run(inner) }
		reg.trailing = &fire
	}
	reg.timer = s.clock.AfterFunc(e.duration, func() {
		s.flushThrottle(id, reg, e.duration)
	})
	s.mu.Unlock()

	if e.policy&ThrottleLeading != 0 {
		s.run(inner)
	}
}

// flushThrottle runs at window end. A pending trailing call executes and
// opens the next window; otherwise the registration is retired
func (s *scheduler[A]) flushThrottle(
	id EffectID, reg *registration, duration time.Duration,
) {
	s.mu.Lock()
	if s.registry[id] != reg {
		s.mu.Unlock()
		return
	}
	pending := reg.trailing
	reg.trailing = nil
	if pending == nil {
		delete(s.registry, id)
		s.mu.Unlock()
		return
	}
	reg.timer = s.clock.AfterFunc(duration, func() {
		s.flushThrottle(id, reg, duration)
	})
	s.mu.Unlock()
	(*pending)()
}

// register installs a fresh generation-stamped entry for the id, cancelling
// any prior live execution first. Callers must hold mu
func (s *scheduler[A]) register(id EffectID, kind effectKind) *registration {
	if prev, ok := s.registry[id]; ok {
		prev.drop()
		s.logger.Debug("effect superseded",
			zap.String("effect_id", string(id)),
			zap.Uint64("generation", prev.gen),
		)
	}
	s.nextGen++
	reg := &registration{gen: s.nextGen, kind: kind}
	s.registry[id] = reg
	return reg
}

// complete retires the registration if it is still the live entry for the id.
// It reports false when the execution was superseded or cancelled mid-flight
func (s *scheduler[A]) complete(id EffectID, reg *registration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registry[id] != reg {
		return false
	}
	delete(s.registry, id)
	return true
}

// pendingIDs returns the ids with live registrations, sorted for reporting
func (s *scheduler[A]) pendingIDs() []EffectID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]EffectID, 0, len(s.registry))
	for id := range s.registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// wait blocks until all in-flight work completes or the timeout elapses
func (s *scheduler[A]) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *scheduler[A]) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, reg := range s.registry {
		reg.drop()
		delete(s.registry, id)
	}
}

func (r *registration) drop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	r.trailing = nil
}
