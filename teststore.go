package statebox

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type (
	// TestingT is the subset of testing.T the harness reports through. Any
	// testify-compatible implementation works
	TestingT interface {
		Errorf(format string, args ...any)
		Helper()
	}

	// Exhaustivity selects how strictly the TestStore checks predicted state
	Exhaustivity uint8

	// TestStore drives a reducer and its effects deterministically for
	// assertions. Effects run on a scheduler whose clock is a fake; tests
	// advance it explicitly to fire debounce and throttle timers. Assertion
	// failures are reported non-fatally and execution continues with the
	// actual state, so a single test can make several assertions
	TestStore[S, A any] struct {
		t        TestingT
		reducer  Reducer[S, A]
		state    S
		clock    *clockwork.FakeClock
		sched    *scheduler[A]
		received chan A
		cancel   context.CancelFunc
		timeout  time.Duration
		exhaust  Exhaustivity
	}

	// TestOption adjusts TestStore construction
	TestOption func(*testConfig)

	testConfig struct {
		timeout  time.Duration
		capacity int
		exhaust  Exhaustivity
	}
)

const (
	// ExhaustivityFull checks every predicted mutation and requires every
	// effect-produced action to be consumed. The default
	ExhaustivityFull Exhaustivity = iota

	// ExhaustivityPartial checks only sends that supply a mutation
	ExhaustivityPartial

	// ExhaustivityOff skips state assertions entirely; only the action
	// sequence shape is checked
	ExhaustivityOff
)

// NewTestStore creates a deterministic harness around initial and reducer.
// State must have value semantics: the harness predicts mutations against
// copies of it
func NewTestStore[S, A any](
	t TestingT, initial S, reducer Reducer[S, A], opts ...TestOption,
) *TestStore[S, A] {
	cfg := &testConfig{
		timeout:  DefaultReceiveTimeout,
		capacity: DefaultReceivedCapacity,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ts := &TestStore[S, A]{
		t:        t,
		reducer:  reducer,
		state:    initial,
		clock:    clockwork.NewFakeClock(),
		received: make(chan A, cfg.capacity),
		cancel:   cancel,
		timeout:  cfg.timeout,
		exhaust:  cfg.exhaust,
	}
	ts.sched = newScheduler(ctx, ts.clock, zap.NewNop(), func(action A) {
		ts.received <- action
	})
	return ts
}

// WithReceiveTimeout bounds how long Receive, Drain, and Finish wait
func WithReceiveTimeout(timeout time.Duration) TestOption {
	return func(c *testConfig) {
		c.timeout = timeout
	}
}

// WithExhaustivity relaxes or disables the state assertion contract
func WithExhaustivity(level Exhaustivity) TestOption {
	return func(c *testConfig) {
		c.exhaust = level
	}
}

// State returns the harness's current state
func (ts *TestStore[S, A]) State() S {
	return ts.state
}

// Send applies the reducer to the action and verifies the resulting state
// equals the prior state with mutate applied. A nil mutate predicts no
// change. Effects returned by the reducer are scheduled for later Receive
// calls
func (ts *TestStore[S, A]) Send(action A, mutate func(*S)) {
	ts.t.Helper()
	ts.apply(action, mutate, true)
}

// Receive waits for a previously scheduled effect to produce an action,
// asserts it equals expected, then applies the reducer to it with the same
// mutation check Send performs
func (ts *TestStore[S, A]) Receive(expected A, mutate func(*S)) {
	ts.t.Helper()
	select {
	case got := <-ts.received:
		assert.Equal(ts.t, expected, got, "received action mismatch")
		ts.apply(got, mutate, true)
	case <-time.After(ts.timeout):
		ts.t.Errorf(
			"timed out after %v waiting to receive %+v", ts.timeout, expected,
		)
	}
}

// Skip consumes the next effect-produced action without asserting on it or
// on the resulting state. The action still runs through the reducer
func (ts *TestStore[S, A]) Skip() {
	ts.t.Helper()
	select {
	case got := <-ts.received:
		ts.apply(got, nil, false)
	case <-time.After(ts.timeout):
		ts.t.Errorf("timed out after %v waiting to skip an action", ts.timeout)
	}
}

// AdvanceTime moves the fake clock forward, firing any debounce or throttle
// timers whose deadline passes
func (ts *TestStore[S, A]) AdvanceTime(d time.Duration) {
	ts.clock.Advance(d)
}

// Drain waits for all in-flight effect work to complete
func (ts *TestStore[S, A]) Drain() {
	ts.t.Helper()
	if !ts.sched.wait(ts.timeout) {
		ts.t.Errorf(
			"timed out after %v waiting for effects to complete", ts.timeout,
		)
	}
}

// Finish asserts exhaustiveness: every scheduled effect has completed or
// been cancelled, no debounce or throttle registrations remain pending, and
// every received action has been consumed
func (ts *TestStore[S, A]) Finish() {
	ts.t.Helper()
	if !ts.sched.wait(ts.timeout) {
		ts.t.Errorf(
			"timed out after %v waiting for effects to complete", ts.timeout,
		)
	}
	if ids := ts.sched.pendingIDs(); len(ids) > 0 {
		ts.t.Errorf("unhandled scheduled effects: %v", ids)
	}
	for {
		select {
		case action := <-ts.received:
			ts.t.Errorf("unconsumed received action: %+v", action)
		default:
			ts.cancel()
			return
		}
	}
}

func (ts *TestStore[S, A]) apply(action A, mutate func(*S), check bool) {
	ts.t.Helper()
	expected := ts.state
	eff := ts.reducer(&ts.state, action)

	if check && ts.exhaust != ExhaustivityOff {
		if mutate != nil {
			mutate(&expected)
		}
		if mutate != nil || ts.exhaust == ExhaustivityFull {
			assert.Equal(ts.t, expected, ts.state,
				"state mismatch after %+v", action,
			)
		}
	}
	ts.sched.run(eff)
}
