package statebox_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kode4food/statebox"
)

// fetchReducer is the canonical load scenario: fetch schedules a task that
// resolves to loaded(42)

type (
	fetchState struct {
		Loading bool
		Value   int
	}

	fetchAction interface {
		isFetchAction()
	}

	fetch struct{}

	loaded struct {
		Value int
	}
)

func (fetch) isFetchAction()  {}
func (loaded) isFetchAction() {}

func fetchReducer(s *fetchState, a fetchAction) statebox.Effect[fetchAction] {
	switch act := a.(type) {
	case fetch:
		s.Loading = true
		return statebox.Task(
			func(context.Context) (fetchAction, bool, error) {
				return loaded{Value: 42}, true, nil
			},
		).WithID("fetch")
	case loaded:
		s.Loading = false
		s.Value = act.Value
	}
	return statebox.None[fetchAction]()
}

// fakeT captures harness failures so the harness itself can be asserted on
type fakeT struct {
	failures []string
}

func (f *fakeT) Errorf(format string, args ...any) {
	f.failures = append(f.failures, fmt.Sprintf(format, args...))
}

func (f *fakeT) Helper() {}

func TestFetchScenario(t *testing.T) {
	ts := statebox.NewTestStore(t, fetchState{}, fetchReducer)

	ts.Send(fetch{}, func(s *fetchState) {
		s.Loading = true
	})
	ts.Receive(loaded{Value: 42}, func(s *fetchState) {
		s.Loading = false
		s.Value = 42
	})
	ts.Finish()
}

func TestSendReportsStateMismatch(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, CounterState{}, counterReducer)

	ts.Send(Increment, func(s *CounterState) {
		s.Count = 5 // wrong prediction
	})
	assert.Len(t, ft.failures, 1)

	// Execution continues with the actual state resynchronized
	assert.Equal(t, 1, ts.State().Count)
	ts.Send(Increment, func(s *CounterState) {
		s.Count = 2
	})
	assert.Len(t, ft.failures, 1)
}

func TestNilMutationPredictsNoChange(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, CounterState{}, counterReducer)

	ts.Send(Noop, nil)
	assert.Empty(t, ft.failures)

	ts.Send(Increment, nil)
	assert.Len(t, ft.failures, 1)
}

func TestPartialExhaustivity(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, CounterState{}, counterReducer,
		statebox.WithExhaustivity(statebox.ExhaustivityPartial),
	)

	// Unpredicted mutation passes under partial checking
	ts.Send(Increment, nil)
	assert.Empty(t, ft.failures)

	ts.Send(Increment, func(s *CounterState) { s.Count = 9 })
	assert.Len(t, ft.failures, 1)
}

func TestExhaustivityOff(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, CounterState{}, counterReducer,
		statebox.WithExhaustivity(statebox.ExhaustivityOff),
	)

	ts.Send(Increment, func(s *CounterState) { s.Count = 9 })
	assert.Empty(t, ft.failures)
	assert.Equal(t, 1, ts.State().Count)
}

func TestReceiveTimesOut(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, CounterState{}, counterReducer,
		statebox.WithReceiveTimeout(10*time.Millisecond),
	)

	ts.Receive(Increment, nil)
	assert.Len(t, ft.failures, 1)
	assert.Contains(t, ft.failures[0], "timed out")
}

func TestReceiveReportsActionMismatch(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, fetchState{}, fetchReducer)

	ts.Send(fetch{}, func(s *fetchState) { s.Loading = true })
	ts.Receive(loaded{Value: 7}, func(s *fetchState) {
		s.Loading = false
		s.Value = 42
	})
	assert.Len(t, ft.failures, 1)
	ts.Finish()
	assert.Len(t, ft.failures, 1)
}

func TestFinishReportsUnconsumedActions(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, fetchState{}, fetchReducer,
		statebox.WithReceiveTimeout(time.Second),
	)

	ts.Send(fetch{}, func(s *fetchState) { s.Loading = true })
	ts.Drain()
	ts.Finish()

	assert.Len(t, ft.failures, 1)
	assert.Contains(t, ft.failures[0], "unconsumed received action")
}

func TestFinishReportsPendingEffects(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(
		ft, tickState{}, debounceReducer(300*time.Millisecond),
	)

	ts.Send(tick{N: 1}, nil)
	ts.Finish() // quiet period never elapsed

	assert.Len(t, ft.failures, 1)
	assert.Contains(t, ft.failures[0], "unhandled scheduled effects")
}

func TestSkipConsumesWithoutAsserting(t *testing.T) {
	ft := &fakeT{}
	ts := statebox.NewTestStore(ft, fetchState{}, fetchReducer)

	ts.Send(fetch{}, func(s *fetchState) { s.Loading = true })
	ts.Skip()
	ts.Finish()

	assert.Empty(t, ft.failures)
	assert.Equal(t, 42, ts.State().Value)
}
