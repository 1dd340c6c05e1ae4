package statebox

import (
	"context"
	"time"
)

type (
	// EffectID groups related effect executions for cancellation, debounce,
	// and throttle. IDs are caller-supplied and should stay stable across
	// dispatches of the same logical operation
	EffectID string

	// Work is one asynchronous unit producing at most one action. The bool
	// result reports whether an action was produced. Work must honor
	// cancellation of the supplied context; a cancelled execution never has
	// its action dispatched
	Work[A any] func(context.Context) (A, bool, error)

	// ThrottlePolicy decides which calls inside a throttle window execute
	ThrottlePolicy uint8

	// Effect describes zero, one, or many future actions and how they may be
	// cancelled or composed. Effects are immutable descriptions; execution
	// state lives entirely in the store's scheduler. The zero value is the
	// empty effect
	Effect[A any] struct {
		work     Work[A]
		fire     func(context.Context)
		inner    *Effect[A]
		children []Effect[A]
		id       EffectID
		duration time.Duration
		policy   ThrottlePolicy
		kind     effectKind
	}

	effectKind uint8
)

const (
	effectNone effectKind = iota
	effectTask
	effectFire
	effectMerge
	effectCancel
	effectDebounce
	effectThrottle
)

const (
	// ThrottleLeading executes the first call in a window immediately
	ThrottleLeading ThrottlePolicy = 1 << iota

	// ThrottleTrailing executes the last call in a window at window end
	ThrottleTrailing

	// ThrottleLeadingAndTrailing combines both behaviors
	ThrottleLeadingAndTrailing = ThrottleLeading | ThrottleTrailing
)

// None returns the empty effect, describing no further work
func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Task describes one asynchronous unit of work producing at most one action.
// A failed task is dropped silently; work that wants failure visibility must
// map its error to a normal action before returning
func Task[A any](work Work[A]) Effect[A] {
	return Effect[A]{kind: effectTask, work: work}
}

// FireAndForget describes asynchronous work that produces no action
func FireAndForget[A any](fn func(context.Context)) Effect[A] {
	return Effect[A]{kind: effectFire, fire: fn}
}

// Merge runs all child effects concurrently. No ordering is guaranteed
// between their completions; each child with an id registers independently
func Merge[A any](effects ...Effect[A]) Effect[A] {
	res := make([]Effect[A], 0, len(effects))
	for _, e := range effects {
		if e.kind == effectNone {
			continue
		}
		res = append(res, e)
	}
	switch len(res) {
	case 0:
		return None[A]()
	case 1:
		return res[0]
	default:
		return Effect[A]{kind: effectMerge, children: res}
	}
}

// Cancel requests cancellation of any in-flight execution registered under
// id. Cancelling an absent id is a no-op
func Cancel[A any](id EffectID) Effect[A] {
	return Effect[A]{kind: effectCancel, id: id}
}

// Debounce delays inner until duration elapses with no further scheduling
// call under the same id. Each call supersedes any pending timer for the id;
// only the most recent effect survives the quiet period
func Debounce[A any](
	inner Effect[A], id EffectID, duration time.Duration,
) Effect[A] {
	return Effect[A]{
		kind:     effectDebounce,
		inner:    &inner,
		id:       id,
		duration: duration,
	}
}

// Throttle bounds execution of inner to at most once per duration window per
// id. The policy decides whether the first call in a window runs immediately
// and whether the latest suppressed call runs at window end
func Throttle[A any](
	inner Effect[A], id EffectID, duration time.Duration, policy ThrottlePolicy,
) Effect[A] {
	return Effect[A]{
		kind:     effectThrottle,
		inner:    &inner,
		id:       id,
		duration: duration,
		policy:   policy,
	}
}

// WithID binds a cancellation identity to the effect. Scheduling a new
// execution under an id with a live registration cancels the prior one first
func (e Effect[A]) WithID(id EffectID) Effect[A] {
	e.id = id
	return e
}

// ID returns the effect's cancellation identity, if any
func (e Effect[A]) ID() EffectID {
	return e.id
}

// IsNone reports whether the effect describes no work
func (e Effect[A]) IsNone() bool {
	return e.kind == effectNone
}

// MapEffect re-embeds the actions produced by an effect into another action
// type. Identity, timing, and composition structure are preserved, so
// cancellation ids remain meaningful after the mapping
func MapEffect[A, B any](e Effect[A], embed func(A) B) Effect[B] {
	res := Effect[B]{
		kind:     e.kind,
		id:       e.id,
		duration: e.duration,
		policy:   e.policy,
		fire:     e.fire,
	}
	if e.work != nil {
		work := e.work
		res.work = func(ctx context.Context) (B, bool, error) {
			a, ok, err := work(ctx)
			if err != nil || !ok {
				var zero B
				return zero, false, err
			}
			return embed(a), true, nil
		}
	}
	if e.inner != nil {
		inner := MapEffect(*e.inner, embed)
		res.inner = &inner
	}
	if len(e.children) > 0 {
		res.children = make([]Effect[B], len(e.children))
		for i, c := range e.children {
			res.children[i] = MapEffect(c, embed)
		}
	}
	return res
}
