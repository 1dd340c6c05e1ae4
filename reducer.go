package statebox

type (
	// Reducer folds an action into state and returns an effect describing any
	// follow-up work. Reducers must be pure: deterministic for a given state
	// and action, no I/O, no blocking. The state pointer refers to a private
	// copy owned by the caller for the duration of the invocation
	Reducer[S, A any] func(*S, A) Effect[A]

	// Lens projects a mutable view of child state out of parent state
	Lens[PS, CS any] struct {
		Get func(*PS) *CS
	}

	// Prism maps between a parent action type and a child action type.
	// Extract reports whether the parent action concerns the child at all
	Prism[PA, CA any] struct {
		Extract func(PA) (CA, bool)
		Embed   func(CA) PA
	}
)

// Combine builds a reducer that runs each child in sequence against the same
// state and action, merging their effects. Ordering is significant when
// children mutate overlapping state; the last writer wins per field
func Combine[S, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	return func(state *S, action A) Effect[A] {
		effects := make([]Effect[A], 0, len(reducers))
		for _, r := range reducers {
			effects = append(effects, r(state, action))
		}
		return Merge(effects...)
	}
}

// Pullback lifts a reducer operating on child state and actions into one
// operating on the parent pair. Parent actions that do not map through the
// prism are ignored. Child effects are re-embedded into the parent action
// type, so their cancellation ids stay meaningful at the parent level as
// long as the author keeps them stable across the lift
func Pullback[PS, PA, CS, CA any](
	r Reducer[CS, CA], lens Lens[PS, CS], prism Prism[PA, CA],
) Reducer[PS, PA] {
	return func(state *PS, action PA) Effect[PA] {
		ca, ok := prism.Extract(action)
		if !ok {
			return None[PA]()
		}
		eff := r(lens.Get(state), ca)
		return MapEffect(eff, prism.Embed)
	}
}
