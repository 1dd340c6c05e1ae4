package statebox

type (
	// Scope presents a store-shaped view over a projection of a parent. It
	// runs no reducer and no scheduler of its own; all execution happens in
	// the parent, and the scope holds no independent resources. A scope is
	// valid for as long as its parent exists
	Scope[S, A any] struct {
		state     func() S
		send      func(A)
		subscribe func(func(S)) func()
	}
)

// NewScope derives a child view from parent using a state getter and an
// action embedder. Sending on the scope embeds the child action and forwards
// it to the parent; the projected state is recomputed from the parent on
// every read and on every parent notification
func NewScope[PS, PA, CS, CA any](
	parent View[PS, PA], get func(PS) CS, embed func(CA) PA,
) *Scope[CS, CA] {
	return &Scope[CS, CA]{
		state: func() CS {
			return get(parent.State())
		},
		send: func(action CA) {
			parent.Send(embed(action))
		},
		subscribe: func(fn func(CS)) func() {
			return parent.Subscribe(func(state PS) {
				fn(get(state))
			})
		},
	}
}

// State recomputes the projected state from the parent
func (s *Scope[S, A]) State() S {
	return s.state()
}

// Send embeds the child action and forwards it to the parent
func (s *Scope[S, A]) Send(action A) {
	s.send(action)
}

// Subscribe forwards parent notifications through the projection. Suppressing
// redundant notifications is the parent's responsibility, not the scope's
func (s *Scope[S, A]) Subscribe(fn func(S)) func() {
	return s.subscribe(fn)
}
