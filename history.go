package statebox

import "sync"

type (
	// HistoryEntry is one recorded (action, resulting state) pair
	HistoryEntry[S, A any] struct {
		Action A
		State  S
		Index  int
	}

	// Recorder keeps an append-only, index-addressable log of every accepted
	// action and the state it produced. Attach it to a store with
	// WithRecorder; external debugging tooling queries it by index. The log
	// lives in memory only
	Recorder[S, A any] struct {
		mu      sync.RWMutex
		pending []A
		entries []HistoryEntry[S, A]
	}
)

func NewRecorder[S, A any]() *Recorder[S, A] {
	return &Recorder[S, A]{}
}

// stage captures actions that reach the reducer. Dispatch is serialized, so
// at most one action is pending between stage and commit
func (r *Recorder[S, A]) stage() Middleware[S, A] {
	return func(action A, _ S, next func(A)) {
		r.mu.Lock()
		r.pending = append(r.pending, action)
		r.mu.Unlock()
		next(action)
	}
}

// commit pairs the pending action with its committed state
func (r *Recorder[S, A]) commit(state S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		return
	}
	action := r.pending[0]
	r.pending = r.pending[1:]
	r.entries = append(r.entries, HistoryEntry[S, A]{
		Index:  len(r.entries),
		Action: action,
		State:  state,
	})
}

// Len returns the number of recorded entries
func (r *Recorder[S, A]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entry returns the entry at index, if present
func (r *Recorder[S, A]) Entry(index int) (HistoryEntry[S, A], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.entries) {
		var zero HistoryEntry[S, A]
		return zero, false
	}
	return r.entries[index], true
}

// Entries returns a copy of the full log in append order
func (r *Recorder[S, A]) Entries() []HistoryEntry[S, A] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]HistoryEntry[S, A], len(r.entries))
	copy(res, r.entries)
	return res
}
