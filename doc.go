// Package statebox implements a unidirectional state container. It couples a
// value-holding Store, pure Reducers that turn Actions into new state plus
// Effect descriptions, and a scheduler that runs those effects with
// identity-based cancellation, debounce, and throttle semantics.
//
// Typical usage looks like:
//   - Define a state type with value semantics and a closed action set
//   - Write a Reducer that folds actions into state and returns Effects
//   - Create a Store with New, optionally attaching Middleware
//   - Send actions; Subscribe to committed state changes
//   - Scope the Store onto feature sub-state for composed applications
//   - Drive reducers deterministically in tests with TestStore
//
// The examples/ directory contains runnable counter and search programs that
// exercise the API in a small domain.
package statebox
