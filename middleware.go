package statebox

import "go.uber.org/zap"

type (
	// Middleware is one ordered stage of the dispatch pipeline. A stage may
	// inspect the action and current state, then call next zero or one times:
	// zero times swallows the action (the reducer never runs), once continues
	// the pipeline with the given, possibly transformed, action. Calling next
	// more than once is a contract violation and panics
	Middleware[S, A any] func(action A, state S, next func(A))

	pipeline[S, A any] struct {
		stages []Middleware[S, A]
	}
)

const errNextCalledTwice = "middleware called next more than once"

// run walks the stages by index so a swallowed action is detected
// structurally: the index simply never reaches the reducer. It returns the
// action as transformed by the stages and whether it should be reduced
func (p pipeline[S, A]) run(state S, action A) (A, bool) {
	cur := action
	for _, stage := range p.stages {
		advanced := false
		stage(cur, state, func(a A) {
			if advanced {
				panic(errNextCalledTwice)
			}
			advanced = true
			cur = a
		})
		if !advanced {
			return cur, false
		}
	}
	return cur, true
}

// LoggingMiddleware traces every action entering the pipeline at debug level.
// Logging is fire-and-forget with respect to the store's guarantees
func LoggingMiddleware[S, A any](logger *zap.Logger) Middleware[S, A] {
	return func(action A, _ S, next func(A)) {
		logger.Debug("dispatching action", zap.Any("action", action))
		next(action)
	}
}
