package statebox

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type (
	// Option adjusts store construction
	Option[S, A any] func(*config[S, A])

	config[S, A any] struct {
		clock      clockwork.Clock
		logger     *zap.Logger
		equals     func(S, S) bool
		recorder   *Recorder[S, A]
		middleware []Middleware[S, A]
	}
)

const (
	// DefaultReceiveTimeout bounds TestStore waits for effect-produced
	// actions
	DefaultReceiveTimeout = 1 * time.Second

	// DefaultReceivedCapacity is the TestStore's received-action buffer size
	DefaultReceivedCapacity = 256
)

func newConfig[S, A any](opts []Option[S, A]) *config[S, A] {
	cfg := &config[S, A]{
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithClock substitutes the clock used for debounce and throttle timers.
// Tests install a fake clock to drive timing deterministically
func WithClock[S, A any](clock clockwork.Clock) Option[S, A] {
	return func(c *config[S, A]) {
		c.clock = clock
	}
}

// WithLogger attaches a structured logger for dispatch and scheduler traces
func WithLogger[S, A any](logger *zap.Logger) Option[S, A] {
	return func(c *config[S, A]) {
		c.logger = logger
	}
}

// WithMiddleware appends stages to the dispatch pipeline in order
func WithMiddleware[S, A any](stages ...Middleware[S, A]) Option[S, A] {
	return func(c *config[S, A]) {
		c.middleware = append(c.middleware, stages...)
	}
}

// WithDeduplication suppresses subscriber notifications for accepted actions
// whose committed state compares equal to the previous one. Scopes rely on
// their parent for this deduplication
func WithDeduplication[S, A any](equals func(S, S) bool) Option[S, A] {
	return func(c *config[S, A]) {
		c.equals = equals
	}
}

// WithRecorder attaches a history recorder as the final middleware stage and
// pairs each accepted action with its committed state
func WithRecorder[S, A any](r *Recorder[S, A]) Option[S, A] {
	return func(c *config[S, A]) {
		c.recorder = r
	}
}
