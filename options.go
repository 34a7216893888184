package reactive

import (
	"github.com/sirupsen/logrus"
)

const defaultBufferSize = 16

type config struct {
	logger      logrus.FieldLogger
	metrics     *Metrics
	bufferSize  int
	onError     func(*HandlerError)
	stopOnError bool
	subID       string
}

// Option configures feeds, routers, subscriptions and matches. Each
// constructor reads only the settings that concern it.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger:     logrus.StandardLogger(),
		bufferSize: defaultBufferSize,
	}
}

func newConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// LoggerOf returns the logger selected by opts, for packages that accept
// these options and log alongside this one.
func LoggerOf(opts ...Option) logrus.FieldLogger {
	return newConfig(opts).logger
}

// WithLogger sets the logger used for handler failures, teardown failures
// and match resolution. The default is logrus.StandardLogger().
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records activity into m. A nil m disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithBuffer sets how many undelivered values a feed holds per subscriber
// before Send blocks. It panics if n is not positive.
func WithBuffer(n int) Option {
	if n <= 0 {
		panic("reactive: WithBuffer requires n > 0")
	}
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithErrorHandler registers a callback for failed handler invocations.
// It replaces the default, which logs a warning. The callback runs on the
// subscription's dispatch goroutine, so the next event waits for it.
func WithErrorHandler(fn func(*HandlerError)) Option {
	return func(c *config) {
		c.onError = fn
	}
}

// WithStopOnError tears a subscription down after its first failed
// handler invocation. By default failures are reported and dispatch
// continues with the next event.
func WithStopOnError() Option {
	return func(c *config) {
		c.stopOnError = true
	}
}

// WithSubscriptionID sets the id a subscription uses in logs and errors.
// Without it a random UUID is generated.
func WithSubscriptionID(id string) Option {
	return func(c *config) {
		c.subID = id
	}
}
