package chain

import (
	"github.com/dudk/clipchain/cache"
	"github.com/dudk/clipchain/log"
	"github.com/dudk/clipchain/stretch"
)

// Option provides a way to set functional parameters to chain.
type Option func(*Chain)

// WithLogger sets logger for control-plane events.
func WithLogger(logger log.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// WithMetric enables expvar counters for supply calls.
func WithMetric() Option {
	return func(c *Chain) {
		c.metered = true
	}
}

// WithEngine sets time stretch engine.
func WithEngine(engine stretch.Engine) Option {
	return func(c *Chain) {
		c.engine = engine
	}
}

// WithCacheBuilder allows to build cache asynchronously.
func WithCacheBuilder(b *cache.Builder) Option {
	return func(c *Chain) {
		c.builder = b
	}
}

// WithRecordCapacity sets the maximum length of a take in frames.
func WithRecordCapacity(frames int) Option {
	return func(c *Chain) {
		c.recordCapacity = frames
	}
}
