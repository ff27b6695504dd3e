package cache

import (
	"errors"
	"sync"

	"github.com/dudk/clipchain/log"
	"github.com/dudk/clipchain/supply"
)

var (
	// ErrBuilderClosed is returned when job is submitted to closed builder.
	ErrBuilderClosed = errors.New("cache builder is closed")
	// ErrBuilderBusy is returned when job queue is full.
	ErrBuilderBusy = errors.New("cache builder is busy")
)

// QueueSize is the number of jobs a builder accepts before it's busy.
const QueueSize = 16

type job struct {
	cache *Cache
	from  supply.Supplier
	done  chan struct{}
}

// Builder builds cache entries in a background goroutine.
type Builder struct {
	jobs   chan job
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
	logger log.Logger
}

// NewBuilder starts builder goroutine. Close must be called to stop it.
func NewBuilder(logger log.Logger) *Builder {
	if logger == nil {
		logger = log.Silent()
	}
	b := &Builder{
		jobs:   make(chan job, QueueSize),
		logger: logger,
	}
	b.wg.Add(1)
	go b.run()
	return b
}

func (b *Builder) run() {
	defer b.wg.Done()
	for j := range b.jobs {
		if !j.cache.IsCached() {
			if e := j.cache.build(j.from); e != nil {
				j.cache.entry.Store(e)
				b.logger.Debug("cache entry published")
			}
		}
		close(j.done)
	}
}

// Build materializes from and publishes it as entry of c. From must
// produce the same material as inner supplier of c, but must not be
// supplied by anyone else while building. Returned channel is closed when
// the job is done. Build never blocks, ErrBuilderBusy is returned when
// QueueSize jobs are waiting.
func (b *Builder) Build(c *Cache, from supply.Supplier) (<-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBuilderClosed
	}
	done := make(chan struct{})
	select {
	case b.jobs <- job{cache: c, from: from, done: done}:
		return done, nil
	default:
		return nil, ErrBuilderBusy
	}
}

// Close waits for submitted jobs and stops the builder.
func (b *Builder) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.jobs)
	b.mu.Unlock()
	b.wg.Wait()
}
