// Package cache materializes the output of inner suppliers in memory.
//
// An entry is built off the real-time thread and published through an
// atomic pointer, so supply calls never wait for the builder.
package cache

import (
	"sync/atomic"

	"github.com/dudk/clipchain/log"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// entry is never modified after it was published.
type entry struct {
	material  signal.Float64
	frameRate float64
}

// Cache serves audio from memory once enabled. MIDI always passes through.
type Cache struct {
	supply.Supplier
	entry  atomic.Pointer[entry]
	logger log.Logger
	view   signal.Float64
}

// Option configures the cache.
type Option func(*Cache)

// WithLogger sets logger for cache events.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New returns pass-through cache.
func New(inner supply.Supplier, options ...Option) *Cache {
	c := &Cache{
		Supplier: inner,
		logger:   log.Silent(),
		view:     make(signal.Float64, 0, inner.ChannelCount()),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Enable pulls entire inner material into memory. Inner supplier must not
// be supplied concurrently. Cache stays in pass-through mode if inner
// supplier has no frame rate or frame count, or if it doesn't write
// exactly one frame per consumed frame, as when tempo is changed below
// the cache.
func (c *Cache) Enable() {
	if c.IsCached() {
		return
	}
	if e := c.build(c.Supplier); e != nil {
		c.entry.Store(e)
	}
}

// Disable drops cached material.
func (c *Cache) Disable() {
	if c.entry.Swap(nil) != nil {
		c.logger.Debug("cache disabled")
	}
}

// IsCached returns true if material is served from memory.
func (c *Cache) IsCached() bool {
	return c.entry.Load() != nil
}

func (c *Cache) build(from supply.Supplier) *entry {
	rate, ok := from.FrameRate()
	if !ok {
		c.logger.Debug("cache declined: ", supply.ErrNoFrameRate)
		return nil
	}
	count, ok := from.FrameCount()
	if !ok || count == 0 {
		c.logger.Debug("cache declined: ", supply.ErrNoFrameCount)
		return nil
	}
	material := signal.EmptyFloat64(from.ChannelCount(), count)
	req := supply.AudioRequest{
		DestSampleRate: rate,
		Info: supply.RequestInfo{
			Requester: "cache-build",
		},
	}
	res := from.SupplyAudio(&req, material)
	if res.NumFramesWritten != count || res.NumFramesConsumed != count {
		// positions above the cache would no longer match inner frames
		c.logger.Debug("cache declined: ", res.NumFramesWritten, " frames written and ", res.NumFramesConsumed, " consumed of ", count)
		return nil
	}
	c.logger.Debug("cache built: ", count, " frames at ", rate, " Hz")
	return &entry{
		material:  material,
		frameRate: rate,
	}
}

// SupplyAudio implements supply.AudioSupplier.
func (c *Cache) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	e := c.entry.Load()
	if e == nil {
		return c.Supplier.SupplyAudio(req, dest)
	}
	return supply.SupplyAudioMaterial(req, dest, c.view, e.frameRate, func(start int, dest signal.Float64) supply.Response {
		return supply.Transfer(e.material, e.frameRate, start, dest, req.DestSampleRate)
	})
}

// SupplyMidi passes through, MIDI is not cached.
func (c *Cache) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	return c.Supplier.SupplyMidi(req, events)
}

// ChannelCount implements supply.AudioSupplier.
func (c *Cache) ChannelCount() int {
	if e := c.entry.Load(); e != nil {
		return e.material.NumChannels()
	}
	return c.Supplier.ChannelCount()
}

// FrameRate implements supply.Supplier.
func (c *Cache) FrameRate() (float64, bool) {
	if e := c.entry.Load(); e != nil {
		return e.frameRate, true
	}
	return c.Supplier.FrameRate()
}

// FrameCount implements supply.Supplier.
func (c *Cache) FrameCount() (int, bool) {
	if e := c.entry.Load(); e != nil {
		return e.material.Size(), true
	}
	return c.Supplier.FrameCount()
}

// PreBuffer is skipped while material is cached.
func (c *Cache) PreBuffer(req supply.PreBufferRequest) {
	if c.IsCached() {
		return
	}
	c.Supplier.PreBuffer(req)
}
