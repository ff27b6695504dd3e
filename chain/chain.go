// Package chain composes suppliers into the fixed order used for clip
// playback:
//
//	source -> recorder -> section -> looper -> stretcher -> resampler
//	-> suspender -> cache -> start/end fader -> fader -> amplifier
//	-> downbeat
//
// Chain itself is a supply.Supplier. Setters must be called from the
// thread that supplies the chain. Other threads use mutations delivered
// with Push, they are applied at the start of the next supply call.
package chain

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/dudk/clipchain/amp"
	"github.com/dudk/clipchain/cache"
	"github.com/dudk/clipchain/downbeat"
	"github.com/dudk/clipchain/fade"
	"github.com/dudk/clipchain/log"
	"github.com/dudk/clipchain/loop"
	"github.com/dudk/clipchain/metric"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/mutable"
	"github.com/dudk/clipchain/record"
	"github.com/dudk/clipchain/section"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/stretch"
	"github.com/dudk/clipchain/supply"
)

// DefaultFrameRate is used to size buffers of rate-agnostic material.
const DefaultFrameRate = 48000.0

// DefaultRecordSeconds is the default capacity of recorder.
const DefaultRecordSeconds = 10

var (
	// ErrNoBuilder is returned when asynchronous cache is requested without
	// builder.
	ErrNoBuilder = errors.New("chain has no cache builder")
	// ErrTempoChanged is returned when cache is requested while stages
	// below the cache change tempo.
	ErrTempoChanged = errors.New("cache requires original tempo")
)

// Chain is a complete clip supply chain.
type Chain struct {
	supply.Supplier
	mutable.Context
	id xid.ID

	recorder  *record.Recorder
	section   *section.Section
	looper    *loop.Looper
	stretcher *stretch.Stretcher
	resampler *stretch.Resampler
	suspender *fade.Suspender
	cache     *cache.Cache
	startEnd  *fade.StartEndFader
	fader     *fade.Fader
	amplifier *amp.Amplifier
	downbeat  *downbeat.Downbeat
	mode      stretch.Mode
	// suspension is handled by the fader while cache is used
	fadeSuspended bool

	mailbox *mutable.Mailbox

	logger         log.Logger
	engine         stretch.Engine
	builder        *cache.Builder
	metered        bool
	meter          metric.MeasureFunc
	recordCapacity int
}

// New builds a chain on top of material source.
func New(src supply.Supplier, options ...Option) *Chain {
	c := &Chain{
		Context: mutable.New(),
		id:      xid.New(),
		logger:  log.Silent(),
	}
	c.mailbox = mutable.NewMailbox(c.Context)
	for _, option := range options {
		option(c)
	}

	rate, ok := src.FrameRate()
	if !ok {
		rate = DefaultFrameRate
	}
	if c.recordCapacity == 0 {
		c.recordCapacity = int(rate) * DefaultRecordSeconds
	}
	c.recorder = record.New(src, src.ChannelCount(), c.recordCapacity, rate)
	c.section = section.New(c.recorder)
	c.looper = loop.New(c.section)
	c.stretcher = stretch.NewStretcher(c.looper, c.engine)
	c.resampler = stretch.NewResampler(c.stretcher)
	c.suspender = fade.NewSuspender(c.resampler)
	c.cache = cache.New(c.suspender, cache.WithLogger(c.logger))
	c.startEnd = fade.NewStartEndFader(c.cache)
	c.fader = fade.NewFader(c.startEnd)
	c.amplifier = amp.New(c.fader)
	c.downbeat = downbeat.New(c.amplifier)
	c.Supplier = c.downbeat
	if c.metered {
		c.meter = metric.Meter(c, rate)()
	}
	c.logger.Debug(fmt.Sprintf("chain %v: created at %v Hz", c.id, rate))
	return c
}

// ID returns unique chain identifier.
func (c *Chain) ID() string {
	return c.id.String()
}

// drain applies mutations pushed by other threads.
func (c *Chain) drain() {
	if batch, ok := c.mailbox.Receive(); ok {
		batch.ApplyTo(c.Context)
	}
}

func (c *Chain) measure(res supply.Response) supply.Response {
	if c.meter != nil {
		c.meter(res.NumFramesWritten, res.NumFramesConsumed, res.EndReached)
	}
	return res
}

// SupplyAudio implements supply.AudioSupplier.
func (c *Chain) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	c.drain()
	return c.measure(c.Supplier.SupplyAudio(req, dest))
}

// SupplyMidi implements supply.MidiSupplier.
func (c *Chain) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	c.drain()
	return c.measure(c.Supplier.SupplyMidi(req, events))
}

// PreBuffer implements supply.Supplier.
func (c *Chain) PreBuffer(req supply.PreBufferRequest) {
	c.drain()
	c.Supplier.PreBuffer(req)
}

// Push delivers mutations to the supplying thread. It blocks until
// previously pushed mutations are applied or context is done.
func (c *Chain) Push(ctx context.Context, mutations ...mutable.Mutation) error {
	if err := c.mailbox.Push(ctx, mutations...); err != nil {
		return fmt.Errorf("chain %v: push mutations: %w", c.id, err)
	}
	return nil
}

// TryPush delivers mutations without blocking. Mutations that couldn't
// be delivered are kept until the next push, true is returned in that
// case.
func (c *Chain) TryPush(mutations ...mutable.Mutation) bool {
	return c.mailbox.TryPush(mutations...)
}

// Recorder returns recorder stage.
func (c *Chain) Recorder() *record.Recorder {
	return c.recorder
}

// Section returns section stage.
func (c *Chain) Section() *section.Section {
	return c.section
}

// Looper returns looper stage.
func (c *Chain) Looper() *loop.Looper {
	return c.looper
}

// Stretcher returns time stretcher stage.
func (c *Chain) Stretcher() *stretch.Stretcher {
	return c.stretcher
}

// Resampler returns resampler stage.
func (c *Chain) Resampler() *stretch.Resampler {
	return c.resampler
}

// Suspender returns suspender stage.
func (c *Chain) Suspender() *fade.Suspender {
	return c.suspender
}

// Cache returns cache stage.
func (c *Chain) Cache() *cache.Cache {
	return c.cache
}

// StartEndFader returns start/end fader stage.
func (c *Chain) StartEndFader() *fade.StartEndFader {
	return c.startEnd
}

// Fader returns ad-hoc fader stage.
func (c *Chain) Fader() *fade.Fader {
	return c.fader
}

// Amplifier returns amplifier stage.
func (c *Chain) Amplifier() *amp.Amplifier {
	return c.amplifier
}

// Downbeat returns downbeat stage.
func (c *Chain) Downbeat() *downbeat.Downbeat {
	return c.downbeat
}

// Mode returns current tempo mode.
func (c *Chain) Mode() stretch.Mode {
	return c.mode
}
