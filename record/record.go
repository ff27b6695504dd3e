// Package record provides the recording stage of a chain.
//
// Recorder sits right above the material source. While a take is
// recorded, frames and events are written into preallocated buffers and
// published through atomic counters. Published frames are never written
// again, so readers on other threads can safely copy them.
package record

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/source"
	"github.com/dudk/clipchain/supply"
)

var (
	// ErrNotRecording is returned when operation requires a take.
	ErrNotRecording = errors.New("recorder has no active recording")
	// ErrAlreadyRecording is returned when recording is started twice.
	ErrAlreadyRecording = errors.New("recorder is already recording")
	// ErrStillRecording is returned when take is committed before stop.
	ErrStillRecording = errors.New("recording must be stopped first")
	// ErrBufferFull is returned when take exceeds recorder capacity.
	ErrBufferFull = errors.New("recording buffer is full")
	// ErrNoMaterial is returned when overdub take can't be merged with
	// inner supplier.
	ErrNoMaterial = errors.New("inner supplier doesn't expose its material")
)

// DefaultEventCapacity is the number of MIDI events a take can hold.
const DefaultEventCapacity = 4096

// MaxBlockSize is the size of scratch buffer used to mix overdub takes.
// Bigger requests are mixed in several steps.
const MaxBlockSize = 4096

// Mode defines how a take is combined with inner material.
type Mode int

const (
	// Replace serves the take instead of inner material.
	Replace Mode = iota
	// Overdub mixes the take into inner material.
	Overdub
)

func (m Mode) String() string {
	switch m {
	case Replace:
		return "replace"
	case Overdub:
		return "overdub"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

type state int32

const (
	idle state = iota
	recording
	stopped
)

// WriteAudioRequest carries one block of recorded audio.
type WriteAudioRequest struct {
	Input       signal.Float64
	BlockLength int
}

// WriteMidiRequest carries events of one recorded block. Event offsets
// are relative to the block start.
type WriteMidiRequest struct {
	Events      []midi.Event
	BlockLength int
}

// Recorder records takes on top of inner supplier.
type Recorder struct {
	supply.Supplier
	channels  int
	capacity  int
	frameRate float64

	state     atomic.Int32
	published atomic.Int64
	numEvents atomic.Int64
	mode      atomic.Int32
	start     atomic.Int64
	hasAudio  atomic.Bool
	takes     atomic.Int64

	buffer  signal.Float64
	events  []midi.Event
	tracker midi.NoteTracker
	// take whose notes are tracked, owned by the supplying thread
	trackedTake int64

	// headers used by the supplying thread
	view     signal.Float64
	takeView signal.Float64
	tailView signal.Float64
	scratch  signal.Float64
	overReq  supply.AudioRequest
	// header used by the recording thread
	writeView signal.Float64
}

// Option configures recorder.
type Option func(*Recorder)

// WithEventCapacity sets the number of MIDI events a take can hold.
func WithEventCapacity(n int) Option {
	return func(r *Recorder) {
		r.events = make([]midi.Event, n)
	}
}

// New allocates recorder buffers for a take of capacity frames.
func New(inner supply.Supplier, channels, capacity int, frameRate float64, options ...Option) *Recorder {
	r := &Recorder{
		Supplier:  inner,
		channels:  channels,
		capacity:  capacity,
		frameRate: frameRate,
		buffer:    signal.EmptyFloat64(channels, capacity),
		events:    make([]midi.Event, DefaultEventCapacity),
		scratch:   signal.EmptyFloat64(channels, MaxBlockSize),
	}
	viewSize := max(channels, inner.ChannelCount())
	r.view = make(signal.Float64, 0, viewSize)
	r.takeView = make(signal.Float64, 0, channels)
	r.tailView = make(signal.Float64, 0, viewSize)
	r.writeView = make(signal.Float64, 0, channels)
	for _, option := range options {
		option(r)
	}
	return r
}

// Inner returns the supplier the recorder currently wraps.
func (r *Recorder) Inner() supply.Supplier {
	return r.Supplier
}

// StartRecording starts a new take. Overdub takes are placed at startFrame
// of inner material, replace takes always start at frame zero.
func (r *Recorder) StartRecording(mode Mode, startFrame int) error {
	if state(r.state.Load()) == recording {
		return ErrAlreadyRecording
	}
	r.state.Store(int32(idle))
	r.mode.Store(int32(mode))
	r.start.Store(0)
	if mode == Overdub {
		r.start.Store(int64(startFrame))
	}
	r.hasAudio.Store(false)
	r.takes.Add(1)
	r.published.Store(0)
	r.numEvents.Store(0)
	r.state.Store(int32(recording))
	return nil
}

// IsRecording returns true while take is written.
func (r *Recorder) IsRecording() bool {
	return state(r.state.Load()) == recording
}

// HasTake returns true if take is recorded or being recorded.
func (r *Recorder) HasTake() bool {
	return state(r.state.Load()) != idle
}

// Mode returns mode of the current take.
func (r *Recorder) Mode() Mode {
	return Mode(r.mode.Load())
}

// RecordedFrames returns number of published frames of the take.
func (r *Recorder) RecordedFrames() int {
	return int(r.published.Load())
}

// WriteAudio appends a block to the take. Number of written frames is
// returned, it's less than block length only if buffer is full.
func (r *Recorder) WriteAudio(req WriteAudioRequest) (int, error) {
	if state(r.state.Load()) != recording {
		return 0, ErrNotRecording
	}
	r.hasAudio.Store(true)
	published := int(r.published.Load())
	block := min(req.BlockLength, req.Input.Size())
	n := min(block, r.capacity-published)
	if n > 0 {
		dest := r.buffer.Window(r.writeView, published, published+n)
		dest.Clear()
		req.Input.CopyTo(dest)
		r.published.Store(int64(published + n))
	}
	if n < block {
		return n, ErrBufferFull
	}
	return n, nil
}

// WriteMidi adds events of a block to the take and advances the take by
// block length.
func (r *Recorder) WriteMidi(req WriteMidiRequest) error {
	if state(r.state.Load()) != recording {
		return ErrNotRecording
	}
	published := int(r.published.Load())
	count := int(r.numEvents.Load())
	var err error
	for _, e := range req.Events {
		if count == len(r.events) {
			err = ErrBufferFull
			break
		}
		e.Offset += published
		i := count
		for ; i > 0 && r.events[i-1].Offset > e.Offset; i-- {
			r.events[i] = r.events[i-1]
		}
		r.events[i] = e
		count++
	}
	r.numEvents.Store(int64(count))
	end := min(published+req.BlockLength, r.capacity)
	if end < published+req.BlockLength {
		err = ErrBufferFull
	}
	r.published.Store(int64(end))
	return err
}

// StopRecording finishes the take. Take keeps being served until it's
// committed and replaced or rolled back.
func (r *Recorder) StopRecording() error {
	if state(r.state.Load()) != recording {
		return ErrNotRecording
	}
	r.state.Store(int32(stopped))
	return nil
}

// Rollback discards the take.
func (r *Recorder) Rollback() {
	r.state.Store(int32(idle))
	r.published.Store(0)
	r.numEvents.Store(0)
}

// Commit materializes stopped take as a new supplier. It allocates and
// must be called off the real-time thread, result is handed back with
// Replace. Replace takes become the new material, overdub takes are
// merged with inner material.
func (r *Recorder) Commit() (supply.Supplier, error) {
	switch state(r.state.Load()) {
	case idle:
		return nil, ErrNotRecording
	case recording:
		return nil, ErrStillRecording
	}
	published := int(r.published.Load())
	events := r.events[:r.numEvents.Load()]
	if r.Mode() == Replace {
		if r.hasAudio.Load() {
			return source.NewAudio(r.buffer.Slice(0, published), r.frameRate), nil
		}
		return source.NewMidi(events, published, r.frameRate), nil
	}
	if r.hasAudio.Load() {
		return r.mergeAudio(published)
	}
	return r.mergeMidi(events, published)
}

type audioMaterial interface {
	Material() signal.Float64
	FrameRate() (float64, bool)
}

type midiMaterial interface {
	Events() []midi.Event
	FrameCount() (int, bool)
}

func (r *Recorder) mergeAudio(published int) (supply.Supplier, error) {
	inner, ok := r.Supplier.(audioMaterial)
	if !ok {
		return nil, ErrNoMaterial
	}
	rate, ok := inner.FrameRate()
	if !ok || rate != r.frameRate {
		return nil, fmt.Errorf("merge overdub at %v Hz: %w", r.frameRate, ErrNoMaterial)
	}
	material := inner.Material()
	start := int(r.start.Load())
	size := max(material.Size(), start+published)
	merged := signal.EmptyFloat64(max(material.NumChannels(), r.channels), size)
	for i := range material {
		copy(merged[i], material[i])
	}
	from := max(-start, 0)
	if from < published {
		take := r.buffer.Window(nil, from, published)
		merged.Window(nil, start+from, start+published).Mix(take)
	}
	return source.NewAudio(merged, rate), nil
}

func (r *Recorder) mergeMidi(events []midi.Event, published int) (supply.Supplier, error) {
	inner, ok := r.Supplier.(midiMaterial)
	if !ok {
		return nil, ErrNoMaterial
	}
	count, _ := inner.FrameCount()
	start := int(r.start.Load())
	merged := make([]midi.Event, 0, len(inner.Events())+len(events))
	merged = append(merged, inner.Events()...)
	for _, e := range events {
		if e.Offset += start; e.Offset >= 0 {
			merged = append(merged, e)
		}
	}
	return source.NewMidi(merged, max(count, start+published), r.frameRate), nil
}

// Replace swaps inner supplier and drops the take. Must be called on the
// thread that supplies the recorder.
func (r *Recorder) Replace(s supply.Supplier) {
	r.Supplier = s
	r.Rollback()
}

func (r *Recorder) replacing() bool {
	return state(r.state.Load()) != idle && r.Mode() == Replace
}

func (r *Recorder) overdubbing() bool {
	return state(r.state.Load()) != idle && r.Mode() == Overdub
}

// SupplyAudio implements supply.AudioSupplier.
func (r *Recorder) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	switch {
	case r.replacing():
		return supply.SupplyAudioMaterial(req, dest, r.view, r.frameRate, func(start int, dest signal.Float64) supply.Response {
			return r.transferTake(start, dest, req.DestSampleRate)
		})
	case r.overdubbing():
		res := r.Supplier.SupplyAudio(req, dest)
		if r.hasAudio.Load() {
			r.mixTake(req, dest)
		}
		return res
	}
	return r.Supplier.SupplyAudio(req, dest)
}

// transferTake writes published frames of the take. While recording,
// unpublished frames are silent and the take has no end.
func (r *Recorder) transferTake(start int, dest signal.Float64, destRate float64) supply.Response {
	take := r.buffer.Window(r.takeView, 0, int(r.published.Load()))
	res := supply.Transfer(take, r.frameRate, start, dest, destRate)
	if state(r.state.Load()) != recording {
		return res
	}
	size := dest.Size()
	if res.NumFramesWritten < size {
		dest.Window(r.tailView, res.NumFramesWritten, size).Clear()
	}
	consumed := int(math.Round(float64(size) * r.frameRate / supply.DestRate(destRate, r.frameRate)))
	return supply.Continue(size, consumed, start+consumed)
}

// mixTake adds take frames overlapping the request to dest.
func (r *Recorder) mixTake(req *supply.AudioRequest, dest signal.Float64) {
	ratio := r.frameRate / supply.DestRate(req.DestSampleRate, r.frameRate)
	size := dest.Size()
	for offset := 0; offset < size; offset += MaxBlockSize {
		n := min(MaxBlockSize, size-offset)
		takeStart := req.StartFrame - int(r.start.Load()) + int(math.Round(float64(offset)*ratio))
		r.overReq = req.Child(takeStart, "recorder-overdub")
		part := r.scratch.Window(r.tailView, 0, n)
		res := supply.SupplyAudioMaterial(&r.overReq, part, r.view, r.frameRate, func(start int, dest signal.Float64) supply.Response {
			take := r.buffer.Window(r.takeView, 0, int(r.published.Load()))
			res := supply.Transfer(take, r.frameRate, start, dest, req.DestSampleRate)
			if res.NumFramesWritten < dest.Size() {
				for i := range dest {
					clear(dest[i][res.NumFramesWritten:])
				}
			}
			return res
		})
		if res.NumFramesWritten < n {
			for i := range part {
				clear(part[i][res.NumFramesWritten:])
			}
		}
		for i := range dest {
			if i >= len(part) {
				break
			}
			target := dest[i][offset : offset+n]
			for j, v := range part[i] {
				target[j] += v
			}
		}
	}
}

// syncTracker forgets notes of a previous take.
func (r *Recorder) syncTracker() {
	if take := r.takes.Load(); take != r.trackedTake {
		r.tracker.Reset()
		r.trackedTake = take
	}
}

// SupplyMidi implements supply.MidiSupplier.
func (r *Recorder) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	r.syncTracker()
	switch {
	case r.replacing():
		ratio := r.frameRate / supply.DestRate(req.DestSampleRate, r.frameRate)
		return supply.SupplyMidiMaterial(req, r.frameRate, func(start, count, offset int) supply.Response {
			return r.transferEvents(start, count, offset, ratio, events, &r.tracker)
		})
	case r.overdubbing():
		res := r.Supplier.SupplyMidi(req, events)
		ratio := r.frameRate / supply.DestRate(req.DestSampleRate, r.frameRate)
		consumed := int(math.Round(float64(req.DestFrameCount) * ratio))
		source.TransferEvents(r.publishedEvents(), req.StartFrame-int(r.start.Load()), consumed, 0, ratio, events, &r.tracker)
		return res
	}
	return r.Supplier.SupplyMidi(req, events)
}

func (r *Recorder) publishedEvents() []midi.Event {
	return r.events[:r.numEvents.Load()]
}

func (r *Recorder) transferEvents(start, count, offset int, ratio float64, events *midi.EventList, tracker *midi.NoteTracker) supply.Response {
	consumed := int(math.Round(float64(count) * ratio))
	published := int(r.published.Load())
	if state(r.state.Load()) == recording {
		source.TransferEvents(r.publishedEvents(), start, consumed, offset, ratio, events, tracker)
		return supply.Continue(count, consumed, start+consumed)
	}
	if start >= published {
		return supply.Exceeded()
	}
	res := supply.LimitedByFrameCount(count, consumed, start, published)
	if start+consumed > published {
		consumed = published - start
		res = supply.ReachedEnd(int(math.Round(float64(consumed)/ratio)), consumed)
	}
	source.TransferEvents(r.publishedEvents(), start, consumed, offset, ratio, events, tracker)
	return res
}

// ReleaseNotes releases notes of the take and inner material.
func (r *Recorder) ReleaseNotes(offset int, events *midi.EventList) {
	r.syncTracker()
	r.tracker.ReleaseNotes(offset, events)
	if !r.replacing() {
		r.Supplier.ReleaseNotes(offset, events)
	}
}

// ChannelCount implements supply.AudioSupplier.
func (r *Recorder) ChannelCount() int {
	if r.replacing() {
		return r.channels
	}
	return r.Supplier.ChannelCount()
}

// FrameRate implements supply.Supplier.
func (r *Recorder) FrameRate() (float64, bool) {
	if r.replacing() {
		return r.frameRate, true
	}
	return r.Supplier.FrameRate()
}

// FrameCount implements supply.Supplier. Replace take being recorded has
// no known length.
func (r *Recorder) FrameCount() (int, bool) {
	if r.replacing() {
		if r.IsRecording() {
			return 0, false
		}
		return int(r.published.Load()), true
	}
	if r.overdubbing() {
		count, ok := r.Supplier.FrameCount()
		if !ok {
			return count, ok
		}
		return max(count, int(r.start.Load())+int(r.published.Load())), true
	}
	return r.Supplier.FrameCount()
}

// PreBuffer implements supply.Supplier. Take is always in memory.
func (r *Recorder) PreBuffer(req supply.PreBufferRequest) {
	if r.replacing() {
		return
	}
	r.Supplier.PreBuffer(req)
}
