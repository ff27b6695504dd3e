package stretch

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// ChunkSize is the number of frames fed to the engine at once.
const ChunkSize = 128

// Engine is a pitch preserving time-stretch engine. It buffers input
// internally, output becomes available once enough input was fed.
type Engine interface {
	// Configure prepares engine for material with frame rate and channels
	// played at tempo. Buffered data is dropped if any value changes.
	Configure(frameRate float64, channels int, tempo float64)
	// Buffer returns input buffer for frames.
	Buffer(frames int) signal.Float64
	// BufferDone marks frames of the input buffer as filled.
	BufferDone(frames int)
	// Samples moves available output into dest and returns number of frames.
	Samples(dest signal.Float64) int
	// Reset drops buffered data.
	Reset()
}

// Stretcher changes tempo of inner material without changing its pitch.
type Stretcher struct {
	supply.Supplier
	tempo
	engine Engine

	view      signal.Float64
	audioReq  supply.AudioRequest
	midiReq   supply.MidiRequest
	nextStart int
	primed    bool
}

// NewStretcher returns enabled stretcher that is not responsible for
// tempo. Built-in OLA engine is used if engine is nil.
func NewStretcher(inner supply.Supplier, engine Engine) *Stretcher {
	if engine == nil {
		engine = NewOLA(inner.ChannelCount())
	}
	return &Stretcher{
		Supplier: inner,
		tempo: tempo{
			enabled: true,
			factor:  1,
		},
		engine: engine,
		view:   make(signal.Float64, 0, inner.ChannelCount()),
	}
}

// Reset drops material buffered by the engine.
func (s *Stretcher) Reset() {
	s.engine.Reset()
	s.primed = false
}

// SupplyAudio implements supply.AudioSupplier. Inner material is pulled
// in chunks until destination is filled or material ends.
func (s *Stretcher) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if !s.active() {
		return s.Supplier.SupplyAudio(req, dest)
	}
	rate, ok := s.Supplier.FrameRate()
	if !ok {
		return s.Supplier.SupplyAudio(req, dest)
	}
	destRate := supply.DestRate(req.DestSampleRate, rate)
	s.engine.Configure(destRate, dest.NumChannels(), s.factor)
	if s.primed && req.StartFrame != s.nextStart {
		s.engine.Reset()
	}
	size := dest.Size()
	written, read := 0, 0
	ended := false
	for {
		n := s.engine.Samples(dest.Window(s.view, written, size))
		written += n
		if written > size {
			panic("stretch: engine produced more frames than requested")
		}
		if written == size || ended {
			break
		}
		s.audioReq = req.Child(req.StartFrame+read, "stretcher-audio")
		s.audioReq.DestSampleRate = destRate
		res := s.Supplier.SupplyAudio(&s.audioReq, s.engine.Buffer(ChunkSize))
		s.engine.BufferDone(res.NumFramesWritten)
		read += res.NumFramesConsumed
		if res.EndReached || res.NumFramesWritten == 0 {
			ended = true
		}
	}
	s.nextStart = req.StartFrame + read
	s.primed = !ended
	if ended {
		s.engine.Reset()
		return supply.ReachedEnd(written, read)
	}
	return supply.Continue(written, read, s.nextStart)
}

// SupplyMidi implements supply.MidiSupplier. MIDI is rate-agnostic, the
// destination rate is scaled instead.
func (s *Stretcher) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if !s.active() || req.DestSampleRate <= 0 {
		return s.Supplier.SupplyMidi(req, events)
	}
	s.midiReq = req.Child(req.StartFrame, "stretcher-midi")
	s.midiReq.DestSampleRate = req.DestSampleRate / s.factor
	return s.Supplier.SupplyMidi(&s.midiReq, events)
}
