// Package section restricts playback to a part of inner material.
//
// Position zero of a section addresses its start frame in inner
// material. Audio is faded in at a section start that isn't the material
// start and faded out before a section end, MIDI gets reset messages at
// both bounds.
package section

import (
	"errors"
	"math"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// ErrInvalidBounds is returned for negative section start or length.
var ErrInvalidBounds = errors.New("section start and length must not be negative")

// Section plays frames [start, start+length) of inner material. Zero
// length means the section lasts until the end of material.
type Section struct {
	supply.Supplier
	start      int
	length     int
	resetRange midi.ResetMessageRange

	view      signal.Float64
	innerView signal.Float64
	audioReq  supply.AudioRequest
	midiReq   supply.MidiRequest
}

// New returns section that covers entire material.
func New(inner supply.Supplier) *Section {
	return &Section{
		Supplier:  inner,
		view:      make(signal.Float64, 0, inner.ChannelCount()),
		innerView: make(signal.Float64, 0, inner.ChannelCount()),
	}
}

// SetBounds sets start frame and length of the section in native frames.
func (s *Section) SetBounds(start, length int) error {
	if start < 0 || length < 0 {
		return ErrInvalidBounds
	}
	s.start, s.length = start, length
	return nil
}

// SetBoundsInSeconds sets bounds in seconds of inner material.
func (s *Section) SetBoundsInSeconds(start, length float64) error {
	rate, ok := s.Supplier.FrameRate()
	if !ok {
		return supply.ErrNoFrameRate
	}
	return s.SetBounds(int(math.Round(start*rate)), int(math.Round(length*rate)))
}

// Bounds returns start frame and length of the section.
func (s *Section) Bounds() (start, length int) {
	return s.start, s.length
}

// Reset makes section cover entire material.
func (s *Section) Reset() {
	s.start, s.length = 0, 0
}

// SetMidiResetMsgRange sets messages sent at section start and end.
func (s *Section) SetMidiResetMsgRange(r midi.ResetMessageRange) {
	s.resetRange = r
}

func (s *Section) bypass() bool {
	return s.start == 0 && s.length == 0
}

// nativeRate returns inner rate. Rate-agnostic material is addressed in
// destination frames.
func (s *Section) nativeRate(destRate float64) float64 {
	if rate, ok := s.Supplier.FrameRate(); ok {
		return rate
	}
	return supply.DestRate(destRate, 1)
}

// SupplyAudio implements supply.AudioSupplier. Material left of the
// section start is never played, pre-roll is silent.
func (s *Section) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if s.bypass() {
		return s.Supplier.SupplyAudio(req, dest)
	}
	rate := s.nativeRate(req.DestSampleRate)
	ratio := rate / supply.DestRate(req.DestSampleRate, rate)
	return supply.SupplyAudioMaterial(req, dest, s.view, rate, func(start int, dest signal.Float64) supply.Response {
		return s.transferAudio(req, start, dest, ratio)
	})
}

func (s *Section) transferAudio(req *supply.AudioRequest, start int, dest signal.Float64, ratio float64) supply.Response {
	size := dest.Size()
	written, consumed := size, int(math.Round(float64(size)*ratio))
	reached := false
	if s.length > 0 {
		if start >= s.length {
			return supply.Exceeded()
		}
		if remaining := s.length - start; consumed >= remaining {
			reached = true
			consumed = remaining
			written = min(size, int(math.Round(float64(remaining)/ratio)))
		}
	}
	s.audioReq = req.Child(s.start+start, "section-audio")
	res := s.Supplier.SupplyAudio(&s.audioReq, dest.Window(s.innerView, 0, written))
	if res.NumFramesWritten < written {
		dest.Window(s.innerView, res.NumFramesWritten, written).Clear()
	}
	if s.start > 0 {
		supply.ApplyFadeIn(dest, start, ratio)
	}
	if s.length > 0 {
		supply.ApplyFadeOutEndingAt(dest, start, s.length, ratio)
	}
	switch {
	case reached:
		return supply.ReachedEnd(written, consumed)
	case s.length > 0:
		// silence is played if material ends before the section
		return supply.Continue(size, consumed, start+consumed)
	case res.EndReached:
		return supply.ReachedEnd(res.NumFramesWritten, res.NumFramesConsumed)
	}
	return supply.Continue(res.NumFramesWritten, res.NumFramesConsumed, start+res.NumFramesConsumed)
}

// SupplyMidi implements supply.MidiSupplier. Events outside of the section
// are dropped.
func (s *Section) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if s.bypass() {
		return s.Supplier.SupplyMidi(req, events)
	}
	if s.length > 0 && req.StartFrame >= s.length {
		return supply.Exceeded()
	}
	from := events.Len()
	s.midiReq = req.Child(s.start+req.StartFrame, "section-midi")
	res := s.Supplier.SupplyMidi(&s.midiReq, events)
	ratio := supply.FrameRatio(res)
	if res.NumFramesWritten == 0 {
		rate := s.nativeRate(req.DestSampleRate)
		ratio = rate / supply.DestRate(req.DestSampleRate, rate)
	}
	written, consumed := res.NumFramesWritten, res.NumFramesConsumed
	reached := false
	if s.length > 0 {
		written = req.DestFrameCount
		consumed = int(math.Round(float64(written) * ratio))
		if remaining := s.length - req.StartFrame; consumed >= remaining {
			reached = true
			consumed = remaining
			written = min(written, int(math.Round(float64(remaining)/ratio)))
		}
	}
	// an event at offset o comes from frames [o*ratio, (o+1)*ratio) after start
	events.Retain(from, func(e midi.Event) bool {
		first := float64(req.StartFrame) + float64(e.Offset)*ratio
		if first+ratio <= 0 {
			return false
		}
		return s.length == 0 || first < float64(s.length)
	})
	if req.StartFrame <= 0 && req.StartFrame+consumed > 0 {
		midi.Silence(events, s.resetRange.Left, midi.Prepend, s.Supplier)
	}
	switch {
	case reached:
		midi.Silence(events, s.resetRange.Right, midi.Append, s.Supplier)
		return supply.ReachedEnd(written, consumed)
	case s.length == 0 && res.EndReached:
		return supply.ReachedEnd(written, consumed)
	}
	return supply.Continue(written, consumed, req.StartFrame+consumed)
}

// FrameCount implements supply.Supplier.
func (s *Section) FrameCount() (int, bool) {
	if s.length > 0 {
		return s.length, true
	}
	count, ok := s.Supplier.FrameCount()
	if !ok {
		return count, ok
	}
	return max(count-s.start, 0), true
}

// PreBuffer implements supply.Supplier.
func (s *Section) PreBuffer(req supply.PreBufferRequest) {
	req.StartFrame += s.start
	s.Supplier.PreBuffer(req)
}

// TranslatePlayPos implements supply.Supplier.
func (s *Section) TranslatePlayPos(pos int) int {
	return s.Supplier.TranslatePlayPos(s.start + pos)
}
