// Package fade provides suppliers that apply short fades to avoid clicks
// when playback starts or stops at arbitrary positions.
//
// Audio is faded with linear envelopes of supply.FadeLength frames. MIDI
// can't be faded, reset messages are sent instead.
package fade

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// Suspender fades audio out when playback must stop immediately.
type Suspender struct {
	supply.Supplier
	active    bool
	start     int
	resetMsgs midi.ResetMessages
}

// NewSuspender returns inactive suspender.
func NewSuspender(inner supply.Supplier) *Suspender {
	return &Suspender{
		Supplier:  inner,
		resetMsgs: midi.DefaultResetMessages,
	}
}

// Suspend starts fade out at frame.
func (s *Suspender) Suspend(frame int) {
	s.active, s.start = true, frame
}

// Reset cancels suspension.
func (s *Suspender) Reset() {
	s.active = false
}

// IsSuspending returns true until suspension is complete.
func (s *Suspender) IsSuspending() bool {
	return s.active
}

// SetMidiResetMsgs sets messages sent when MIDI is suspended.
func (s *Suspender) SetMidiResetMsgs(msgs midi.ResetMessages) {
	s.resetMsgs = msgs
}

// SupplyAudio implements supply.AudioSupplier. The response that covers
// the end of the fade reports end of material.
func (s *Suspender) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if !s.active || req.StartFrame < s.start {
		return s.Supplier.SupplyAudio(req, dest)
	}
	end := s.start + supply.FadeLength
	if req.StartFrame >= end {
		s.active = false
		return supply.Exceeded()
	}
	res := s.Supplier.SupplyAudio(req, dest)
	supply.ApplyFadeOut(dest, req.StartFrame-s.start, supply.FrameRatio(res))
	if res.EndReached || req.StartFrame+res.NumFramesConsumed >= end {
		s.active = false
		return res.WithEndReached()
	}
	return res
}

// SupplyMidi implements supply.MidiSupplier. First call after suspension
// frame silences the output and completes suspension.
func (s *Suspender) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if !s.active || req.StartFrame < s.start {
		return s.Supplier.SupplyMidi(req, events)
	}
	midi.Silence(events, s.resetMsgs, midi.Append, s.Supplier)
	s.active = false
	return supply.Exceeded()
}
