package fade

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// StartEndFader fades material in at its start and out at its end.
type StartEndFader struct {
	supply.Supplier
	audioFades bool
	forStart   bool
	forEnd     bool
	resetRange midi.ResetMessageRange
}

// NewStartEndFader returns fader with everything disabled.
func NewStartEndFader(inner supply.Supplier) *StartEndFader {
	return &StartEndFader{
		Supplier: inner,
	}
}

// SetAudioFadesEnabled toggles audio fades.
func (f *StartEndFader) SetAudioFadesEnabled(enabled bool) {
	f.audioFades = enabled
}

// SetEnabledForStart toggles handling of material start.
func (f *StartEndFader) SetEnabledForStart(enabled bool) {
	f.forStart = enabled
}

// SetEnabledForEnd toggles handling of material end.
func (f *StartEndFader) SetEnabledForEnd(enabled bool) {
	f.forEnd = enabled
}

// SetMidiResetMsgRange sets messages sent at material start and end.
func (f *StartEndFader) SetMidiResetMsgRange(r midi.ResetMessageRange) {
	f.resetRange = r
}

// SupplyAudio implements supply.AudioSupplier.
func (f *StartEndFader) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	res := f.Supplier.SupplyAudio(req, dest)
	if !f.audioFades {
		return res
	}
	ratio := supply.FrameRatio(res)
	if f.forStart {
		supply.ApplyFadeIn(dest, req.StartFrame, ratio)
	}
	if f.forEnd {
		if count, ok := f.Supplier.FrameCount(); ok {
			supply.ApplyFadeOutEndingAt(dest, req.StartFrame, count, ratio)
		}
	}
	return res
}

// SupplyMidi implements supply.MidiSupplier.
func (f *StartEndFader) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	res := f.Supplier.SupplyMidi(req, events)
	if f.forStart && req.StartFrame <= 0 && req.StartFrame+res.NumFramesConsumed > 0 {
		midi.Silence(events, f.resetRange.Left, midi.Prepend, f.Supplier)
	}
	if f.forEnd && res.EndReached {
		midi.Silence(events, f.resetRange.Right, midi.Append, f.Supplier)
	}
	return res
}
