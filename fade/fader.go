package fade

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

type direction int

const (
	in direction = iota
	out
)

// Fader applies fades started on demand. A fade in started during a fade
// out, or the other way around, continues from the current gain.
type Fader struct {
	supply.Supplier
	active    bool
	dir       direction
	start     int
	resetMsgs midi.ResetMessages
}

// NewFader returns inactive fader.
func NewFader(inner supply.Supplier) *Fader {
	return &Fader{
		Supplier:  inner,
		resetMsgs: midi.DefaultResetMessages,
	}
}

// StartFadeIn starts fade in at frame. Frame is assumed to be the current
// position if a fade out is running.
func (f *Fader) StartFadeIn(frame int) {
	f.startFade(in, frame)
}

// StartFadeOut starts fade out at frame. Frame is assumed to be the
// current position if a fade in is running.
func (f *Fader) StartFadeOut(frame int) {
	f.startFade(out, frame)
}

func (f *Fader) startFade(dir direction, frame int) {
	if f.active {
		if f.dir == dir {
			return
		}
		// shift reversed fade so it starts at the current gain
		frame += frame - f.start - supply.FadeLength
	}
	f.active, f.dir, f.start = true, dir, frame
}

// Reset cancels running fade.
func (f *Fader) Reset() {
	f.active = false
}

// IsFadingIn returns true while fade in is running.
func (f *Fader) IsFadingIn() bool {
	return f.active && f.dir == in
}

// IsFadingOut returns true while fade out is running.
func (f *Fader) IsFadingOut() bool {
	return f.active && f.dir == out
}

// SetMidiResetMsgs sets messages sent when MIDI is faded out.
func (f *Fader) SetMidiResetMsgs(msgs midi.ResetMessages) {
	f.resetMsgs = msgs
}

// SupplyAudio implements supply.AudioSupplier.
func (f *Fader) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if !f.active || (f.dir == out && req.StartFrame < f.start) {
		return f.Supplier.SupplyAudio(req, dest)
	}
	end := f.start + supply.FadeLength
	if req.StartFrame >= end {
		f.active = false
		if f.dir == in {
			return f.Supplier.SupplyAudio(req, dest)
		}
		return supply.Exceeded()
	}
	res := f.Supplier.SupplyAudio(req, dest)
	ratio := supply.FrameRatio(res)
	if f.dir == in {
		supply.ApplyFadeIn(dest, req.StartFrame-f.start, ratio)
	} else {
		supply.ApplyFadeOut(dest, req.StartFrame-f.start, ratio)
	}
	if res.EndReached || req.StartFrame+res.NumFramesConsumed >= end {
		f.active = false
		if f.dir == out {
			return res.WithEndReached()
		}
	}
	return res
}

// SupplyMidi implements supply.MidiSupplier. Fade out silences the output.
func (f *Fader) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if !f.IsFadingOut() || req.StartFrame < f.start {
		return f.Supplier.SupplyMidi(req, events)
	}
	midi.Silence(events, f.resetMsgs, midi.Append, f.Supplier)
	f.active = false
	return supply.Exceeded()
}
