// Package downbeat aligns the downbeat of material with the start of
// playback.
package downbeat

import (
	"errors"
	"math"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// ErrInvalidBeat is returned for negative beats or non-positive tempo.
var ErrInvalidBeat = errors.New("beat must be non-negative and tempo positive")

// Downbeat shifts every request by the downbeat frame, so playback
// position zero addresses the downbeat of inner material.
type Downbeat struct {
	supply.Supplier
	enabled  bool
	frame    int
	audioReq supply.AudioRequest
	midiReq  supply.MidiRequest
}

// New returns disabled downbeat stage.
func New(inner supply.Supplier) *Downbeat {
	return &Downbeat{
		Supplier: inner,
	}
}

// SetEnabled enables or disables the shift.
func (d *Downbeat) SetEnabled(enabled bool) {
	d.enabled = enabled
}

// Enabled returns true if shift is applied.
func (d *Downbeat) Enabled() bool {
	return d.enabled
}

// SetDownbeatFrame sets downbeat position in native frames of inner material.
func (d *Downbeat) SetDownbeatFrame(frame int) {
	d.frame = frame
}

// DownbeatFrame returns downbeat position.
func (d *Downbeat) DownbeatFrame() int {
	return d.frame
}

// SetDownbeatInBeats sets downbeat position in beats at bpm tempo. Inner
// supplier must have a frame rate.
func (d *Downbeat) SetDownbeatInBeats(beat, bpm float64) error {
	if beat < 0 || bpm <= 0 {
		return ErrInvalidBeat
	}
	rate, ok := d.Supplier.FrameRate()
	if !ok {
		return supply.ErrNoFrameRate
	}
	seconds := beat * 60 / bpm
	d.SetDownbeatFrame(int(math.Round(seconds * rate)))
	return nil
}

func (d *Downbeat) active() bool {
	return d.enabled && d.frame != 0
}

// SupplyAudio implements supply.AudioSupplier.
func (d *Downbeat) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if !d.active() {
		return d.Supplier.SupplyAudio(req, dest)
	}
	d.audioReq = req.Child(req.StartFrame+d.frame, "downbeat-request")
	return d.Supplier.SupplyAudio(&d.audioReq, dest)
}

// SupplyMidi implements supply.MidiSupplier.
func (d *Downbeat) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if !d.active() {
		return d.Supplier.SupplyMidi(req, events)
	}
	d.midiReq = req.Child(req.StartFrame+d.frame, "downbeat-request")
	return d.Supplier.SupplyMidi(&d.midiReq, events)
}

// PreBuffer implements supply.Supplier.
func (d *Downbeat) PreBuffer(req supply.PreBufferRequest) {
	if d.active() {
		req.StartFrame += d.frame
	}
	d.Supplier.PreBuffer(req)
}

// TranslatePlayPos implements supply.Supplier.
func (d *Downbeat) TranslatePlayPos(pos int) int {
	if d.enabled {
		pos += d.frame
	}
	return d.Supplier.TranslatePlayPos(pos)
}
