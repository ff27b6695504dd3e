package stretch

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// Resampler plays inner material faster or slower by requesting it at
// destination rate divided by tempo factor.
type Resampler struct {
	supply.Supplier
	tempo
	audioReq supply.AudioRequest
	midiReq  supply.MidiRequest
}

// NewResampler returns enabled resampler responsible for tempo.
func NewResampler(inner supply.Supplier) *Resampler {
	return &Resampler{
		Supplier: inner,
		tempo: tempo{
			enabled:     true,
			responsible: true,
			factor:      1,
		},
	}
}

// SupplyAudio implements supply.AudioSupplier.
func (r *Resampler) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	if !r.active() {
		return r.Supplier.SupplyAudio(req, dest)
	}
	rate, ok := r.Supplier.FrameRate()
	if !ok {
		return r.Supplier.SupplyAudio(req, dest)
	}
	r.audioReq = req.Child(req.StartFrame, "resampler-audio")
	r.audioReq.DestSampleRate = supply.DestRate(req.DestSampleRate, rate) / r.factor
	return r.Supplier.SupplyAudio(&r.audioReq, dest)
}

// SupplyMidi implements supply.MidiSupplier. Requests without destination
// rate are passed through.
func (r *Resampler) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	if !r.active() || req.DestSampleRate <= 0 {
		return r.Supplier.SupplyMidi(req, events)
	}
	r.midiReq = req.Child(req.StartFrame, "resampler-midi")
	r.midiReq.DestSampleRate = req.DestSampleRate / r.factor
	return r.Supplier.SupplyMidi(&r.midiReq, events)
}
