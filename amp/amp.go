// Package amp provides the volume stage of a chain.
package amp

import (
	"math"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// MinDb is the volume treated as silence.
const MinDb = -150.0

// Amplifier scales audio samples and note on velocities.
type Amplifier struct {
	supply.Supplier
	db     float64
	factor float64
}

// New returns amplifier with unity gain.
func New(inner supply.Supplier) *Amplifier {
	return &Amplifier{
		Supplier: inner,
		factor:   1,
	}
}

// DbToFactor converts decibels to linear gain.
func DbToFactor(db float64) float64 {
	if math.IsInf(db, -1) || db <= MinDb {
		return 0
	}
	return math.Pow(10, db/20)
}

// SetVolume sets the volume in decibels.
func (a *Amplifier) SetVolume(db float64) {
	a.db = db
	a.factor = DbToFactor(db)
}

// Volume returns the volume in decibels.
func (a *Amplifier) Volume() float64 {
	return a.db
}

// Factor returns linear gain.
func (a *Amplifier) Factor() float64 {
	return a.factor
}

// SupplyAudio implements supply.AudioSupplier.
func (a *Amplifier) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	res := a.Supplier.SupplyAudio(req, dest)
	if a.factor != 1 {
		dest.Scale(a.factor)
	}
	return res
}

// SupplyMidi implements supply.MidiSupplier. Only note on velocities
// of events added by inner supplier are scaled.
func (a *Amplifier) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	from := events.Len()
	res := a.Supplier.SupplyMidi(req, events)
	if a.factor == 1 {
		return res
	}
	added := events.Events()[from:]
	for i := range added {
		if _, velocity, ok := added[i].Msg.NoteStart(); ok {
			added[i].Msg.SetVelocity(scaleVelocity(velocity, a.factor))
		}
	}
	return res
}

func scaleVelocity(velocity uint8, factor float64) uint8 {
	v := math.Round(float64(velocity) * factor)
	switch {
	case v < 1:
		return 1
	case v > 127:
		return 127
	}
	return uint8(v)
}
