// Package source provides in-memory leaf suppliers.
package source

import (
	"math"
	"sort"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// Audio serves decoded audio material kept in memory.
type Audio struct {
	material  signal.Float64
	frameRate float64
	view      signal.Float64
}

// NewAudio creates audio source. Material is not copied.
func NewAudio(material signal.Float64, frameRate float64) *Audio {
	return &Audio{
		material:  material,
		frameRate: frameRate,
		view:      make(signal.Float64, 0, material.NumChannels()),
	}
}

// Material returns underlying buffer.
func (a *Audio) Material() signal.Float64 {
	return a.material
}

// SupplyAudio implements supply.AudioSupplier.
func (a *Audio) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	return supply.SupplyAudioMaterial(req, dest, a.view, a.frameRate, func(start int, dest signal.Float64) supply.Response {
		return supply.Transfer(a.material, a.frameRate, start, dest, req.DestSampleRate)
	})
}

// SupplyMidi advances through material without producing events.
func (a *Audio) SupplyMidi(req *supply.MidiRequest, _ *midi.EventList) supply.Response {
	total := a.material.Size()
	return supply.SupplyMidiMaterial(req, a.frameRate, func(start, count, _ int) supply.Response {
		return coverFrames(start, count, total, a.frameRate/supply.DestRate(req.DestSampleRate, a.frameRate))
	})
}

// ReleaseNotes does nothing, audio material has no notes.
func (a *Audio) ReleaseNotes(int, *midi.EventList) {}

// ChannelCount returns number of material channels.
func (a *Audio) ChannelCount() int {
	return a.material.NumChannels()
}

// FrameRate returns native frame rate.
func (a *Audio) FrameRate() (float64, bool) {
	return a.frameRate, true
}

// FrameCount returns number of material frames.
func (a *Audio) FrameCount() (int, bool) {
	return a.material.Size(), true
}

// PreBuffer does nothing, material is already in memory.
func (a *Audio) PreBuffer(supply.PreBufferRequest) {}

// TranslatePlayPos returns pos unchanged.
func (a *Audio) TranslatePlayPos(pos int) int {
	return pos
}

// coverFrames returns a response for a window of count destination frames
// starting at start without writing anything.
func coverFrames(start, count, total int, ratio float64) supply.Response {
	if start >= total {
		return supply.Exceeded()
	}
	consumed := int(math.Round(float64(count) * ratio))
	if start+consumed <= total {
		return supply.LimitedByFrameCount(count, consumed, start, total)
	}
	consumed = total - start
	return supply.ReachedEnd(int(math.Round(float64(consumed)/ratio)), consumed)
}

// TransferEvents adds events placed in native window [start, start+consumed)
// to dest. Events must be sorted by offset. Native offsets are converted to
// destination offsets with ratio of native frames per destination frame
// and shifted by offset. Transferred messages are passed to tracker.
func TransferEvents(events []midi.Event, start, consumed, offset int, ratio float64, dest *midi.EventList, tracker *midi.NoteTracker) {
	end := start + consumed
	i := sort.Search(len(events), func(i int) bool {
		return events[i].Offset >= start
	})
	for ; i < len(events) && events[i].Offset < end; i++ {
		e := events[i]
		if !dest.Add(offset+int(float64(e.Offset-start)/ratio), e.Msg) {
			return
		}
		if tracker != nil {
			tracker.Process(e.Msg)
		}
	}
}
