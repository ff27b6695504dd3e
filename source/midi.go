package source

import (
	"errors"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// ErrUnsupportedMessage is returned when message doesn't fit into event list.
var ErrUnsupportedMessage = errors.New("only channel messages are supported")

// Midi serves a sequence of MIDI events. Event offsets are native frames,
// frame rate defines how many native frames make a second at base tempo.
type Midi struct {
	events     []midi.Event
	frameCount int
	frameRate  float64
	tracker    midi.NoteTracker
}

// NewMidi creates MIDI source with frameCount native frames. Events are
// copied and sorted.
func NewMidi(events []midi.Event, frameCount int, frameRate float64) *Midi {
	sorted := make([]midi.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return &Midi{
		events:     sorted,
		frameCount: frameCount,
		frameRate:  frameRate,
	}
}

// Add inserts a gomidi message at native frame. Must not be called while
// the source is supplied.
func (m *Midi) Add(frame int, msg gomidi.Message) error {
	sm, ok := midi.FromMessage(msg)
	if !ok {
		return ErrUnsupportedMessage
	}
	i := sort.Search(len(m.events), func(i int) bool {
		return m.events[i].Offset > frame
	})
	m.events = append(m.events, midi.Event{})
	copy(m.events[i+1:], m.events[i:])
	m.events[i] = midi.Event{Offset: frame, Msg: sm}
	if frame >= m.frameCount {
		m.frameCount = frame + 1
	}
	return nil
}

// Events returns sorted events of the sequence.
func (m *Midi) Events() []midi.Event {
	return m.events
}

// SupplyMidi implements supply.MidiSupplier.
func (m *Midi) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	ratio := m.frameRate / supply.DestRate(req.DestSampleRate, m.frameRate)
	return supply.SupplyMidiMaterial(req, m.frameRate, func(start, count, offset int) supply.Response {
		res := coverFrames(start, count, m.frameCount, ratio)
		TransferEvents(m.events, start, res.NumFramesConsumed, offset, ratio, events, &m.tracker)
		return res
	})
}

// ReleaseNotes adds note off for every note started by this source.
func (m *Midi) ReleaseNotes(offset int, events *midi.EventList) {
	m.tracker.ReleaseNotes(offset, events)
}

// SupplyAudio produces silence, MIDI material has no audio.
func (m *Midi) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	dest.Clear()
	if req.StartFrame >= m.frameCount {
		return supply.Exceeded()
	}
	return supply.LimitedByFrameCount(dest.Size(), dest.Size(), req.StartFrame, m.frameCount)
}

// ChannelCount returns zero.
func (m *Midi) ChannelCount() int {
	return 0
}

// FrameRate returns false, MIDI material is rate-agnostic.
func (m *Midi) FrameRate() (float64, bool) {
	return 0, false
}

// FrameCount returns length of the sequence in native frames.
func (m *Midi) FrameCount() (int, bool) {
	return m.frameCount, true
}

// PreBuffer does nothing.
func (m *Midi) PreBuffer(supply.PreBufferRequest) {}

// TranslatePlayPos returns pos unchanged.
func (m *Midi) TranslatePlayPos(pos int) int {
	return pos
}
