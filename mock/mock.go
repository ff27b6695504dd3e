// Package mock provides mocks for chain stages and allows to execute
// integration tests.
package mock

import (
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// Supplier mocks a supply.Supplier interface. Every frame has the value
// of its position plus Offset, so tests can verify which frames were
// served.
type Supplier struct {
	counter
	Limit       int
	NumChannels int
	SampleRate  float64
	Offset      float64
	// RateAgnostic makes FrameRate report false.
	RateAgnostic bool
	// Unbounded makes FrameCount report false.
	Unbounded bool
	// Events are served by SupplyMidi, offsets are frames.
	Events []midi.Event
	Hooks
}

// Hooks records calls of auxiliary methods.
type Hooks struct {
	PreBuffered  []supply.PreBufferRequest
	Released     int
	AudioStarts  []int
	MidiStarts   []int
	LastAudioReq supply.AudioRequest
	LastMidiReq  supply.MidiRequest
}

// SupplyAudio implements supply.AudioSupplier.
func (m *Supplier) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	m.LastAudioReq = *req
	m.AudioStarts = append(m.AudioStarts, req.StartFrame)
	res := supply.SupplyAudioMaterial(req, dest, nil, m.SampleRate, func(start int, dest signal.Float64) supply.Response {
		n := dest.Size()
		if !m.Unbounded {
			if start >= m.Limit {
				return supply.Exceeded()
			}
			if left := m.Limit - start; left < n {
				n = left
			}
		}
		for i := range dest {
			for j := 0; j < n; j++ {
				dest[i][j] = m.Offset + float64(start+j)
			}
		}
		if m.Unbounded {
			return supply.Continue(n, n, start+n)
		}
		return supply.LimitedByFrameCount(n, n, start, m.Limit)
	})
	m.advance(res.NumFramesWritten)
	return res
}

// SupplyMidi implements supply.MidiSupplier. Destination rate is ignored.
func (m *Supplier) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	m.LastMidiReq = *req
	m.MidiStarts = append(m.MidiStarts, req.StartFrame)
	end := req.StartFrame + req.DestFrameCount
	for _, e := range m.Events {
		if e.Offset >= req.StartFrame && e.Offset < end {
			events.Add(e.Offset-req.StartFrame, e.Msg)
		}
	}
	m.advance(req.DestFrameCount)
	if m.Unbounded {
		return supply.Continue(req.DestFrameCount, req.DestFrameCount, end)
	}
	return supply.LimitedByFrameCount(req.DestFrameCount, req.DestFrameCount, req.StartFrame, m.Limit)
}

// ReleaseNotes implements midi.NoteReleaser.
func (m *Supplier) ReleaseNotes(int, *midi.EventList) {
	m.Released++
}

// ChannelCount implements supply.AudioSupplier.
func (m *Supplier) ChannelCount() int {
	return m.NumChannels
}

// FrameRate implements supply.Supplier.
func (m *Supplier) FrameRate() (float64, bool) {
	return m.SampleRate, !m.RateAgnostic
}

// FrameCount implements supply.Supplier.
func (m *Supplier) FrameCount() (int, bool) {
	return m.Limit, !m.Unbounded
}

// PreBuffer implements supply.Supplier.
func (m *Supplier) PreBuffer(req supply.PreBufferRequest) {
	m.PreBuffered = append(m.PreBuffered, req)
}

// TranslatePlayPos implements supply.Supplier.
func (m *Supplier) TranslatePlayPos(pos int) int {
	return pos
}

type counter struct {
	calls  int
	frames int
}

func (c *counter) advance(frames int) {
	c.calls++
	c.frames += frames
}

// Count returns number of supply calls and supplied frames.
func (c *counter) Count() (calls, frames int) {
	return c.calls, c.frames
}

// Reset resets counter's metrics and hooks.
func (m *Supplier) Reset() {
	m.counter = counter{}
	m.Hooks = Hooks{}
}
