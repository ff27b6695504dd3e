package downbeat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/clipchain/downbeat"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/mock"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

func TestDownbeat(t *testing.T) {
	tests := []struct {
		enabled  bool
		frame    int
		start    int
		expected int
	}{
		{enabled: false, frame: 10, start: 0, expected: 0},
		{enabled: true, frame: 0, start: 5, expected: 5},
		{enabled: true, frame: 10, start: 0, expected: 10},
		{enabled: true, frame: 10, start: -10, expected: 0},
		{enabled: true, frame: 10, start: -20, expected: -10},
	}
	for _, test := range tests {
		inner := &mock.Supplier{Limit: 1000, NumChannels: 1, SampleRate: 44100}
		d := downbeat.New(inner)
		d.SetEnabled(test.enabled)
		d.SetDownbeatFrame(test.frame)

		d.SupplyAudio(&supply.AudioRequest{StartFrame: test.start}, signal.EmptyFloat64(1, 4))
		d.SupplyMidi(&supply.MidiRequest{StartFrame: test.start, DestFrameCount: 4}, midi.NewEventList(4))
		d.PreBuffer(supply.PreBufferRequest{StartFrame: test.start})

		assert.Equal(t, []int{test.expected}, inner.AudioStarts)
		assert.Equal(t, []int{test.expected}, inner.MidiStarts)
		assert.Equal(t, test.expected, inner.PreBuffered[0].StartFrame)
		assert.Equal(t, test.expected, d.TranslatePlayPos(test.start))
	}
}

func TestDownbeatRequester(t *testing.T) {
	inner := &mock.Supplier{Limit: 1000, NumChannels: 1, SampleRate: 44100}
	d := downbeat.New(inner)
	d.SetEnabled(true)
	d.SetDownbeatFrame(100)
	req := supply.AudioRequest{StartFrame: 0, DestSampleRate: 48000}
	d.SupplyAudio(&req, signal.EmptyFloat64(1, 4))
	assert.Equal(t, "downbeat-request", inner.LastAudioReq.Info.Requester)
	assert.Equal(t, 48000.0, inner.LastAudioReq.DestSampleRate)
	assert.Equal(t, &req, inner.LastAudioReq.Parent)
}

func TestDownbeatInBeats(t *testing.T) {
	tests := []struct {
		beat     float64
		bpm      float64
		rate     float64
		agnostic bool
		expected int
		err      error
	}{
		{beat: 1, bpm: 120, rate: 48000, expected: 24000},
		{beat: 4, bpm: 60, rate: 44100, expected: 176400},
		{beat: 0.5, bpm: 90, rate: 48000, expected: 16000},
		{beat: -1, bpm: 120, rate: 48000, err: downbeat.ErrInvalidBeat},
		{beat: 1, bpm: 0, rate: 48000, err: downbeat.ErrInvalidBeat},
		{beat: 1, bpm: 120, agnostic: true, err: supply.ErrNoFrameRate},
	}
	for _, test := range tests {
		d := downbeat.New(&mock.Supplier{SampleRate: test.rate, RateAgnostic: test.agnostic})
		err := d.SetDownbeatInBeats(test.beat, test.bpm)
		assert.Equal(t, test.err, err)
		if test.err == nil {
			assert.Equal(t, test.expected, d.DownbeatFrame())
		}
	}
}
