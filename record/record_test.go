package record_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/mock"
	"github.com/dudk/clipchain/record"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/source"
	"github.com/dudk/clipchain/supply"
)

func constant(channels, frames int, value float64) signal.Float64 {
	s := signal.EmptyFloat64(channels, frames)
	for i := range s {
		for j := range s[i] {
			s[i][j] = value
		}
	}
	return s
}

func TestRecorderStates(t *testing.T) {
	r := record.New(&mock.Supplier{Limit: 100, NumChannels: 1, SampleRate: 44100}, 1, 100, 44100)

	_, err := r.WriteAudio(record.WriteAudioRequest{Input: constant(1, 10, 1), BlockLength: 10})
	assert.Equal(t, record.ErrNotRecording, err)
	assert.Equal(t, record.ErrNotRecording, r.StopRecording())
	_, err = r.Commit()
	assert.Equal(t, record.ErrNotRecording, err)

	assert.NoError(t, r.StartRecording(record.Replace, 0))
	assert.Equal(t, record.ErrAlreadyRecording, r.StartRecording(record.Replace, 0))
	_, err = r.Commit()
	assert.Equal(t, record.ErrStillRecording, err)

	assert.NoError(t, r.StopRecording())
	assert.True(t, r.HasTake())
	assert.False(t, r.IsRecording())
	r.Rollback()
	assert.False(t, r.HasTake())
}

func TestRecorderReplace(t *testing.T) {
	inner := &mock.Supplier{Limit: 100, NumChannels: 1, SampleRate: 44100}
	r := record.New(inner, 2, 32, 44100)
	assert.NoError(t, r.StartRecording(record.Replace, 50))

	n, err := r.WriteAudio(record.WriteAudioRequest{Input: constant(2, 10, 0.5), BlockLength: 10})
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 2, r.ChannelCount())
	_, ok := r.FrameCount()
	assert.False(t, ok)

	// unpublished frames are silent while recording
	dest := constant(2, 16, 9)
	res := r.SupplyAudio(&supply.AudioRequest{StartFrame: 0}, dest)
	assert.Equal(t, supply.Continue(16, 16, 16), res)
	assert.Equal(t, 0.5, dest[1][9])
	assert.Equal(t, 0.0, dest[1][10])
	calls, _ := inner.Count()
	assert.Equal(t, 0, calls)

	n, err = r.WriteAudio(record.WriteAudioRequest{Input: constant(2, 30, 0.25), BlockLength: 30})
	assert.Equal(t, record.ErrBufferFull, err)
	assert.Equal(t, 22, n)
	assert.Equal(t, 32, r.RecordedFrames())

	assert.NoError(t, r.StopRecording())
	count, ok := r.FrameCount()
	assert.True(t, ok)
	assert.Equal(t, 32, count)
	res = r.SupplyAudio(&supply.AudioRequest{StartFrame: 24}, dest)
	assert.Equal(t, supply.ReachedEnd(8, 8), res)

	s, err := r.Commit()
	assert.NoError(t, err)
	r.Replace(s)
	assert.False(t, r.HasTake())
	assert.Equal(t, s, r.Inner())
	committed := s.(*source.Audio).Material()
	assert.Equal(t, 32, committed.Size())
	assert.Equal(t, 0.5, committed[0][0])
	assert.Equal(t, 0.25, committed[0][31])
}

func TestRecorderOverdub(t *testing.T) {
	inner := source.NewAudio(constant(1, 20, 1), 44100)
	r := record.New(inner, 1, 100, 44100)
	assert.NoError(t, r.StartRecording(record.Overdub, 5))
	_, err := r.WriteAudio(record.WriteAudioRequest{Input: constant(1, 20, 0.5), BlockLength: 20})
	assert.NoError(t, err)

	dest := signal.EmptyFloat64(1, 30)
	res := r.SupplyAudio(&supply.AudioRequest{StartFrame: 0}, dest)
	assert.Equal(t, supply.ReachedEnd(20, 20), res)
	assert.Equal(t, 1.0, dest[0][4])
	assert.Equal(t, 1.5, dest[0][5])
	assert.Equal(t, 1.5, dest[0][19])
	assert.Equal(t, 0.5, dest[0][20])
	assert.Equal(t, 0.5, dest[0][24])
	assert.Equal(t, 0.0, dest[0][25])

	count, ok := r.FrameCount()
	assert.True(t, ok)
	assert.Equal(t, 25, count)

	assert.NoError(t, r.StopRecording())
	s, err := r.Commit()
	assert.NoError(t, err)
	merged := s.(*source.Audio).Material()
	assert.Equal(t, 25, merged.Size())
	assert.Equal(t, 1.0, merged[0][0])
	assert.Equal(t, 1.5, merged[0][5])
	assert.Equal(t, 0.5, merged[0][24])
}

func TestRecorderOverdubConcurrentWrite(t *testing.T) {
	const (
		frames    = 4096
		blockSize = 64
	)
	r := record.New(source.NewAudio(constant(1, frames, 1), 44100), 1, frames, 44100)
	assert.NoError(t, r.StartRecording(record.Overdub, 0))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		input := constant(1, blockSize, 0.5)
		for i := 0; i < frames/blockSize; i++ {
			if _, err := r.WriteAudio(record.WriteAudioRequest{Input: input, BlockLength: blockSize}); err != nil {
				return
			}
		}
	}()

	dest := signal.EmptyFloat64(1, 1024)
	for i := 0; i < 200; i++ {
		r.SupplyAudio(&supply.AudioRequest{StartFrame: 0}, dest)
		// recorded frames form a prefix of the block
		taken := 0
		for taken < dest.Size() && dest[0][taken] == 1.5 {
			taken++
		}
		for j := taken; j < dest.Size(); j++ {
			if !assert.Equal(t, 1.0, dest[0][j], "read %d frame %d", i, j) {
				break
			}
		}
	}
	wg.Wait()

	r.SupplyAudio(&supply.AudioRequest{StartFrame: 0}, dest)
	assert.Equal(t, 1.5, dest[0][dest.Size()-1])
	assert.Equal(t, frames, r.RecordedFrames())
}

func TestRecorderOverdubNoMaterial(t *testing.T) {
	r := record.New(&mock.Supplier{Limit: 100, NumChannels: 1, SampleRate: 44100}, 1, 100, 44100)
	assert.NoError(t, r.StartRecording(record.Overdub, 0))
	_, err := r.WriteAudio(record.WriteAudioRequest{Input: constant(1, 10, 1), BlockLength: 10})
	assert.NoError(t, err)
	assert.NoError(t, r.StopRecording())
	_, err = r.Commit()
	assert.Equal(t, record.ErrNoMaterial, err)
}

func TestRecorderMidi(t *testing.T) {
	r := record.New(source.NewMidi(nil, 0, 1000), 0, 1000, 1000)
	assert.NoError(t, r.StartRecording(record.Replace, 0))
	assert.NoError(t, r.WriteMidi(record.WriteMidiRequest{
		Events: []midi.Event{
			{Offset: 8, Msg: midi.NoteOff(0, 60)},
			{Offset: 2, Msg: midi.NoteOn(0, 60, 100)},
		},
		BlockLength: 10,
	}))
	assert.NoError(t, r.WriteMidi(record.WriteMidiRequest{
		Events:      []midi.Event{{Offset: 1, Msg: midi.NoteOn(0, 62, 100)}},
		BlockLength: 10,
	}))

	events := midi.NewEventList(8)
	res := r.SupplyMidi(&supply.MidiRequest{StartFrame: 0, DestFrameCount: 15}, events)
	assert.Equal(t, supply.Continue(15, 15, 15), res)
	assert.Equal(t, []midi.Event{
		{Offset: 2, Msg: midi.NoteOn(0, 60, 100)},
		{Offset: 8, Msg: midi.NoteOff(0, 60)},
		{Offset: 11, Msg: midi.NoteOn(0, 62, 100)},
	}, events.Events())

	events.Clear()
	r.ReleaseNotes(0, events)
	assert.Equal(t, []midi.Event{{Offset: 0, Msg: midi.NoteOff(0, 62)}}, events.Events())

	assert.NoError(t, r.StopRecording())
	s, err := r.Commit()
	assert.NoError(t, err)
	m := s.(*source.Midi)
	assert.Equal(t, 3, len(m.Events()))
	count, _ := m.FrameCount()
	assert.Equal(t, 20, count)
}

func TestRecorderMidiOverdub(t *testing.T) {
	inner := source.NewMidi([]midi.Event{{Offset: 0, Msg: midi.NoteOn(1, 40, 90)}}, 20, 1000)
	r := record.New(inner, 0, 1000, 1000)
	assert.NoError(t, r.StartRecording(record.Overdub, 10))
	assert.NoError(t, r.WriteMidi(record.WriteMidiRequest{
		Events:      []midi.Event{{Offset: 3, Msg: midi.NoteOn(0, 60, 100)}},
		BlockLength: 5,
	}))

	events := midi.NewEventList(8)
	r.SupplyMidi(&supply.MidiRequest{StartFrame: 0, DestFrameCount: 20}, events)
	assert.Equal(t, []midi.Event{
		{Offset: 0, Msg: midi.NoteOn(1, 40, 90)},
		{Offset: 13, Msg: midi.NoteOn(0, 60, 100)},
	}, events.Events())

	assert.NoError(t, r.StopRecording())
	s, err := r.Commit()
	assert.NoError(t, err)
	assert.Equal(t, []midi.Event{
		{Offset: 0, Msg: midi.NoteOn(1, 40, 90)},
		{Offset: 13, Msg: midi.NoteOn(0, 60, 100)},
	}, s.(*source.Midi).Events())
}
