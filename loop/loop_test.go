package loop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/clipchain/loop"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/source"
	"github.com/dudk/clipchain/supply"
)

func material(size int) signal.Float64 {
	floats := signal.EmptyFloat64(1, size)
	for i := range floats[0] {
		floats[0][i] = float64(i + 1)
	}
	return floats
}

func TestWrapAroundEndOfMaterial(t *testing.T) {
	m := material(48000)
	l := loop.New(source.NewAudio(m, 48000))
	l.SetEnabled(true)

	dest := signal.EmptyFloat64(1, 20)
	res := l.SupplyAudio(&supply.AudioRequest{StartFrame: 47990}, dest)
	assert.Equal(t, 20, res.NumFramesWritten)
	assert.Equal(t, 20, res.NumFramesConsumed)
	next, ok := res.Next()
	assert.True(t, ok)
	assert.Equal(t, 48010, next)
	assert.Equal(t, m[0][47990:48000], dest[0][:10])
	assert.Equal(t, m[0][0:10], dest[0][10:])
}

func TestWrapEqualsSeparateCalls(t *testing.T) {
	const (
		n      = 100
		window = 16
	)
	m := material(n)
	for k := 1; k < window; k++ {
		l := loop.New(source.NewAudio(m, 44100))
		l.SetEnabled(true)
		stitched := signal.EmptyFloat64(1, window)
		l.SupplyAudio(&supply.AudioRequest{StartFrame: n - k}, stitched)

		s := source.NewAudio(m, 44100)
		tail := signal.EmptyFloat64(1, k)
		head := signal.EmptyFloat64(1, window-k)
		s.SupplyAudio(&supply.AudioRequest{StartFrame: n - k}, tail)
		s.SupplyAudio(&supply.AudioRequest{StartFrame: 0}, head)
		assert.Equal(t, tail.Append(head), stitched, "k=%d", k)
	}
}

func TestContinuity(t *testing.T) {
	const blockSize = 7
	m := material(30)
	l := loop.New(source.NewAudio(m, 44100))
	l.SetEnabled(true)

	var result signal.Float64
	start := 3
	for i := 0; i < 20; i++ {
		dest := signal.EmptyFloat64(1, blockSize)
		res := l.SupplyAudio(&supply.AudioRequest{StartFrame: start}, dest)
		assert.Equal(t, blockSize, res.NumFramesWritten)
		result = result.Append(dest)
		var ok bool
		start, ok = res.Next()
		assert.True(t, ok)
	}

	big := signal.EmptyFloat64(1, blockSize*20)
	bl := loop.New(source.NewAudio(m, 44100))
	bl.SetEnabled(true)
	bl.SupplyAudio(&supply.AudioRequest{StartFrame: 3}, big)
	expected := make([]float64, 0, len(big[0]))
	for i := 0; i < blockSize*20; i++ {
		expected = append(expected, m[0][(3+i)%30])
	}
	assert.Equal(t, expected, result[0])
	assert.Equal(t, big[0], result[0])
}

func TestShortMaterial(t *testing.T) {
	l := loop.New(source.NewAudio(signal.Float64{{1, 2, 3}}, 44100))
	l.SetEnabled(true)
	dest := signal.EmptyFloat64(1, 8)
	res := l.SupplyAudio(&supply.AudioRequest{StartFrame: 2}, dest)
	assert.Equal(t, supply.Continue(8, 8, 10), res)
	assert.Equal(t, []float64{3, 1, 2, 3, 1, 2, 3, 1}, dest[0])
}

func TestPassThrough(t *testing.T) {
	tests := []struct {
		description string
		looper      func() *loop.Looper
	}{
		{
			description: "disabled",
			looper: func() *loop.Looper {
				return loop.New(source.NewAudio(material(10), 44100))
			},
		},
		{
			description: "zero-length material",
			looper: func() *loop.Looper {
				l := loop.New(source.NewAudio(signal.EmptyFloat64(1, 0), 44100))
				l.SetEnabled(true)
				return l
			},
		},
		{
			description: "after last cycle",
			looper: func() *loop.Looper {
				l := loop.New(source.NewAudio(material(10), 44100))
				l.SetEnabled(true)
				l.SetLoopBehavior(loop.UntilEndOfCycle(0))
				return l
			},
		},
	}
	for _, test := range tests {
		l := test.looper()
		dest := signal.EmptyFloat64(1, 4)
		res := l.SupplyAudio(&supply.AudioRequest{StartFrame: 12}, dest)
		assert.Equal(t, supply.Exceeded(), res, test.description)
	}
}

func TestUntilEndOfCycle(t *testing.T) {
	l := loop.New(source.NewAudio(material(10), 44100))
	l.SetEnabled(true)
	assert.NoError(t, l.KeepPlayingUntilEndOfCurrentCycle(15))
	count, ok := l.FrameCount()
	assert.True(t, ok)
	assert.Equal(t, 20, count)

	// crossing end of cycle 0 wraps
	dest := signal.EmptyFloat64(1, 4)
	res := l.SupplyAudio(&supply.AudioRequest{StartFrame: 8}, dest)
	assert.Equal(t, supply.Continue(4, 4, 12), res)

	// last cycle stops at material end
	res = l.SupplyAudio(&supply.AudioRequest{StartFrame: 18}, dest)
	assert.Equal(t, supply.ReachedEnd(2, 2), res)

	assert.Equal(t, 3, l.TranslatePlayPos(13))
	assert.Equal(t, 25, l.TranslatePlayPos(25))

	empty := loop.New(source.NewAudio(signal.EmptyFloat64(1, 0), 44100))
	assert.Equal(t, loop.ErrZeroLength, empty.KeepPlayingUntilEndOfCurrentCycle(0))
}

func TestFrameCount(t *testing.T) {
	l := loop.New(source.NewAudio(material(10), 44100))
	count, ok := l.FrameCount()
	assert.True(t, ok)
	assert.Equal(t, 10, count)
	l.SetEnabled(true)
	_, ok = l.FrameCount()
	assert.False(t, ok)
}

func TestCycleAt(t *testing.T) {
	assert.Equal(t, 0, loop.CycleAt(-5, 10))
	assert.Equal(t, 0, loop.CycleAt(9, 10))
	assert.Equal(t, 1, loop.CycleAt(10, 10))
	assert.Equal(t, 0, loop.CycleAt(10, 0))
}

func TestMidiWrap(t *testing.T) {
	s := source.NewMidi([]midi.Event{
		{Offset: 0, Msg: midi.NoteOn(0, 60, 100)},
		{Offset: 8, Msg: midi.NoteOff(0, 60)},
	}, 10, 1000)
	l := loop.New(s)
	l.SetEnabled(true)
	events := midi.NewEventList(64)

	res := l.SupplyMidi(&supply.MidiRequest{StartFrame: 6, DestFrameCount: 8}, events)
	assert.Equal(t, supply.Continue(8, 8, 14), res)
	assert.Equal(t, []midi.Event{
		{Offset: 2, Msg: midi.NoteOff(0, 60)},
		{Offset: 4, Msg: midi.NoteOn(0, 60, 100)},
	}, events.Events())
}

func TestMidiSilenceAtLoopEnd(t *testing.T) {
	s := source.NewMidi([]midi.Event{
		{Offset: 1, Msg: midi.NoteOn(0, 60, 100)},
	}, 10, 1000)
	l := loop.New(s)
	l.SetEnabled(true)
	l.SetLoopBehavior(loop.UntilEndOfCycle(0))
	l.SetMidiResetMsgRange(midi.ResetMessageRange{
		Right: midi.ResetMessages{OnNotesOff: true},
	})
	events := midi.NewEventList(64)
	res := l.SupplyMidi(&supply.MidiRequest{StartFrame: 0, DestFrameCount: 16}, events)
	assert.True(t, res.EndReached)
	assert.Equal(t, []midi.Event{
		{Offset: 1, Msg: midi.NoteOn(0, 60, 100)},
		{Offset: 2, Msg: midi.NoteOff(0, 60)},
	}, events.Events())
}
