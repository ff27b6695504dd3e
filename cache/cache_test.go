package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/dudk/clipchain/cache"
	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/mock"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/source"
	"github.com/dudk/clipchain/supply"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ramp(channels, frames int) signal.Float64 {
	s := signal.EmptyFloat64(channels, frames)
	for i := range s {
		for j := range s[i] {
			s[i][j] = float64(i*1000 + j)
		}
	}
	return s
}

func TestCache(t *testing.T) {
	tests := []struct {
		start    int
		size     int
		destRate float64
	}{
		{start: 0, size: 64},
		{start: -10, size: 32},
		{start: 90, size: 32},
		{start: 20, size: 40, destRate: 88200},
		{start: 150, size: 8},
	}
	for _, test := range tests {
		cached := cache.New(source.NewAudio(ramp(2, 100), 44100))
		cached.Enable()
		assert.True(t, cached.IsCached())
		plain := source.NewAudio(ramp(2, 100), 44100)

		expected := signal.EmptyFloat64(2, test.size)
		result := signal.EmptyFloat64(2, test.size)
		expectedRes := plain.SupplyAudio(&supply.AudioRequest{StartFrame: test.start, DestSampleRate: test.destRate}, expected)
		res := cached.SupplyAudio(&supply.AudioRequest{StartFrame: test.start, DestSampleRate: test.destRate}, result)
		assert.Equal(t, expectedRes, res)
		assert.Equal(t, expected, result)
	}
}

func TestCacheMetadata(t *testing.T) {
	c := cache.New(source.NewAudio(ramp(3, 50), 48000))
	c.Enable()
	assert.Equal(t, 3, c.ChannelCount())
	rate, ok := c.FrameRate()
	assert.True(t, ok)
	assert.Equal(t, 48000.0, rate)
	count, ok := c.FrameCount()
	assert.True(t, ok)
	assert.Equal(t, 50, count)
}

func TestCacheDisable(t *testing.T) {
	inner := &mock.Supplier{Limit: 20, NumChannels: 1, SampleRate: 44100}
	c := cache.New(inner)
	c.Enable()
	assert.True(t, c.IsCached())
	calls, _ := inner.Count()
	assert.Equal(t, 1, calls)

	dest := signal.EmptyFloat64(1, 10)
	c.SupplyAudio(&supply.AudioRequest{StartFrame: 5}, dest)
	c.PreBuffer(supply.PreBufferRequest{StartFrame: 5})
	calls, _ = inner.Count()
	assert.Equal(t, 1, calls)
	assert.Empty(t, inner.PreBuffered)
	assert.Equal(t, 5.0, dest[0][0])

	c.Disable()
	assert.False(t, c.IsCached())
	c.SupplyAudio(&supply.AudioRequest{StartFrame: 5}, dest)
	c.PreBuffer(supply.PreBufferRequest{StartFrame: 5})
	calls, _ = inner.Count()
	assert.Equal(t, 2, calls)
	assert.Len(t, inner.PreBuffered, 1)
}

func TestCacheDeclines(t *testing.T) {
	tests := []struct {
		description string
		inner       supply.Supplier
	}{
		{
			description: "midi source",
			inner:       source.NewMidi(nil, 100, 44100),
		},
		{
			description: "unbounded",
			inner:       &mock.Supplier{Unbounded: true, NumChannels: 1, SampleRate: 44100},
		},
		{
			description: "empty",
			inner:       &mock.Supplier{NumChannels: 1, SampleRate: 44100},
		},
	}
	for _, test := range tests {
		c := cache.New(test.inner)
		c.Enable()
		assert.False(t, c.IsCached(), test.description)
	}
}

func TestCacheMidiPassThrough(t *testing.T) {
	inner := &mock.Supplier{
		Limit:       20,
		NumChannels: 1,
		SampleRate:  44100,
		Events:      []midi.Event{{Offset: 2, Msg: midi.NoteOn(1, 60, 100)}},
	}
	c := cache.New(inner)
	c.Enable()
	events := midi.NewEventList(8)
	res := c.SupplyMidi(&supply.MidiRequest{DestFrameCount: 4}, events)
	assert.Equal(t, supply.Continue(4, 4, 4), res)
	assert.Equal(t, 1, events.Len())
}

func TestBuilder(t *testing.T) {
	b := cache.NewBuilder(nil)
	material := ramp(2, 100)
	c := cache.New(source.NewAudio(material, 44100))
	done, err := b.Build(c, source.NewAudio(material, 44100))
	assert.NoError(t, err)
	<-done
	assert.True(t, c.IsCached())

	b.Close()
	b.Close()
	_, err = b.Build(c, source.NewAudio(material, 44100))
	assert.Equal(t, cache.ErrBuilderClosed, err)
}

// gate blocks the first supply call until released.
type gate struct {
	*source.Audio
	started chan struct{}
	release chan struct{}
}

func (g *gate) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	select {
	case g.started <- struct{}{}:
		<-g.release
	default:
	}
	return g.Audio.SupplyAudio(req, dest)
}

func TestBuilderBusy(t *testing.T) {
	b := cache.NewBuilder(nil)
	material := ramp(1, 100)
	c := cache.New(source.NewAudio(material, 44100))
	g := &gate{
		Audio:   source.NewAudio(material, 44100),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	first, err := b.Build(c, g)
	assert.NoError(t, err)
	<-g.started

	for i := 0; i < cache.QueueSize; i++ {
		_, err = b.Build(c, source.NewAudio(material, 44100))
		assert.NoError(t, err)
	}
	_, err = b.Build(c, source.NewAudio(material, 44100))
	assert.Equal(t, cache.ErrBuilderBusy, err)

	closed := make(chan struct{})
	go func() {
		b.Close()
		close(closed)
	}()
	close(g.release)
	<-first
	<-closed
	assert.True(t, c.IsCached())
}
