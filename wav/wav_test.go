package wav_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/wav"
)

func TestSaveLoad(t *testing.T) {
	tests := []struct {
		bitDepth    signal.BitDepth
		numChannels int
		frames      int
	}{
		{bitDepth: signal.BitDepth16, numChannels: 1, frames: 100},
		{bitDepth: signal.BitDepth16, numChannels: 2, frames: 5000},
		{bitDepth: signal.BitDepth24, numChannels: 2, frames: 300},
		{bitDepth: signal.BitDepth32, numChannels: 3, frames: 10},
	}
	for _, test := range tests {
		in := signal.EmptyFloat64(test.numChannels, test.frames)
		for i := range in {
			for j := range in[i] {
				in[i][j] = float64(j%100)/100 - 0.5
			}
		}
		path := filepath.Join(t.TempDir(), "out.wav")
		assert.NoError(t, wav.Save(path, in, 44100, test.bitDepth))

		src, info, err := wav.Load(path)
		assert.NoError(t, err)
		assert.Equal(t, wav.Info{
			SampleRate:  44100,
			NumChannels: test.numChannels,
			BitDepth:    test.bitDepth,
			Frames:      test.frames,
		}, info)
		rate, _ := src.FrameRate()
		assert.Equal(t, 44100.0, rate)
		out := src.Material()
		assert.Equal(t, test.numChannels, out.NumChannels())
		assert.Equal(t, test.frames, out.Size())
		for i := range in {
			assert.InDelta(t, in[i][test.frames-1], out[i][test.frames-1], 1e-3)
			assert.InDelta(t, in[i][7], out[i][7], 1e-3)
		}
	}
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, wav.ErrUnsupportedBitDepth, wav.Save(filepath.Join(dir, "a.wav"), signal.EmptyFloat64(1, 1), 44100, signal.BitDepth8))

	invalid := filepath.Join(dir, "invalid.wav")
	assert.NoError(t, os.WriteFile(invalid, []byte("not a wav file at all"), 0o644))
	_, _, err := wav.Load(invalid)
	assert.ErrorIs(t, err, wav.ErrInvalidFile)

	_, _, err = wav.Load(filepath.Join(dir, "missing.wav"))
	assert.Error(t, err)
}
