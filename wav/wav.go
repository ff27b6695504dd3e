// Package wav loads wav files into in-memory sources and renders chain
// output back to wav files.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/source"
)

// bufferSize is number of frames decoded at once.
const bufferSize = 4096

var (
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")
)

// Info describes decoded file.
type Info struct {
	SampleRate  int
	NumChannels int
	BitDepth    signal.BitDepth
	Frames      int
}

func supported(bitDepth signal.BitDepth) bool {
	switch bitDepth {
	case signal.BitDepth16, signal.BitDepth24, signal.BitDepth32:
		return true
	}
	return false
}

// Load decodes file at path into an audio source.
func Load(path string) (*source.Audio, Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Info{}, err
	}
	defer f.Close()
	s, info, err := Decode(f)
	if err != nil {
		return nil, Info{}, fmt.Errorf("load %v: %w", path, err)
	}
	return source.NewAudio(s, float64(info.SampleRate)), info, nil
}

// Decode reads entire wav stream.
func Decode(r io.ReadSeeker) (signal.Float64, Info, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, Info{}, ErrInvalidFile
	}
	bitDepth := signal.BitDepth(decoder.BitDepth)
	if !supported(bitDepth) {
		return nil, Info{}, ErrUnsupportedBitDepth
	}
	numChannels := decoder.Format().NumChannels
	info := Info{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: numChannels,
		BitDepth:    bitDepth,
	}
	ib := &audio.IntBuffer{
		Format:         decoder.Format(),
		Data:           make([]int, bufferSize*numChannels),
		SourceBitDepth: int(decoder.BitDepth),
	}
	result := signal.EmptyFloat64(numChannels, 0)
	for {
		read, err := decoder.PCMBuffer(ib)
		if err != nil {
			return nil, Info{}, err
		}
		if read == 0 {
			break
		}
		b := signal.InterInt{Data: ib.Data[:read], NumChannels: numChannels, BitDepth: bitDepth}.AsFloat64()
		result = result.Append(b)
	}
	info.Frames = result.Size()
	return result, info, nil
}

// Save encodes s into file at path.
func Save(path string, s signal.Float64, sampleRate int, bitDepth signal.BitDepth) error {
	if !supported(bitDepth) {
		return ErrUnsupportedBitDepth
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, s, sampleRate, bitDepth); err != nil {
		f.Close()
		return fmt.Errorf("save %v: %w", path, err)
	}
	return f.Close()
}

// Encode writes s as PCM wav stream.
func Encode(w io.WriteSeeker, s signal.Float64, sampleRate int, bitDepth signal.BitDepth) error {
	if !supported(bitDepth) {
		return ErrUnsupportedBitDepth
	}
	e := wav.NewEncoder(w, sampleRate, int(bitDepth), s.NumChannels(), 1)
	ib := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: s.NumChannels(),
			SampleRate:  sampleRate,
		},
		SourceBitDepth: int(bitDepth),
		Data:           s.AsInterInt(bitDepth),
	}
	if err := e.Write(ib); err != nil {
		return err
	}
	return e.Close()
}
