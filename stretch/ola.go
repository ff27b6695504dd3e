package stretch

import (
	"math"

	"github.com/dudk/clipchain/signal"
)

// MaxTempo is the biggest tempo factor the built-in engine applies.
// Bigger factors are clamped.
const MaxTempo = 4

const (
	grainSize    = 1024
	synthesisHop = grainSize / 2
	maxHop       = synthesisHop * MaxTempo
)

// OLA is a windowed overlap-add time-stretch engine. Grains of input are
// taken every analysis hop and added to the output every synthesis hop,
// the ratio of hops is the tempo.
//
// All buffers are allocated by NewOLA. Configure only reslices them, so
// the engine can be reconfigured on the real-time thread.
type OLA struct {
	frameRate float64
	channels  int
	tempo     float64
	hop       int

	window []float64
	in     signal.Float64
	inLen  int
	acc    signal.Float64
	out    signal.Float64
	outLen int
	view   signal.Float64

	inAll  signal.Float64
	accAll signal.Float64
	outAll signal.Float64
}

// NewOLA returns engine prepared for material with up to channels
// channels. Extra channels requested by Configure are silent.
func NewOLA(channels int) *OLA {
	window := make([]float64, grainSize)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/grainSize)
	}
	e := &OLA{
		window: window,
		inAll:  signal.EmptyFloat64(channels, grainSize+maxHop+ChunkSize),
		accAll: signal.EmptyFloat64(channels, grainSize),
		outAll: signal.EmptyFloat64(channels, 4*grainSize),
		view:   make(signal.Float64, 0, channels),
	}
	e.Configure(0, channels, 1)
	return e
}

// Configure implements Engine.
func (e *OLA) Configure(frameRate float64, channels int, tempo float64) {
	channels = min(channels, len(e.inAll))
	tempo = min(tempo, MaxTempo)
	if frameRate == e.frameRate && channels == e.channels && tempo == e.tempo && e.in != nil {
		return
	}
	e.in, e.acc, e.out = e.inAll[:channels], e.accAll[:channels], e.outAll[:channels]
	e.hop = max(int(math.Round(synthesisHop*tempo)), 1)
	e.frameRate, e.channels, e.tempo = frameRate, channels, tempo
	e.Reset()
}

// Buffer implements Engine. Frames that don't fit are not returned.
func (e *OLA) Buffer(frames int) signal.Float64 {
	if free := e.in.Size() - e.inLen; frames > free {
		frames = free
	}
	return e.in.Window(e.view, e.inLen, e.inLen+frames)
}

// BufferDone implements Engine.
func (e *OLA) BufferDone(frames int) {
	e.inLen += frames
	e.process()
}

// process renders grains while enough input and output space is available.
func (e *OLA) process() {
	for e.inLen >= max(grainSize, e.hop) && e.outLen+synthesisHop <= e.out.Size() {
		for c := range e.in {
			in, acc, out := e.in[c], e.acc[c], e.out[c]
			for i := 0; i < grainSize; i++ {
				acc[i] += in[i] * e.window[i]
			}
			copy(out[e.outLen:], acc[:synthesisHop])
			copy(acc, acc[synthesisHop:])
			clear(acc[grainSize-synthesisHop:])
			copy(in, in[e.hop:e.inLen])
		}
		e.outLen += synthesisHop
		e.inLen -= e.hop
	}
}

// Samples implements Engine.
func (e *OLA) Samples(dest signal.Float64) int {
	n := min(dest.Size(), e.outLen)
	if n == 0 {
		return 0
	}
	for c := range dest {
		if c < len(e.out) {
			copy(dest[c][:n], e.out[c][:n])
			copy(e.out[c], e.out[c][n:e.outLen])
		} else {
			clear(dest[c][:n])
		}
	}
	e.outLen -= n
	return n
}

// Reset implements Engine.
func (e *OLA) Reset() {
	e.inLen, e.outLen = 0, 0
	for c := range e.acc {
		clear(e.acc[c])
	}
}
