package supply

import (
	"math"

	"github.com/dudk/clipchain/signal"
)

// AudioTransfer writes material starting at non-negative frame into dest.
type AudioTransfer func(start int, dest signal.Float64) Response

// SupplyAudioMaterial lets leaf suppliers ignore negative start frames.
// Pre-roll portion of dest is cleared and counted as written, transfer is
// called with the remaining view starting at frame zero. View is scratch
// space for channel headers.
func SupplyAudioMaterial(req *AudioRequest, dest, view signal.Float64, nativeRate float64, transfer AudioTransfer) Response {
	size := dest.Size()
	ratio := nativeRate / DestRate(req.DestSampleRate, nativeRate)
	idealConsumed := int(math.Round(float64(size) * ratio))
	idealEnd := req.StartFrame + idealConsumed
	if idealEnd <= 0 {
		dest.Clear()
		return Continue(size, idealConsumed, idealEnd)
	}
	if req.StartFrame >= 0 {
		return transfer(req.StartFrame, dest)
	}
	skippedSource := -req.StartFrame
	skippedDest := int(math.Round(float64(size) * float64(skippedSource) / float64(idealConsumed)))
	if skippedDest > size {
		skippedDest = size
	}
	dest.Window(view, 0, skippedDest).Clear()
	res := transfer(0, dest.Window(view, skippedDest, size))
	res.NumFramesWritten += skippedDest
	res.NumFramesConsumed += skippedSource
	return res
}

// Transfer copies frames of in-memory material into dest. Material is
// resampled with cubic interpolation if destination rate differs from
// material rate.
func Transfer(material signal.Float64, materialRate float64, start int, dest signal.Float64, destRate float64) Response {
	total := material.Size()
	if start < 0 || start >= total {
		return Exceeded()
	}
	destRate = DestRate(destRate, materialRate)
	if destRate == materialRate {
		n := dest.Size()
		if remaining := total - start; remaining < n {
			n = remaining
		}
		for i := range dest {
			if i < len(material) {
				copy(dest[i][:n], material[i][start:start+n])
			} else {
				clear(dest[i][:n])
			}
		}
		return LimitedByFrameCount(n, n, start, total)
	}

	ratio := materialRate / destRate
	written := 0
	for ; written < dest.Size(); written++ {
		pos := float64(start) + float64(written)*ratio
		if pos > float64(total-1) {
			break
		}
		idx := int(pos)
		frac := pos - float64(idx)
		for i := range dest {
			if i >= len(material) {
				dest[i][written] = 0
				continue
			}
			ch := material[i]
			dest[i][written] = CubicInterpolate(
				ch[clamp(idx-1, total)],
				ch[idx],
				ch[clamp(idx+1, total)],
				ch[clamp(idx+2, total)],
				frac,
			)
		}
	}
	consumed := int(math.Round(float64(written) * ratio))
	if consumed > total-start {
		consumed = total - start
	}
	if written < dest.Size() {
		return ReachedEnd(written, consumed)
	}
	return LimitedByFrameCount(written, consumed, start, total)
}

// CubicInterpolate returns Catmull-Rom interpolation between y1 and y2
// at position x in [0, 1].
func CubicInterpolate(y0, y1, y2, y3, x float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return ((a0*x+a1)*x+a2)*x + y1
}

func clamp(idx, total int) int {
	if idx < 0 {
		return 0
	}
	if idx >= total {
		return total - 1
	}
	return idx
}

// MidiTransfer adds events of material window starting at non-negative
// frame. Window covers destFrameCount destination frames, events are
// placed at destination offsets shifted by offset.
type MidiTransfer func(start, destFrameCount, offset int) Response

// SupplyMidiMaterial lets leaf suppliers ignore negative start frames.
// Pre-roll is counted as covered, material events are shifted behind it.
func SupplyMidiMaterial(req *MidiRequest, nativeRate float64, transfer MidiTransfer) Response {
	size := req.DestFrameCount
	ratio := nativeRate / DestRate(req.DestSampleRate, nativeRate)
	idealConsumed := int(math.Round(float64(size) * ratio))
	idealEnd := req.StartFrame + idealConsumed
	if idealEnd <= 0 {
		return Continue(size, idealConsumed, idealEnd)
	}
	if req.StartFrame >= 0 {
		return transfer(req.StartFrame, size, 0)
	}
	skippedSource := -req.StartFrame
	skippedDest := int(math.Round(float64(size) * float64(skippedSource) / float64(idealConsumed)))
	if skippedDest > size {
		skippedDest = size
	}
	res := transfer(0, size-skippedDest, skippedDest)
	res.NumFramesWritten += skippedDest
	res.NumFramesConsumed += skippedSource
	return res
}
