package supply

import "github.com/dudk/clipchain/signal"

// FadeLength is the length of fades in frames, 10 ms at 48 kHz.
const FadeLength = 480

// FadeInFactor returns gain at frame relative to fade in start.
func FadeInFactor(frame int) float64 {
	switch {
	case frame <= 0:
		return 0
	case frame >= FadeLength:
		return 1
	}
	return float64(frame) / FadeLength
}

// FadeOutFactor returns gain at frame relative to fade out start.
// Gain reaches zero at FadeLength.
func FadeOutFactor(frame int) float64 {
	switch {
	case frame < 0:
		return 1
	case frame >= FadeLength:
		return 0
	}
	return float64(FadeLength-frame) / FadeLength
}

// FrameRatio returns number of consumed frames per written frame.
func FrameRatio(res Response) float64 {
	if res.NumFramesWritten == 0 || res.NumFramesConsumed == 0 {
		return 1
	}
	return float64(res.NumFramesConsumed) / float64(res.NumFramesWritten)
}

// ApplyFadeIn applies fade in starting at zero. BlockStart is position of
// the first block frame relative to the fade start, ratio is the distance
// between positions of consecutive block frames. Frames left of the fade
// are muted.
func ApplyFadeIn(block signal.Float64, blockStart int, ratio float64) {
	if blockStart >= FadeLength {
		return
	}
	if blockEnd(blockStart, block.Size(), ratio) <= 0 {
		block.Clear()
		return
	}
	for i := range block {
		for j := range block[i] {
			block[i][j] *= FadeInFactor(blockStart + int(float64(j)*ratio))
		}
	}
}

// ApplyFadeOut applies fade out starting at zero. Frames right of the fade
// are muted.
func ApplyFadeOut(block signal.Float64, blockStart int, ratio float64) {
	if blockStart >= FadeLength {
		block.Clear()
		return
	}
	if blockEnd(blockStart, block.Size(), ratio) <= 0 {
		return
	}
	for i := range block {
		for j := range block[i] {
			block[i][j] *= FadeOutFactor(blockStart + int(float64(j)*ratio))
		}
	}
}

// ApplyFadeOutEndingAt applies fade out to the last FadeLength frames of
// material with frameCount frames.
func ApplyFadeOutEndingAt(block signal.Float64, blockStart, frameCount int, ratio float64) {
	ApplyFadeOut(block, blockStart-frameCount+FadeLength, ratio)
}

func blockEnd(blockStart, size int, ratio float64) int {
	return blockStart + int(float64(size)*ratio+0.5)
}
