// Package loop provides a supplier that repeats inner material.
package loop

import (
	"errors"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
	"github.com/dudk/clipchain/supply"
)

// ErrZeroLength is returned when inner material has no frames to loop.
var ErrZeroLength = errors.New("cannot loop zero-length material")

// Behavior defines how many cycles are played.
type Behavior struct {
	limited   bool
	lastCycle int
}

// Infinitely repeats material until looper is disabled.
func Infinitely() Behavior {
	return Behavior{}
}

// UntilEndOfCycle plays cycles up to and including cycle n.
func UntilEndOfCycle(n int) Behavior {
	return Behavior{limited: true, lastCycle: n}
}

// LastCycle returns index of the last cycle to play. False is returned
// for infinite looping.
func (b Behavior) LastCycle() (int, bool) {
	return b.lastCycle, b.limited
}

// CycleAt returns index of the cycle that contains frame.
func CycleAt(frame, frameCount int) int {
	if frame < 0 || frameCount <= 0 {
		return 0
	}
	return frame / frameCount
}

// Looper wraps linear positions into repeating cycles of inner material.
// Positions passed to the looper stay linear, so NextInnerFrame of its
// responses continues across the wrap.
type Looper struct {
	supply.Supplier
	enabled    bool
	behavior   Behavior
	resetRange midi.ResetMessageRange

	view      signal.Float64
	audioReq  supply.AudioRequest
	midiReq   supply.MidiRequest
	wrapAudio supply.AudioRequest
	wrapMidi  supply.MidiRequest
}

// New returns disabled looper that repeats infinitely once enabled.
func New(inner supply.Supplier) *Looper {
	return &Looper{
		Supplier: inner,
		behavior: Infinitely(),
		view:     make(signal.Float64, 0, inner.ChannelCount()),
	}
}

// SetEnabled toggles looping.
func (l *Looper) SetEnabled(enabled bool) {
	l.enabled = enabled
}

// Enabled returns true if looping is enabled.
func (l *Looper) Enabled() bool {
	return l.enabled
}

// SetLoopBehavior sets number of cycles to play.
func (l *Looper) SetLoopBehavior(b Behavior) {
	l.behavior = b
}

// SetMidiResetMsgRange sets messages sent at loop start and end.
func (l *Looper) SetMidiResetMsgRange(r midi.ResetMessageRange) {
	l.resetRange = r
}

// KeepPlayingUntilEndOfCurrentCycle stops looping after cycle that contains pos.
func (l *Looper) KeepPlayingUntilEndOfCurrentCycle(pos int) error {
	count, ok := l.Supplier.FrameCount()
	if !ok {
		return supply.ErrNoFrameCount
	}
	if count == 0 {
		return ErrZeroLength
	}
	l.behavior = UntilEndOfCycle(CycleAt(pos, count))
	return nil
}

// relevance returns frame count and cycle at start if looping applies.
func (l *Looper) relevance(start int) (count, cycle int, ok bool) {
	if !l.enabled {
		return 0, 0, false
	}
	if count, ok = l.Supplier.FrameCount(); !ok || count <= 0 {
		return 0, 0, false
	}
	cycle = CycleAt(start, count)
	if last, limited := l.behavior.LastCycle(); limited && cycle > last {
		return 0, 0, false
	}
	return count, cycle, true
}

func (l *Looper) isLastCycle(cycle int) bool {
	last, limited := l.behavior.LastCycle()
	return limited && cycle == last
}

func moduloStart(start, count int) int {
	if start < 0 {
		return start
	}
	return start % count
}

// SupplyAudio implements supply.AudioSupplier. A window crossing the end
// of material is stitched from consecutive cycles.
func (l *Looper) SupplyAudio(req *supply.AudioRequest, dest signal.Float64) supply.Response {
	count, cycle, ok := l.relevance(req.StartFrame)
	if !ok {
		return l.Supplier.SupplyAudio(req, dest)
	}
	l.audioReq = req.Child(moduloStart(req.StartFrame, count), "looper-audio-modulo-request")
	res := l.Supplier.SupplyAudio(&l.audioReq, dest)
	if !res.EndReached {
		return supply.Continue(res.NumFramesWritten, res.NumFramesConsumed, req.StartFrame+res.NumFramesConsumed)
	}
	if l.isLastCycle(cycle) {
		return res
	}
	size := dest.Size()
	written, consumed := res.NumFramesWritten, res.NumFramesConsumed
	for written < size {
		l.wrapAudio = req.Child(0, "looper-audio-start-request")
		l.wrapAudio.Info.BlockFrameOffset += written
		next := l.Supplier.SupplyAudio(&l.wrapAudio, dest.Window(l.view, written, size))
		if next.NumFramesWritten == 0 {
			break
		}
		written += next.NumFramesWritten
		consumed += next.NumFramesConsumed
	}
	return supply.Continue(written, consumed, req.StartFrame+consumed)
}

// SupplyMidi implements supply.MidiSupplier. Events of the next cycle are
// requested from a negative position, so their offsets follow the events
// of the current cycle.
func (l *Looper) SupplyMidi(req *supply.MidiRequest, events *midi.EventList) supply.Response {
	count, cycle, ok := l.relevance(req.StartFrame)
	if !ok {
		return l.Supplier.SupplyMidi(req, events)
	}
	l.midiReq = req.Child(moduloStart(req.StartFrame, count), "looper-midi-modulo-request")
	res := l.Supplier.SupplyMidi(&l.midiReq, events)
	if req.StartFrame <= 0 && req.StartFrame+res.NumFramesConsumed > 0 {
		midi.Silence(events, l.resetRange.Left, midi.Prepend, l.Supplier)
	}
	if !res.EndReached {
		return supply.Continue(res.NumFramesWritten, res.NumFramesConsumed, req.StartFrame+res.NumFramesConsumed)
	}
	if l.isLastCycle(cycle) {
		midi.Silence(events, l.resetRange.Right, midi.Append, l.Supplier)
		return res
	}
	if res.NumFramesWritten >= req.DestFrameCount {
		return supply.Continue(res.NumFramesWritten, res.NumFramesConsumed, req.StartFrame+res.NumFramesConsumed)
	}
	l.wrapMidi = req.Child(-res.NumFramesConsumed, "looper-midi-start-request")
	l.wrapMidi.Info.BlockFrameOffset += res.NumFramesWritten
	next := l.Supplier.SupplyMidi(&l.wrapMidi, events)
	// consumed frames of the first request are part of the negative start
	return supply.Continue(req.DestFrameCount, next.NumFramesConsumed, req.StartFrame+next.NumFramesConsumed)
}

// FrameCount returns false while looping infinitely, otherwise the length
// of all cycles to play.
func (l *Looper) FrameCount() (int, bool) {
	count, ok := l.Supplier.FrameCount()
	if !l.enabled || !ok {
		return count, ok
	}
	last, limited := l.behavior.LastCycle()
	if !limited {
		return 0, false
	}
	return count * (last + 1), true
}

// TranslatePlayPos reduces pos into the current cycle.
func (l *Looper) TranslatePlayPos(pos int) int {
	if count, _, ok := l.relevance(pos); ok {
		pos = moduloStart(pos, count)
	}
	return l.Supplier.TranslatePlayPos(pos)
}
