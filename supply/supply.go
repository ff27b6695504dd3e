// Package supply defines the contract shared by every stage of a
// material supply chain.
//
// A supplier produces audio frames or MIDI events on demand. Stages wrap
// exactly one inner supplier and implement the same contract, so a chain is
// built by plain composition. Supply calls run on the real-time thread:
// implementations must not allocate, block or take locks there.
package supply

import (
	"errors"

	"github.com/dudk/clipchain/midi"
	"github.com/dudk/clipchain/signal"
)

var (
	// ErrNoFrameRate is returned when operation requires a native frame rate.
	ErrNoFrameRate = errors.New("supplier has no native frame rate")
	// ErrNoFrameCount is returned when operation requires an exact frame count.
	ErrNoFrameCount = errors.New("supplier has no exact frame count")
)

type (
	// AudioSupplier fills destination buffers with audio material.
	AudioSupplier interface {
		// SupplyAudio writes material starting at request start frame into
		// dest. Exactly ChannelCount channels of dest are written.
		SupplyAudio(req *AudioRequest, dest signal.Float64) Response
		ChannelCount() int
	}

	// MidiSupplier fills event lists with MIDI material.
	MidiSupplier interface {
		SupplyMidi(req *MidiRequest, events *midi.EventList) Response
		midi.NoteReleaser
	}

	// Supplier is a complete chain stage.
	Supplier interface {
		AudioSupplier
		MidiSupplier
		// FrameRate returns native frame rate. False is returned by
		// rate-agnostic suppliers.
		FrameRate() (float64, bool)
		// FrameCount returns exact number of frames. False is returned if
		// the total is not known.
		FrameCount() (int, bool)
		// PreBuffer primes lower stages ahead of the real-time deadline.
		PreBuffer(PreBufferRequest)
		// TranslatePlayPos converts a position of this stage into the
		// position of the innermost material.
		TranslatePlayPos(pos int) int
	}
)

// RequestInfo carries diagnostic data about the origin of a request.
type RequestInfo struct {
	BlockFrameOffset int
	Requester        string
	Note             string
	IsRealtime       bool
}

// GeneralInfo is ambient transport data passed unmodified down the chain.
type GeneralInfo struct {
	// TimelineCursorPos in seconds.
	TimelineCursorPos float64
	// TimelineTempo in beats per minute.
	TimelineTempo   float64
	ClipTempoFactor float64
	BlockLength     int
	OutputFrameRate float64
}

// AudioRequest asks for audio material.
type AudioRequest struct {
	// StartFrame is a position in the native frame space of the innermost
	// material. Negative values address pre-roll.
	StartFrame int
	// DestSampleRate is the rate of destination buffer. Zero means native rate.
	DestSampleRate float64
	Info           RequestInfo
	Parent         *AudioRequest
	General        *GeneralInfo
}

// Child returns a request triggered by r.
func (r *AudioRequest) Child(startFrame int, requester string) AudioRequest {
	return AudioRequest{
		StartFrame:     startFrame,
		DestSampleRate: r.DestSampleRate,
		Info: RequestInfo{
			BlockFrameOffset: r.Info.BlockFrameOffset,
			Requester:        requester,
			IsRealtime:       r.Info.IsRealtime,
		},
		Parent:  r,
		General: r.General,
	}
}

// MidiRequest asks for MIDI events.
type MidiRequest struct {
	StartFrame     int
	DestFrameCount int
	DestSampleRate float64
	Info           RequestInfo
	Parent         *MidiRequest
	General        *GeneralInfo
}

// Child returns a request triggered by r.
func (r *MidiRequest) Child(startFrame int, requester string) MidiRequest {
	return MidiRequest{
		StartFrame:     startFrame,
		DestFrameCount: r.DestFrameCount,
		DestSampleRate: r.DestSampleRate,
		Info: RequestInfo{
			BlockFrameOffset: r.Info.BlockFrameOffset,
			Requester:        requester,
			IsRealtime:       r.Info.IsRealtime,
		},
		Parent:  r,
		General: r.General,
	}
}

// PreBufferRequest asks lower stages to prepare material at StartFrame.
type PreBufferRequest struct {
	StartFrame int
	Info       RequestInfo
}

// Response is returned by every supply call.
type Response struct {
	// NumFramesWritten is less than requested only if EndReached is set.
	NumFramesWritten int
	// NumFramesConsumed counts native frames of the immediate inner supplier.
	NumFramesConsumed int
	// NextInnerFrame is where the next call should continue. Only valid
	// when EndReached is false.
	NextInnerFrame int
	EndReached     bool
}

// Continue returns a response for material that goes on.
func Continue(written, consumed, next int) Response {
	return Response{
		NumFramesWritten:  written,
		NumFramesConsumed: consumed,
		NextInnerFrame:    next,
	}
}

// ReachedEnd returns a response for material that ended during the call.
func ReachedEnd(written, consumed int) Response {
	return Response{
		NumFramesWritten:  written,
		NumFramesConsumed: consumed,
		EndReached:        true,
	}
}

// Exceeded returns a response for a request after the end of material.
func Exceeded() Response {
	return ReachedEnd(0, 0)
}

// LimitedByFrameCount returns continue or end response depending on
// whether start+consumed reached total.
func LimitedByFrameCount(written, consumed, start, total int) Response {
	next := start + consumed
	if next >= total {
		return ReachedEnd(written, consumed)
	}
	return Continue(written, consumed, next)
}

// Next returns the continuation frame. False means end of material.
func (r Response) Next() (int, bool) {
	if r.EndReached {
		return 0, false
	}
	return r.NextInnerFrame, true
}

// WithEndReached returns a copy of response that signals end of material.
func (r Response) WithEndReached() Response {
	r.EndReached = true
	r.NextInnerFrame = 0
	return r
}

// DestRate returns destination rate, native rate is used when request
// doesn't specify one.
func DestRate(destRate, nativeRate float64) float64 {
	if destRate <= 0 {
		return nativeRate
	}
	return destRate
}
