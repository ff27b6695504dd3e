// Package midi provides real-time friendly MIDI event storage and the
// silencing helpers used by suppliers when material starts or stops.
//
// Messages are stored as fixed size short messages, so event lists can be
// preallocated once and filled from the audio thread. Parsing is delegated
// to gitlab.com/gomidi/midi/v2.
package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Controller numbers used for reset messages.
const (
	ControllerDamperPedal         = 64
	ControllerAllSoundOff         = 120
	ControllerResetAllControllers = 121
	ControllerAllNotesOff         = 123
)

// NumChannels is the number of MIDI channels.
const NumChannels = 16

const (
	statusNoteOff       = 0x80
	statusNoteOn        = 0x90
	statusControlChange = 0xB0
)

// ShortMessage is a MIDI channel message of at most three bytes.
type ShortMessage [3]byte

// NoteOn returns note on message.
func NoteOn(channel, key, velocity uint8) ShortMessage {
	return ShortMessage{statusNoteOn | channel&0x0F, key & 0x7F, velocity & 0x7F}
}

// NoteOff returns note off message.
func NoteOff(channel, key uint8) ShortMessage {
	return ShortMessage{statusNoteOff | channel&0x0F, key & 0x7F, 0}
}

// ControlChange returns control change message.
func ControlChange(channel, controller, value uint8) ShortMessage {
	return ShortMessage{statusControlChange | channel&0x0F, controller & 0x7F, value & 0x7F}
}

// FromMessage converts a gomidi message. Only channel messages fit into
// a short message, other messages return false.
func FromMessage(msg gomidi.Message) (ShortMessage, bool) {
	var m ShortMessage
	if len(msg) == 0 || len(msg) > len(m) || msg[0] < 0x80 || msg[0] >= 0xF0 {
		return m, false
	}
	copy(m[:], msg)
	return m, true
}

// Message returns the gomidi view of the message. It shares memory with m.
func (m *ShortMessage) Message() gomidi.Message {
	switch m[0] & 0xF0 {
	case 0xC0, 0xD0:
		return gomidi.Message(m[:2])
	default:
		return gomidi.Message(m[:])
	}
}

// Channel returns the message channel.
func (m ShortMessage) Channel() uint8 {
	return m[0] & 0x0F
}

// NoteStart returns key and velocity of a note on message with non-zero velocity.
func (m *ShortMessage) NoteStart() (key, velocity uint8, ok bool) {
	var ch uint8
	ok = m.Message().GetNoteStart(&ch, &key, &velocity)
	return
}

// NoteEnd returns key of a note off message or a note on with zero velocity.
func (m *ShortMessage) NoteEnd() (key uint8, ok bool) {
	var ch uint8
	ok = m.Message().GetNoteEnd(&ch, &key)
	return
}

// SetVelocity replaces the velocity of note on message.
func (m *ShortMessage) SetVelocity(velocity uint8) {
	m[2] = velocity & 0x7F
}

func (m ShortMessage) String() string {
	return m.Message().String()
}

// Event is a message placed at a frame offset within a block.
type Event struct {
	Offset int
	Msg    ShortMessage
}

func (e Event) String() string {
	return fmt.Sprintf("%d: %v", e.Offset, e.Msg)
}
