package midi

// ResetMessages selects messages sent to silence the output.
type ResetMessages struct {
	// OnNotesOff releases notes reported as sounding. Only used when appending.
	OnNotesOff          bool
	AllNotesOff         bool
	AllSoundOff         bool
	ResetAllControllers bool
	DamperPedalOff      bool
}

// ResetMessageRange holds reset messages for material start (Left) and end (Right).
type ResetMessageRange struct {
	Left  ResetMessages
	Right ResetMessages
}

// DefaultResetMessages releases sounding notes and lifts the damper pedal.
var DefaultResetMessages = ResetMessages{
	OnNotesOff:     true,
	DamperPedalOff: true,
}

// AnyEnabled returns true if at least one message is sent.
func (r ResetMessages) AnyEnabled() bool {
	return r.OnNotesOff || r.AllNotesOff || r.AllSoundOff || r.ResetAllControllers || r.DamperPedalOff
}

// SilenceMode defines where silencing messages are placed.
type SilenceMode int

const (
	// Prepend places messages at offset 0 in front of other events, events
	// at offset 0 are moved to 1.
	Prepend SilenceMode = iota
	// Append places messages after the last event.
	Append
)

// NoteReleaser emits note off for notes it currently reports as sounding.
type NoteReleaser interface {
	ReleaseNotes(offset int, events *EventList)
}

// Silence adds reset messages to the list. Notes are released with
// releaser in Append mode only, because notes sounding at block start are
// not known once the list is filled.
func Silence(events *EventList, msgs ResetMessages, mode SilenceMode, releaser NoteReleaser) {
	if !msgs.AnyEnabled() {
		return
	}
	var offset int
	switch mode {
	case Prepend:
		events.Modify(0, func(e *Event) {
			if e.Offset == 0 {
				e.Offset = 1
			}
		})
	case Append:
		if max, ok := events.MaxOffset(); ok {
			offset = max + 1
		}
	}
	if msgs.OnNotesOff && mode == Append && releaser != nil {
		releaser.ReleaseNotes(offset, events)
	}
	add := events.Add
	if mode == Prepend {
		add = events.Insert
	}
	for ch := uint8(0); ch < NumChannels; ch++ {
		if msgs.AllNotesOff {
			add(offset, ControlChange(ch, ControllerAllNotesOff, 0))
		}
		if msgs.AllSoundOff {
			add(offset, ControlChange(ch, ControllerAllSoundOff, 0))
		}
		if msgs.ResetAllControllers {
			add(offset, ControlChange(ch, ControllerResetAllControllers, 0))
		}
		if msgs.DamperPedalOff {
			add(offset, ControlChange(ch, ControllerDamperPedal, 0))
		}
	}
}
