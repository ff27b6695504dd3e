package midi

// NoteTracker keeps track of sounding notes, so they can be released
// when playback stops abruptly.
type NoteTracker struct {
	notes [NumChannels][2]uint64
	count int
}

// Process updates the tracker with a message.
func (t *NoteTracker) Process(msg ShortMessage) {
	if key, _, ok := msg.NoteStart(); ok {
		t.set(msg.Channel(), key, true)
		return
	}
	if key, ok := msg.NoteEnd(); ok {
		t.set(msg.Channel(), key, false)
	}
}

func (t *NoteTracker) set(channel, key uint8, on bool) {
	word, bit := key/64, uint64(1)<<(key%64)
	sounding := t.notes[channel][word]&bit != 0
	switch {
	case on && !sounding:
		t.notes[channel][word] |= bit
		t.count++
	case !on && sounding:
		t.notes[channel][word] &^= bit
		t.count--
	}
}

// IsSounding returns true if note was started and not released yet.
func (t *NoteTracker) IsSounding(channel, key uint8) bool {
	return t.notes[channel&0x0F][key/64&1]&(uint64(1)<<(key%64)) != 0
}

// Count returns number of sounding notes.
func (t *NoteTracker) Count() int {
	return t.count
}

// ReleaseNotes adds note off for every sounding note and forgets them.
func (t *NoteTracker) ReleaseNotes(offset int, events *EventList) {
	if t.count == 0 {
		return
	}
	for ch := range t.notes {
		for word := range t.notes[ch] {
			bits := t.notes[ch][word]
			for key := 0; bits != 0; key, bits = key+1, bits>>1 {
				if bits&1 != 0 {
					events.Add(offset, NoteOff(uint8(ch), uint8(word*64+key)))
				}
			}
		}
	}
	t.Reset()
}

// Reset forgets all notes without releasing them.
func (t *NoteTracker) Reset() {
	t.notes = [NumChannels][2]uint64{}
	t.count = 0
}
