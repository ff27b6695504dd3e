package midi

// EventList is a bounded list of events. Its capacity is allocated once,
// adding to a full list drops the event.
type EventList struct {
	events []Event
}

// NewEventList allocates a list with provided capacity.
func NewEventList(capacity int) *EventList {
	return &EventList{
		events: make([]Event, 0, capacity),
	}
}

// Add appends an event. False is returned if list is full.
func (l *EventList) Add(offset int, msg ShortMessage) bool {
	if len(l.events) == cap(l.events) {
		return false
	}
	l.events = append(l.events, Event{Offset: offset, Msg: msg})
	return true
}

// Insert adds an event after the last event with offset not bigger than
// offset, so a list sorted by offset stays sorted. False is returned if
// list is full.
func (l *EventList) Insert(offset int, msg ShortMessage) bool {
	if len(l.events) == cap(l.events) {
		return false
	}
	i := len(l.events)
	for i > 0 && l.events[i-1].Offset > offset {
		i--
	}
	l.events = append(l.events, Event{})
	copy(l.events[i+1:], l.events[i:])
	l.events[i] = Event{Offset: offset, Msg: msg}
	return true
}

// Len returns number of events.
func (l *EventList) Len() int {
	return len(l.events)
}

// Events returns stored events. The slice is only valid until the next
// modification of the list.
func (l *EventList) Events() []Event {
	return l.events
}

// Clear removes all events and keeps the capacity.
func (l *EventList) Clear() {
	l.events = l.events[:0]
}

// MaxOffset returns the biggest offset of stored events.
func (l *EventList) MaxOffset() (int, bool) {
	if len(l.events) == 0 {
		return 0, false
	}
	max := l.events[0].Offset
	for _, e := range l.events[1:] {
		if e.Offset > max {
			max = e.Offset
		}
	}
	return max, true
}

// Modify calls fn for every event starting at index from.
func (l *EventList) Modify(from int, fn func(*Event)) {
	for i := from; i < len(l.events); i++ {
		fn(&l.events[i])
	}
}

// Retain keeps events starting at index from for which keep returns true.
// Order of kept events doesn't change.
func (l *EventList) Retain(from int, keep func(Event) bool) {
	n := from
	for i := from; i < len(l.events); i++ {
		if keep(l.events[i]) {
			l.events[n] = l.events[i]
			n++
		}
	}
	l.events = l.events[:n]
}
