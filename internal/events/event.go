package events

import "errors"

// ErrEmptyLog is returned when finalization is attempted on a run that never
// logged a single event.
var ErrEmptyLog = errors.New("event log is empty")

// EventResponse marks participant input rather than a phase transition.
// Response events never receive a derived duration.
const EventResponse = "response"

// Event is one logged occurrence during a run.
type Event struct {
	TrialNr   int
	Onset     float64 // seconds since experiment start
	EventType string
	Phase     int
	Response  string // empty when the event carries no response payload
	NrFrames  int    // refreshes elapsed during the phase that produced this event
}

// Row is a finalized event with its derived columns.
type Row struct {
	Event
	OnsetAbs float64
	Duration *float64 // nil for response events
}

// Log is the append-only event log of a single run. The run loop owns it
// exclusively; it is not safe for concurrent use.
type Log struct {
	events []Event
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds one event to the log. Events are expected in onset order.
func (l *Log) Append(e Event) {
	l.events = append(l.events, e)
}

// Len reports the number of logged events.
func (l *Log) Len() int {
	return len(l.events)
}

// Events returns a snapshot of the logged events.
func (l *Log) Events() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}
