package calendar

import (
	"fmt"
	"time"
)

// Event is a single calendar entry. Start and End are UTC instants.
type Event struct {
	ID     string // empty for drafts not yet saved
	Start  time.Time
	End    time.Time
	AllDay bool
	Title  string
}

// Valid reports whether the event has a positive duration.
func (e Event) Valid() bool {
	return e.End.After(e.Start)
}

// IsDraft reports whether the event has not been assigned an id yet.
func (e Event) IsDraft() bool {
	return e.ID == ""
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// SpanDays returns the number of calendar days the event touches.
func (e Event) SpanDays() int {
	return DaysBetween(DayOf(e.Start), LastDayOf(e)) + 1
}

// IsMultiDay reports whether the event touches more than one day.
func (e Event) IsMultiDay() bool {
	return e.SpanDays() > 1
}

func (e Event) String() string {
	if e.AllDay {
		return fmt.Sprintf("%s (all day %s - %s)", e.Title,
			e.Start.In(Zone).Format("Jan 2"), e.End.In(Zone).Format("Jan 2"))
	}
	return fmt.Sprintf("%s (%s - %s)", e.Title,
		e.Start.In(Zone).Format("Jan 2 15:04"), e.End.In(Zone).Format("Jan 2 15:04"))
}

// Find returns the index of the event with the given id, or -1.
func Find(events []Event, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
