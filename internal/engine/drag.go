package engine

import (
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

// DragState is the active gesture. The variants are Create, Move,
// ResizeStart and ResizeEnd; no gesture is a nil DragState. Every variant
// implements its own pointer-move and release handling.
type DragState interface {
	// update returns the state after the pointer moved to loc.
	update(loc location) DragState
	// preview returns the event the gesture would produce and whether it is
	// valid.
	preview() (calendar.Event, bool)
	// commit returns the intent emitted on release, if any.
	commit() (Intent, bool)
}

// location is a pointer position resolved against the grid.
type location struct {
	Column   int
	Day      calendar.Day
	Minute   float64 // raw minute of the day, unsnapped and unclamped
	InAllDay bool
}

// Create draws a new event over empty cells.
type Create struct {
	StartDay        time.Time
	EndDay          time.Time
	StartMinute     int
	CurrentMinute   int
	IsAllDay        bool
	CrossesDay      bool
	IsMultiDayTimed bool
}

// Move drags an existing event to another day or time.
type Move struct {
	OriginDay       time.Time
	TargetDay       time.Time
	EventID         string
	OffsetMinute    int
	DurationMinutes int
	DaySpan         int
	IsAllDay        bool

	// GrabMinute is where the pointer landed, relative to the event start.
	GrabMinute float64

	Original calendar.Event
}

// ResizeStart drags the start of a single-day event.
type ResizeStart struct {
	Day            time.Time
	EventID        string
	FixedEndMinute int
	CurrentMinute  int

	Original calendar.Event
}

// ResizeEnd drags the end of a single-day event.
type ResizeEnd struct {
	Day              time.Time
	EventID          string
	FixedStartMinute int
	CurrentMinute    int

	Original calendar.Event
}

// pointerMinute snaps a raw pointer minute onto the grid.
func pointerMinute(m float64) int {
	return calendar.ClampMinute(calendar.SnapToSlot(m))
}

func ordered(a, b int) (int, int) {
	if b < a {
		return b, a
	}
	return a, b
}

func (c Create) update(loc location) DragState {
	c.EndDay = loc.Day.Bucket
	c.CrossesDay = !c.EndDay.Equal(c.StartDay)
	if c.IsAllDay {
		return c
	}
	// A timed create dragged into another column becomes a multi-day
	// timed event, never an all-day one.
	c.IsMultiDayTimed = c.CrossesDay
	// Still inside the pressed slot: nothing has been drawn yet.
	if !c.CrossesDay && calendar.FloorToSlot(loc.Minute) == c.StartMinute {
		c.CurrentMinute = c.StartMinute
		return c
	}
	c.CurrentMinute = pointerMinute(loc.Minute)
	return c
}

func (c Create) preview() (calendar.Event, bool) {
	switch {
	case c.IsMultiDayTimed:
		start := calendar.At(c.StartDay, c.StartMinute)
		end := calendar.At(c.EndDay, c.CurrentMinute)
		if end.Before(start) {
			start, end = end, start
		}
		return calendar.Event{Start: start, End: end}, end.After(start)

	case c.IsAllDay:
		first, last := c.StartDay, c.EndDay
		if last.Before(first) {
			first, last = last, first
		}
		return calendar.Event{
			Start:  first,
			End:    calendar.AddDays(last, 1).Add(-time.Millisecond),
			AllDay: true,
		}, true

	default:
		lo, hi := ordered(c.StartMinute, c.CurrentMinute)
		return calendar.Event{
			Start: calendar.At(c.StartDay, lo),
			End:   calendar.At(c.StartDay, hi),
		}, hi > lo
	}
}

func (c Create) commit() (Intent, bool) {
	ev, ok := c.preview()
	if !ok {
		return nil, false
	}
	return CreateEvent{Start: ev.Start, End: ev.End, AllDay: ev.AllDay}, true
}

// wholeDays reports whether the move only shifts by whole days.
func (m Move) wholeDays() bool {
	return m.IsAllDay || m.DaySpan > 1
}

func (m Move) update(loc location) DragState {
	m.TargetDay = loc.Day.Bucket
	if m.wholeDays() {
		return m
	}

	offset := calendar.SnapToSlot(loc.Minute - m.GrabMinute)
	latest := calendar.MinutesPerDay - m.DurationMinutes
	if offset > latest {
		offset = latest
	}
	if offset < 0 {
		offset = 0
	}
	m.OffsetMinute = offset
	return m
}

func (m Move) preview() (calendar.Event, bool) {
	moved := m.Original
	if m.wholeDays() {
		delta := calendar.DaysBetween(m.OriginDay, m.TargetDay)
		moved.Start = calendar.AddDays(m.Original.Start, delta)
		moved.End = calendar.AddDays(m.Original.End, delta)
		return moved, moved.Valid()
	}

	moved.Start = calendar.At(m.TargetDay, m.OffsetMinute)
	moved.End = moved.Start.Add(time.Duration(m.DurationMinutes) * time.Minute)
	return moved, moved.Valid()
}

func (m Move) commit() (Intent, bool) {
	moved, ok := m.preview()
	if !ok {
		return nil, false
	}
	return patchIntent(m.Original, moved)
}

func (r ResizeStart) update(loc location) DragState {
	r.CurrentMinute = pointerMinute(loc.Minute)
	return r
}

func (r ResizeStart) preview() (calendar.Event, bool) {
	return resized(r.Original, r.Day, r.CurrentMinute, r.FixedEndMinute)
}

func (r ResizeStart) commit() (Intent, bool) {
	ev, ok := r.preview()
	if !ok {
		return nil, false
	}
	return patchIntent(r.Original, ev)
}

func (r ResizeEnd) update(loc location) DragState {
	r.CurrentMinute = pointerMinute(loc.Minute)
	return r
}

func (r ResizeEnd) preview() (calendar.Event, bool) {
	return resized(r.Original, r.Day, r.FixedStartMinute, r.CurrentMinute)
}

func (r ResizeEnd) commit() (Intent, bool) {
	ev, ok := r.preview()
	if !ok {
		return nil, false
	}
	return patchIntent(r.Original, ev)
}

// resized orders the two endpoints on day and reports whether the result
// has a positive duration.
func resized(orig calendar.Event, day time.Time, a, b int) (calendar.Event, bool) {
	lo, hi := ordered(a, b)
	ev := orig
	ev.Start = calendar.At(day, lo)
	ev.End = calendar.At(day, hi)
	return ev, hi > lo
}

func patchIntent(orig, moved calendar.Event) (Intent, bool) {
	patch, changed := patchFor(orig, moved)
	if !changed {
		return nil, false
	}
	return patch, true
}

// GestureContext holds everything about the gesture in progress. It is
// owned by one Engine and threaded through the pointer callbacks.
type GestureContext struct {
	State  DragState
	Origin Point
	Last   Point
}

// Active reports whether a gesture is in progress.
func (g GestureContext) Active() bool {
	return g.State != nil
}
