package engine

import (
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

// Intent is a finalized mutation handed to the event store.
type Intent interface {
	isIntent()
}

// CreateEvent asks the store to create an event. The store assigns the id.
type CreateEvent struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

// MoveOrResizeEvent is a partial update; nil fields are unchanged.
type MoveOrResizeEvent struct {
	ID    string
	Start *time.Time
	End   *time.Time
}

// DeleteEvent removes an event.
type DeleteEvent struct {
	ID string
}

func (CreateEvent) isIntent()       {}
func (MoveOrResizeEvent) isIntent() {}
func (DeleteEvent) isIntent()       {}

// Sink receives intents. Emit must not block; persistence happens
// elsewhere.
type Sink interface {
	Emit(Intent)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Intent)

func (f SinkFunc) Emit(i Intent) {
	f(i)
}

// patchFor builds the partial update turning orig into moved. It reports
// false when nothing changed.
func patchFor(orig, moved calendar.Event) (MoveOrResizeEvent, bool) {
	patch := MoveOrResizeEvent{ID: orig.ID}
	if !moved.Start.Equal(orig.Start) {
		start := moved.Start
		patch.Start = &start
	}
	if !moved.End.Equal(orig.End) {
		end := moved.End
		patch.End = &end
	}
	return patch, patch.Start != nil || patch.End != nil
}

// applyPatch returns ev with the patch applied.
func applyPatch(ev calendar.Event, p MoveOrResizeEvent) calendar.Event {
	if p.Start != nil {
		ev.Start = *p.Start
	}
	if p.End != nil {
		ev.End = *p.End
	}
	return ev
}

// ApplyIntent returns events with the intent applied locally. Created events
// are appended as drafts without an id.
func ApplyIntent(events []calendar.Event, intent Intent) []calendar.Event {
	out := make([]calendar.Event, 0, len(events)+1)
	switch in := intent.(type) {
	case CreateEvent:
		out = append(out, events...)
		out = append(out, calendar.Event{Start: in.Start, End: in.End, AllDay: in.AllDay})
	case MoveOrResizeEvent:
		for _, ev := range events {
			if ev.ID == in.ID {
				ev = applyPatch(ev, in)
			}
			out = append(out, ev)
		}
	case DeleteEvent:
		for _, ev := range events {
			if ev.ID != in.ID {
				out = append(out, ev)
			}
		}
	default:
		out = append(out, events...)
	}
	return out
}
