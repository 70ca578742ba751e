package engine

import (
	"fmt"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

// Action is a keyboard command on the selected event.
type Action int

const (
	ActionNone Action = iota
	SelectNext
	SelectPrev
	Open
	Delete
	NudgeLater
	NudgeEarlier
	PrevWeek
	NextWeek
	Cancel
)

var actionNames = map[Action]string{
	SelectNext:   "select_next",
	SelectPrev:   "select_prev",
	Open:         "open_event",
	Delete:       "delete_event",
	NudgeLater:   "nudge_later",
	NudgeEarlier: "nudge_earlier",
	PrevWeek:     "prev_week",
	NextWeek:     "next_week",
	Cancel:       "cancel",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// Actions returns every keyboard action in declaration order.
func Actions() []Action {
	return []Action{SelectNext, SelectPrev, Open, Delete, NudgeLater, NudgeEarlier, PrevWeek, NextWeek, Cancel}
}

// ParseAction looks up an action by its binding name.
func ParseAction(name string) (Action, error) {
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action: %s", name)
}

// nudgeStep is how far NudgeLater and NudgeEarlier move an event.
const nudgeStep = calendar.SlotMinutes * time.Minute

// HandleAction runs a keyboard action and reports whether it did anything.
// While a gesture is active only Cancel is handled.
func (e *Engine) HandleAction(a Action) bool {
	if e.gesture.Active() {
		if a == Cancel {
			return e.Cancel()
		}
		return false
	}

	switch a {
	case SelectNext:
		return e.cycleSelection(1)
	case SelectPrev:
		return e.cycleSelection(-1)
	case Open:
		ev, ok := e.Selected()
		if !ok || e.host == nil {
			return false
		}
		e.host.OpenEditor(ev)
		return true
	case Delete:
		return e.requestDelete()
	case NudgeLater:
		return e.nudge(nudgeStep)
	case NudgeEarlier:
		return e.nudge(-nudgeStep)
	case PrevWeek:
		e.ShiftWeek(-1)
		return true
	case NextWeek:
		e.ShiftWeek(1)
		return true
	case Cancel:
		if e.selected == "" {
			return false
		}
		e.selected = ""
		return true
	}
	return false
}

// Selected returns the selected event.
func (e *Engine) Selected() (calendar.Event, bool) {
	i := calendar.Find(e.events, e.selected)
	if i < 0 {
		return calendar.Event{}, false
	}
	return e.events[i], true
}

// SelectedID returns the id of the selected event, or "".
func (e *Engine) SelectedID() string {
	return e.selected
}

// Select selects the event with the given id. An unknown id clears the
// selection.
func (e *Engine) Select(id string) {
	if calendar.Find(e.events, id) < 0 {
		id = ""
	}
	e.selected = id
}

// selectable returns the indexes of events that can be selected. Drafts
// have no id yet and are skipped.
func (e *Engine) selectable() []int {
	var out []int
	for i, ev := range e.events {
		if !ev.IsDraft() {
			out = append(out, i)
		}
	}
	return out
}

func (e *Engine) cycleSelection(step int) bool {
	idx := e.selectable()
	if len(idx) == 0 {
		return false
	}

	cur := -1
	for pos, i := range idx {
		if e.events[i].ID == e.selected {
			cur = pos
			break
		}
	}

	var next int
	switch {
	case cur < 0 && step > 0:
		next = 0
	case cur < 0:
		next = len(idx) - 1
	default:
		next = (cur + step + len(idx)) % len(idx)
	}
	e.selected = e.events[idx[next]].ID
	return true
}

func (e *Engine) requestDelete() bool {
	ev, ok := e.Selected()
	if !ok {
		return false
	}
	confirm := func() { e.deleteEvent(ev.ID) }
	if e.host == nil {
		confirm()
		return true
	}
	e.host.ConfirmDelete(ev, confirm)
	return true
}

// deleteEvent emits the delete and moves the selection to the following
// event, or the preceding one when the last was removed.
func (e *Engine) deleteEvent(id string) {
	pos := calendar.Find(e.events, id)
	if pos < 0 {
		return
	}

	e.emit(DeleteEvent{ID: id})

	e.selected = ""
	for i := pos; i < len(e.events); i++ {
		if !e.events[i].IsDraft() {
			e.selected = e.events[i].ID
			return
		}
	}
	for i := pos - 1; i >= 0; i-- {
		if !e.events[i].IsDraft() {
			e.selected = e.events[i].ID
			return
		}
	}
}

// nudge shifts the selected event by d. All-day events live on whole days,
// so they move by a day in the direction of d.
func (e *Engine) nudge(d time.Duration) bool {
	ev, ok := e.Selected()
	if !ok {
		return false
	}
	start, end := ev.Start.Add(d), ev.End.Add(d)
	if ev.AllDay {
		days := 1
		if d < 0 {
			days = -1
		}
		start, end = calendar.AddDays(ev.Start, days), calendar.AddDays(ev.End, days)
	}
	e.emit(MoveOrResizeEvent{ID: ev.ID, Start: &start, End: &end})
	return true
}
