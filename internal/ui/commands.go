package ui

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/engine"
	"github.com/cwarden/skuld/internal/store"
)

const storeTimeout = 5 * time.Second

// Message types
type tickMsg struct{}

type messageTimeoutMsg struct {
	seq int
}

type eventsLoadedMsg struct {
	weekOffset int
	events     []calendar.Event
	err        error
}

// intentDoneMsg is the store's answer to an emitted intent.
type intentDoneMsg struct {
	intent engine.Intent
	event  calendar.Event
	err    error
}

type titleSavedMsg struct {
	event calendar.Event
	err   error
}

type quickAddedMsg struct {
	event calendar.Event
	err   error
}

type storeChangedMsg struct {
	change store.ChangeEvent
}

type editorFinishedMsg struct {
	err error
}

func loadEventsCmd(s store.Store, anchor time.Time, weekOffset int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		events, err := s.Events(ctx, anchor, calendar.AddDays(anchor, calendar.DaysPerWeek))
		return eventsLoadedMsg{weekOffset: weekOffset, events: events, err: err}
	}
}

// intentCmd runs an intent against the store off the update loop.
func intentCmd(s store.Store, intent engine.Intent) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		msg := intentDoneMsg{intent: intent}
		switch in := intent.(type) {
		case engine.CreateEvent:
			msg.event, msg.err = s.Create(ctx, calendar.Event{Start: in.Start, End: in.End, AllDay: in.AllDay})
		case engine.MoveOrResizeEvent:
			msg.event, msg.err = s.Patch(ctx, in.ID, in.Start, in.End)
		case engine.DeleteEvent:
			msg.err = s.Delete(ctx, in.ID)
		default:
			msg.err = fmt.Errorf("unsupported intent %T", intent)
		}
		return msg
	}
}

func saveTitleCmd(s store.Store, ev calendar.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		saved, err := s.Update(ctx, ev)
		return titleSavedMsg{event: saved, err: err}
	}
}

func quickAddCmd(s store.Store, ev calendar.Event) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		created, err := s.Create(ctx, ev)
		return quickAddedMsg{event: created, err: err}
	}
}

// waitForChange blocks until the watcher reports a change of the store
// file. It is re-issued after every change.
func waitForChange(changes <-chan store.ChangeEvent) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		change, ok := <-changes
		if !ok {
			return nil
		}
		return storeChangedMsg{change: change}
	}
}

// editFileCmd suspends the program and opens path in the user's editor.
func editFileCmd(editor, path string) tea.Cmd {
	c := exec.Command(editor, path)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(m.config.RefreshRate, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
