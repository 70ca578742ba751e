package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/parser"
)

const titleLimit = 200

// OpenEditor implements engine.Host. It edits the title of ev in the status
// line.
func (m *Model) OpenEditor(ev calendar.Event) {
	if ev.IsDraft() {
		return
	}

	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = titleLimit
	ti.Prompt = "Title: "
	ti.SetValue(ev.Title)
	m.queue(ti.Focus())

	m.title = ti
	m.editing = ev
	m.mode = ViewEditor
}

// ConfirmDelete implements engine.Host.
func (m *Model) ConfirmDelete(ev calendar.Event, confirm func()) {
	if !m.config.ConfirmDelete {
		confirm()
		return
	}
	m.confirmEvent = ev
	m.confirm = confirm
	m.mode = ViewConfirm
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ViewGrid
		m.title.Blur()
		return

	case tea.KeyEnter:
		ev := m.editing
		ev.Title = strings.TrimSpace(m.title.Value())
		m.mode = ViewGrid
		m.title.Blur()
		if ev.Title == m.editing.Title {
			return
		}

		// Show the new title right away
		events := append([]calendar.Event(nil), m.engine.Events()...)
		if i := calendar.Find(events, ev.ID); i >= 0 {
			events[i].Title = ev.Title
			ev = events[i]
			m.engine.SetEvents(events)
		}
		m.queue(saveTitleCmd(m.store, ev))
		return
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.queue(cmd)
}

// openQuickAdd prompts for an entry like "tomorrow 2pm-3pm dentist".
func (m *Model) openQuickAdd() {
	ti := textinput.New()
	ti.Placeholder = "tomorrow 2pm-3pm dentist"
	ti.CharLimit = titleLimit
	ti.Prompt = "Add: "
	m.queue(ti.Focus())

	m.title = ti
	m.mode = ViewQuickAdd
}

func (m *Model) handleQuickAddKeys(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ViewGrid
		m.title.Blur()
		return

	case tea.KeyEnter:
		m.mode = ViewGrid
		m.title.Blur()
		input := strings.TrimSpace(m.title.Value())
		if input == "" {
			return
		}
		ev, err := parser.New(m.now()).Parse(input)
		if err != nil {
			m.showError(fmt.Errorf("cannot add %q: %w", input, err))
			return
		}
		m.queue(quickAddCmd(m.store, ev))
		return
	}

	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	m.queue(cmd)
}

// handleQuickAdded shows the week of the new event and selects it.
func (m *Model) handleQuickAdded(msg quickAddedMsg) {
	if msg.err != nil {
		m.showError(fmt.Errorf("adding event: %w", msg.err))
		return
	}

	ev := msg.event
	m.selectAfterLoad = ev.ID
	m.showMessage(fmt.Sprintf("Added %q on %s", titleOf(ev),
		ev.Start.In(calendar.Zone).Format(m.config.DateFormat)))

	week := calendar.DaysBetween(calendar.WeekStart(m.now()), calendar.WeekStart(ev.Start)) / calendar.DaysPerWeek
	if week != m.engine.WeekOffset() {
		m.engine.ShiftWeek(week - m.engine.WeekOffset())
	} else {
		m.reload()
	}
	if !ev.AllDay {
		m.engine.ScrollToMinute(calendar.MinuteOfDay(ev.Start) - 60)
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) {
	confirm := m.confirm
	m.confirm = nil
	m.mode = ViewGrid

	switch msg.String() {
	case "y", "Y", "enter":
		if confirm != nil {
			confirm()
		}
	default:
		m.showMessage("Delete cancelled")
	}
}

// prompt renders the status line of the editor and confirm modes.
func (m *Model) prompt() string {
	switch m.mode {
	case ViewEditor, ViewQuickAdd:
		return m.title.View()
	case ViewConfirm:
		q := fmt.Sprintf("Delete %q? (y/n)", titleOf(m.confirmEvent))
		return m.styles.Error.Render(truncate.String(q, uint(m.width)))
	}
	return ""
}

func titleOf(ev calendar.Event) string {
	if ev.Title == "" {
		return "(untitled)"
	}
	return ev.Title
}
