package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/config"
	"github.com/cwarden/skuld/internal/engine"
	"github.com/cwarden/skuld/internal/log"
	"github.com/cwarden/skuld/internal/store"
)

type ViewMode int

const (
	ViewGrid ViewMode = iota
	ViewHelp
	ViewEditor
	ViewConfirm
	ViewQuickAdd
)

const (
	gutterWidth = 6
	// title line and day labels above the all-day band
	headerRows = 2
	statusRows = 1

	messageDuration = 3 * time.Second
)

type Model struct {
	// Core components
	config  *config.Config
	store   store.Store
	engine  *engine.Engine
	frames  *frameClock
	logger  *log.Logger
	changes <-chan store.ChangeEvent
	now     func() time.Time

	// View state
	mode     ViewMode
	width    int
	height   int
	rowPx    float64 // pixels per terminal row
	scrolled bool
	// selectAfterLoad is the id of a just-created event.
	selectAfterLoad string

	// Mouse state
	lastClick time.Time
	lastX     int
	lastY     int

	// Editor state
	editing      calendar.Event
	title        textinput.Model
	confirmEvent calendar.Event
	confirm      func()

	// Status bar
	message    string
	messageErr bool
	messageSeq int

	keys   keyMap
	help   help.Model
	styles Styles

	// commands queued during the current update
	cmds []tea.Cmd
}

type Styles struct {
	Normal   lipgloss.Style
	Today    lipgloss.Style
	Selected lipgloss.Style
	Event    lipgloss.Style
	AllDay   lipgloss.Style
	Ghost    lipgloss.Style
	Now      lipgloss.Style
	Header   lipgloss.Style
	Gutter   lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles builds the styles from the configured color map.
func NewStyles(colors map[string]string) Styles {
	c := func(name string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colors[name]))
	}
	block := func(name string) lipgloss.Style {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color(colors[name]))
	}
	return Styles{
		Normal:   c("normal"),
		Today:    c("today").Bold(true),
		Selected: block("selected").Bold(true),
		Event:    block("event"),
		AllDay:   block("allday"),
		Ghost:    block("ghost").Italic(true),
		Now:      c("now").Bold(true),
		Header:   c("header").Bold(true),
		Gutter:   c("gutter"),
		Status:   c("status"),
		Error:    c("error").Bold(true),
	}
}

// NewModel creates the calendar view over s.
func NewModel(cfg *config.Config, s store.Store, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Nop()
	}
	rows := cfg.RowsPerHour
	if rows < 1 {
		rows = 1
	}
	rowPx := cfg.HourHeight / float64(rows)

	m := &Model{
		config: cfg,
		store:  s,
		frames: newFrameClock(cfg.FrameInterval()),
		logger: logger,
		now:    time.Now,
		mode:   ViewGrid,
		rowPx:  rowPx,
		keys:   newKeyMap(cfg.KeyBindings),
		help:   help.New(),
		styles: NewStyles(cfg.Colors),
	}

	m.engine = engine.New(engine.Config{
		Scale:           calendar.Scale{HourHeight: cfg.HourHeight},
		EdgeBand:        cfg.EdgeBand,
		ScrollEdge:      cfg.ScrollEdge,
		ScrollVelocity:  cfg.ScrollVelocity,
		AllDayRowHeight: rowPx,
		DayCount:        cfg.DayCount,
	}, m, m, m.frames)
	m.engine.SetLogger(logger)

	return m
}

// WatchChanges reloads the visible week whenever ch delivers a change.
func (m *Model) WatchChanges(ch <-chan store.ChangeEvent) {
	m.changes = ch
}

// SetClock replaces the source of the current time.
func (m *Model) SetClock(now func() time.Time) {
	m.now = now
	m.engine.SetClock(now)
}

// Engine exposes the interaction engine behind the view.
func (m *Model) Engine() *engine.Engine {
	return m.engine
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadEventsCmd(m.store, m.engine.Anchor(), m.engine.WeekOffset()),
		waitForChange(m.changes),
	}
	if m.config.AutoRefresh {
		cmds = append(cmds, m.tickCmd())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		m.handleKeyPress(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case frameMsg:
		m.frames.fire(msg.id)

	case tickMsg:
		// Refresh periodically, but not under an active gesture
		if m.config.AutoRefresh {
			if !m.engine.Dragging() {
				m.reload()
			}
			m.queue(m.tickCmd())
		}

	case eventsLoadedMsg:
		m.handleEventsLoaded(msg)

	case intentDoneMsg:
		m.handleIntentDone(msg)

	case titleSavedMsg:
		if msg.err != nil {
			m.showError(fmt.Errorf("saving title: %w", msg.err))
			m.reload()
			break
		}
		m.showMessage("Saved")

	case quickAddedMsg:
		m.handleQuickAdded(msg)

	case storeChangedMsg:
		m.logger.Debugf("store file changed: %s", msg.change.Path)
		m.reload()
		m.queue(waitForChange(m.changes))

	case editorFinishedMsg:
		if msg.err != nil {
			m.showError(fmt.Errorf("editor: %w", msg.err))
		}
		m.reload()

	case messageTimeoutMsg:
		if msg.seq == m.messageSeq {
			m.message = ""
		}
	}

	return m, m.flush()
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.mode == ViewHelp {
		return m.viewHelp()
	}
	return m.renderGrid()
}

func (m *Model) resize() {
	gridRows := m.height - headerRows - statusRows
	if gridRows < 1 {
		gridRows = 1
	}
	m.engine.SetViewport(engine.Viewport{
		Width:       float64(m.width),
		Height:      float64(gridRows) * m.rowPx,
		GutterWidth: gutterWidth,
	})
	if m.config.DayCount == 0 {
		m.engine.SetDayCount(calendar.DayCountForWidth(m.width - gutterWidth))
	}
	if !m.scrolled {
		m.engine.ScrollToMinute(m.config.DayStart * 60)
		m.scrolled = true
	}
	m.help.Width = m.width
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) {
	switch m.mode {
	case ViewEditor:
		m.handleEditorKeys(msg)
		return
	case ViewConfirm:
		m.handleConfirmKeys(msg)
		return
	case ViewQuickAdd:
		m.handleQuickAddKeys(msg)
		return
	case ViewHelp:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.queue(tea.Quit)
		case key.Matches(msg, m.keys.Help), msg.Type == tea.KeyEscape:
			m.mode = ViewGrid
		}
		return
	}

	if key.Matches(msg, m.keys.Quit) {
		m.queue(tea.Quit)
		return
	}

	// Only engine actions reach a grid with an active gesture
	if m.engine.Dragging() {
		m.engine.HandleAction(m.keys.action(msg))
		return
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.mode = ViewHelp

	case key.Matches(msg, m.keys.Today):
		m.goToday()

	case key.Matches(msg, m.keys.Refresh):
		m.reload()
		m.showMessage("Refreshed")

	case key.Matches(msg, m.keys.NewEvent):
		m.newEvent()

	case key.Matches(msg, m.keys.QuickAdd):
		m.openQuickAdd()

	case key.Matches(msg, m.keys.EditFile):
		m.editFile()

	case key.Matches(msg, m.keys.ScrollUp):
		m.engine.ScrollBy(-m.rowPx)

	case key.Matches(msg, m.keys.ScrollDown):
		m.engine.ScrollBy(m.rowPx)

	default:
		if a := m.keys.action(msg); a != engine.ActionNone {
			m.engine.HandleAction(a)
		}
	}
}

func (m *Model) goToday() {
	m.engine.ShiftWeek(-m.engine.WeekOffset())
	minute := calendar.MinuteOfDay(m.now()) - 60
	if minute < 0 {
		minute = 0
	}
	m.engine.ScrollToMinute(minute)
}

// newEvent creates a one hour event at the top of the visible time range,
// on today's column when it is visible.
func (m *Model) newEvent() {
	days := m.engine.Days()
	if len(days) == 0 {
		return
	}
	day := days[0].Bucket
	today := calendar.DayOf(m.now())
	for _, d := range days {
		if d.Bucket.Equal(today) {
			day = d.Bucket
		}
	}

	scale := m.engine.Config().Scale
	minute := calendar.SnapToSlot(scale.Minutes(m.engine.ScrollTop()))
	if minute > calendar.MinutesPerDay-60 {
		minute = calendar.MinutesPerDay - 60
	}
	m.Emit(engine.CreateEvent{
		Start: calendar.At(day, minute),
		End:   calendar.At(day, minute+60),
	})
}

func (m *Model) editFile() {
	f, ok := m.store.(interface{ Path() string })
	if !ok || f.Path() == "" {
		m.showError(fmt.Errorf("store has no file to edit"))
		return
	}
	m.queue(editFileCmd(m.config.Editor, f.Path()))
}

func (m *Model) handleEventsLoaded(msg eventsLoadedMsg) {
	if msg.weekOffset != m.engine.WeekOffset() {
		m.logger.Debugf("dropping events loaded for week %d", msg.weekOffset)
		return
	}
	if msg.err != nil {
		m.showError(fmt.Errorf("loading events: %w", msg.err))
		return
	}
	m.engine.SetEvents(msg.events)
	if m.selectAfterLoad != "" {
		m.engine.Select(m.selectAfterLoad)
		m.selectAfterLoad = ""
	}
}

func (m *Model) handleIntentDone(msg intentDoneMsg) {
	if msg.err != nil {
		m.showError(msg.err)
		m.reload()
		return
	}

	switch msg.intent.(type) {
	case engine.CreateEvent:
		// the draft is replaced by the stored event on reload
		m.selectAfterLoad = msg.event.ID
		m.reload()
		m.OpenEditor(msg.event)
	case engine.DeleteEvent:
		m.showMessage("Deleted")
	}
}

// Emit implements engine.Sink. The store runs the intent off the update
// loop; the engine has already applied it locally.
func (m *Model) Emit(intent engine.Intent) {
	m.logger.Debugf("intent %#v", intent)
	m.queue(intentCmd(m.store, intent))
}

// WeekChanged implements engine.Host.
func (m *Model) WeekChanged(offset int) {
	m.reload()
}

func (m *Model) reload() {
	m.queue(loadEventsCmd(m.store, m.engine.Anchor(), m.engine.WeekOffset()))
}

func (m *Model) queue(cmd tea.Cmd) {
	if cmd != nil {
		m.cmds = append(m.cmds, cmd)
	}
}

// flush returns everything queued during the update, including frames the
// engine requested.
func (m *Model) flush() tea.Cmd {
	cmds := append(m.cmds, m.frames.drain()...)
	m.cmds = nil
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) showMessage(msg string) {
	m.message = msg
	m.messageErr = false
	m.messageSeq++
	seq := m.messageSeq
	m.queue(tea.Tick(messageDuration, func(time.Time) tea.Msg {
		return messageTimeoutMsg{seq: seq}
	}))
}

func (m *Model) showError(err error) {
	m.logger.Errorf("%v", err)
	m.showMessage(fmt.Sprintf("Error: %v", err))
	m.messageErr = true
}
