package engine

import (
	"math"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/log"
)

// Config holds the geometry and tuning of the grid.
type Config struct {
	Scale           calendar.Scale
	EdgeBand        float64 // resize handle height in pixels
	ScrollEdge      float64 // auto-scroll threshold in pixels
	ScrollVelocity  float64 // auto-scroll pixels per frame
	AllDayRowHeight float64
	DayCount        int
}

// DefaultConfig returns the standard grid configuration.
func DefaultConfig() Config {
	return Config{
		Scale:           calendar.DefaultScale(),
		EdgeBand:        8,
		ScrollEdge:      24,
		ScrollVelocity:  4,
		AllDayRowHeight: 24,
		DayCount:        7,
	}
}

// Point is a pointer position in viewport pixels. Y is measured from the top
// of the grid, including the all-day band.
type Point struct {
	X, Y float64
}

// Viewport is the visible area of the grid. The time gutter on the left is
// GutterWidth pixels wide.
type Viewport struct {
	Width       float64
	Height      float64
	GutterWidth float64
}

// Host is the UI the engine delegates to.
type Host interface {
	OpenEditor(ev calendar.Event)
	// ConfirmDelete asks the user and calls confirm if they agree.
	ConfirmDelete(ev calendar.Event, confirm func())
	WeekChanged(offset int)
}

// TargetKind classifies what is under the pointer.
type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetAllDayCell
	TargetTimedCell
	TargetEventBody
	TargetResizeStart
	TargetResizeEnd
)

func (k TargetKind) String() string {
	switch k {
	case TargetAllDayCell:
		return "all-day cell"
	case TargetTimedCell:
		return "timed cell"
	case TargetEventBody:
		return "event"
	case TargetResizeStart:
		return "resize start"
	case TargetResizeEnd:
		return "resize end"
	default:
		return "none"
	}
}

// Target is the result of a hit test.
type Target struct {
	Kind    TargetKind
	Column  int // index into the visible days
	Day     calendar.Day
	Minute  float64
	Event   calendar.Event
	Segment calendar.Segment
}

// Engine is the interaction state of one calendar grid. It is not safe for
// concurrent use; the UI update loop owns it.
type Engine struct {
	cfg    Config
	host   Host
	sink   Sink
	logger *log.Logger
	now    func() time.Time

	events     []calendar.Event
	weekOffset int
	dayCount   int
	days       []calendar.Day
	layout     calendar.Layout

	viewport  Viewport
	scrollTop float64

	gesture  GestureContext
	selected string

	scroller *AutoScroller
}

// New creates an engine. frames drives auto-scroll; a nil FrameRequester
// disables it.
func New(cfg Config, host Host, sink Sink, frames FrameRequester) *Engine {
	if cfg.DayCount == 0 {
		cfg.DayCount = calendar.DaysPerWeek
	}
	e := &Engine{
		cfg:      cfg,
		host:     host,
		sink:     sink,
		logger:   log.Nop(),
		now:      time.Now,
		dayCount: cfg.DayCount,
	}
	e.scroller = NewAutoScroller(frames, e, cfg.ScrollEdge, cfg.ScrollVelocity)
	e.scroller.active = e.Dragging
	e.scroller.onScroll = e.replayPointer
	e.relayout()
	return e
}

// SetLogger replaces the engine's logger.
func (e *Engine) SetLogger(l *log.Logger) {
	e.logger = l
}

// SetClock replaces the source of "today".
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
	e.relayout()
}

// SetEvents replaces the loaded events. A selection whose event is gone is
// cleared.
func (e *Engine) SetEvents(events []calendar.Event) {
	e.events = append([]calendar.Event(nil), events...)
	if e.selected != "" && calendar.Find(e.events, e.selected) < 0 {
		e.logger.Debugf("clearing stale selection %s", e.selected)
		e.selected = ""
	}
	e.relayout()
}

// Events returns the loaded events including optimistic local changes.
func (e *Engine) Events() []calendar.Event {
	return e.events
}

// ShiftWeek moves the visible window by whole weeks.
func (e *Engine) ShiftWeek(delta int) {
	if delta == 0 {
		return
	}
	e.weekOffset += delta
	e.relayout()
	if e.host != nil {
		e.host.WeekChanged(e.weekOffset)
	}
}

// WeekOffset returns the visible week relative to the current one.
func (e *Engine) WeekOffset() int {
	return e.weekOffset
}

// SetDayCount sets the number of visible day columns (1, 3 or 7).
func (e *Engine) SetDayCount(k int) {
	e.dayCount = k
	e.relayout()
}

// DayCount returns the number of visible day columns.
func (e *Engine) DayCount() int {
	return len(e.days)
}

// Days returns the visible day columns.
func (e *Engine) Days() []calendar.Day {
	return e.days
}

// Anchor returns the Monday of the visible week.
func (e *Engine) Anchor() time.Time {
	return calendar.WeekAnchor(e.now(), e.weekOffset)
}

// Layout returns the resolved layout of the visible week.
func (e *Engine) Layout() calendar.Layout {
	return e.layout
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) relayout() {
	now := e.now()
	e.days = calendar.VisibleDays(now, e.weekOffset, e.dayCount)
	e.layout = calendar.Resolve(e.events, calendar.WeekAnchor(now, e.weekOffset))
	e.clampScroll()
}

// SetViewport updates the grid dimensions.
func (e *Engine) SetViewport(v Viewport) {
	e.viewport = v
	e.clampScroll()
}

// Viewport returns the grid dimensions.
func (e *Engine) Viewport() Viewport {
	return e.viewport
}

// HeaderHeight is the height of the sticky all-day band. It always keeps
// one empty row to start new all-day events in.
func (e *Engine) HeaderHeight() float64 {
	return float64(e.layout.AllDayRows+1) * e.cfg.AllDayRowHeight
}

// ScrollTop returns the pixel offset of the timed area.
func (e *Engine) ScrollTop() float64 {
	return e.scrollTop
}

// MaxScroll returns the largest valid scroll offset.
func (e *Engine) MaxScroll() float64 {
	visible := e.viewport.Height - e.HeaderHeight()
	return math.Max(0, e.cfg.Scale.DayHeight()-visible)
}

// SetScrollTop scrolls the timed area, clamped to its bounds.
func (e *Engine) SetScrollTop(y float64) {
	e.scrollTop = y
	e.clampScroll()
}

// ScrollBy scrolls the timed area by dy pixels.
func (e *Engine) ScrollBy(dy float64) {
	e.SetScrollTop(e.scrollTop + dy)
}

// ScrollToMinute scrolls so minute m is at the top of the timed area.
func (e *Engine) ScrollToMinute(m int) {
	e.SetScrollTop(e.cfg.Scale.Pixels(float64(m)))
}

func (e *Engine) clampScroll() {
	e.scrollTop = math.Max(0, math.Min(e.scrollTop, e.MaxScroll()))
}

func (e *Engine) columnWidth() float64 {
	if len(e.days) == 0 {
		return 0
	}
	return (e.viewport.Width - e.viewport.GutterWidth) / float64(len(e.days))
}

// columnAt returns the day column under x, clamped to the visible days.
func (e *Engine) columnAt(x float64) int {
	w := e.columnWidth()
	if w <= 0 {
		return 0
	}
	col := int(math.Floor((x - e.viewport.GutterWidth) / w))
	if col < 0 {
		col = 0
	}
	if col > len(e.days)-1 {
		col = len(e.days) - 1
	}
	return col
}

// locate resolves p against the grid, clamping it to the day columns.
func (e *Engine) locate(p Point) location {
	col := e.columnAt(p.X)
	header := e.HeaderHeight()
	return location{
		Column:   col,
		Day:      e.days[col],
		Minute:   e.cfg.Scale.Minutes(p.Y - header + e.scrollTop),
		InAllDay: p.Y < header,
	}
}

// resizeBands returns the heights of the start and end handles of a
// segment of the given height. Each handle covers at most a third of the
// segment. A segment too short for both keeps only the end handle, and
// never more than half of it, so there is always a body left to grab.
func resizeBands(height, band float64) (start, end float64) {
	if height > 3*band {
		return band, band
	}
	return 0, math.Min(band, height/2)
}

// HitTest reports what lies under p.
func (e *Engine) HitTest(p Point) Target {
	v := e.viewport
	if len(e.days) == 0 || p.X < v.GutterWidth || p.X >= v.Width || p.Y < 0 || p.Y >= v.Height {
		return Target{}
	}

	loc := e.locate(p)
	t := Target{Column: loc.Column, Day: loc.Day, Minute: loc.Minute}

	if loc.InAllDay {
		row := int(p.Y / e.cfg.AllDayRowHeight)
		for _, pl := range e.layout.AllDay {
			if pl.Row == row && pl.Covers(loc.Day.Index) {
				t.Kind = TargetEventBody
				t.Event = pl.Event
				return t
			}
		}
		t.Kind = TargetAllDayCell
		return t
	}

	if loc.Minute >= calendar.MinutesPerDay {
		return Target{}
	}

	contentY := p.Y - e.HeaderHeight() + e.scrollTop
	colX := p.X - v.GutterWidth - float64(loc.Column)*e.columnWidth()
	for _, seg := range e.layout.SegmentsOn(loc.Day.Index) {
		if loc.Minute < float64(seg.Top) || loc.Minute >= float64(seg.End) {
			continue
		}
		sub := int(colX / (e.columnWidth() / float64(seg.Columns)))
		if sub > seg.Columns-1 {
			sub = seg.Columns - 1
		}
		if sub != seg.Column {
			continue
		}

		t.Event = seg.Event
		t.Segment = seg
		t.Kind = TargetEventBody
		if seg.Resizable() {
			top := e.cfg.Scale.Pixels(float64(seg.Top))
			bottom := e.cfg.Scale.Pixels(float64(seg.End))
			startBand, endBand := resizeBands(bottom-top, e.cfg.EdgeBand)
			switch {
			case contentY-top < startBand:
				t.Kind = TargetResizeStart
			case bottom-contentY < endBand:
				t.Kind = TargetResizeEnd
			}
		}
		return t
	}

	t.Kind = TargetTimedCell
	return t
}

// Drag returns the active gesture, or nil.
func (e *Engine) Drag() DragState {
	return e.gesture.State
}

// Dragging reports whether a gesture is in progress.
func (e *Engine) Dragging() bool {
	return e.gesture.Active()
}

// Preview returns the event the active gesture would produce.
func (e *Engine) Preview() (calendar.Event, bool) {
	if !e.gesture.Active() {
		return calendar.Event{}, false
	}
	return e.gesture.State.preview()
}

// PointerDown starts a gesture on target. It is ignored while another
// gesture is active.
func (e *Engine) PointerDown(p Point, target Target) {
	if e.gesture.Active() {
		return
	}

	var state DragState
	switch target.Kind {
	case TargetAllDayCell:
		state = Create{
			StartDay: target.Day.Bucket,
			EndDay:   target.Day.Bucket,
			IsAllDay: true,
		}

	case TargetTimedCell:
		m := calendar.ClampMinute(calendar.FloorToSlot(target.Minute))
		state = Create{
			StartDay:      target.Day.Bucket,
			EndDay:        target.Day.Bucket,
			StartMinute:   m,
			CurrentMinute: m,
		}

	case TargetEventBody:
		ev := target.Event
		e.selected = ev.ID
		if ev.IsDraft() {
			return
		}
		offset := calendar.MinutesFrom(target.Day.Bucket, ev.Start)
		move := Move{
			OriginDay:       target.Day.Bucket,
			TargetDay:       target.Day.Bucket,
			EventID:         ev.ID,
			OffsetMinute:    offset,
			DurationMinutes: int(ev.Duration() / time.Minute),
			DaySpan:         ev.SpanDays(),
			IsAllDay:        ev.AllDay,
			Original:        ev,
		}
		if !move.wholeDays() {
			move.GrabMinute = target.Minute - float64(offset)
		}
		state = move

	case TargetResizeStart:
		seg := target.Segment
		e.selected = seg.Event.ID
		if seg.Event.IsDraft() {
			return
		}
		state = ResizeStart{
			Day:            seg.Day,
			EventID:        seg.Event.ID,
			FixedEndMinute: seg.End,
			CurrentMinute:  seg.Top,
			Original:       seg.Event,
		}

	case TargetResizeEnd:
		seg := target.Segment
		e.selected = seg.Event.ID
		if seg.Event.IsDraft() {
			return
		}
		state = ResizeEnd{
			Day:              seg.Day,
			EventID:          seg.Event.ID,
			FixedStartMinute: seg.Top,
			CurrentMinute:    seg.End,
			Original:         seg.Event,
		}

	default:
		return
	}

	e.gesture = GestureContext{State: state, Origin: p, Last: p}
	e.logger.Debugf("gesture start %T at %s", state, target.Kind)
}

// PointerMove updates the active gesture and drives auto-scroll.
func (e *Engine) PointerMove(p Point) {
	if !e.gesture.Active() {
		return
	}
	e.gesture.Last = p
	e.gesture.State = e.gesture.State.update(e.locate(p))
	e.scroller.Track(p.Y, e.HeaderHeight(), e.viewport.Height)
}

// PointerUp finishes the active gesture and emits its intent, if any.
func (e *Engine) PointerUp(p Point) {
	if !e.gesture.Active() {
		return
	}
	e.scroller.Stop()

	state := e.gesture.State.update(e.locate(p))
	e.gesture = GestureContext{}

	intent, ok := state.commit()
	if !ok {
		e.logger.Debugf("discarding %T gesture without a valid result", state)
		return
	}
	e.emit(intent)
}

// Cancel abandons the active gesture without emitting anything.
func (e *Engine) Cancel() bool {
	if !e.gesture.Active() {
		return false
	}
	e.scroller.Stop()
	e.logger.Debugf("gesture %T cancelled", e.gesture.State)
	e.gesture = GestureContext{}
	return true
}

// AutoScrolling reports whether the auto-scroll loop is running.
func (e *Engine) AutoScrolling() bool {
	return e.scroller.Running()
}

// replayPointer re-applies the last pointer position after the content
// scrolled under it.
func (e *Engine) replayPointer() {
	if !e.gesture.Active() {
		return
	}
	e.gesture.State = e.gesture.State.update(e.locate(e.gesture.Last))
}

// DoubleClick opens the event under p in the editor.
func (e *Engine) DoubleClick(p Point) bool {
	t := e.HitTest(p)
	switch t.Kind {
	case TargetEventBody, TargetResizeStart, TargetResizeEnd:
	default:
		return false
	}
	e.selected = t.Event.ID
	if e.host != nil {
		e.host.OpenEditor(t.Event)
	}
	return true
}

// emit applies the intent locally, then hands it to the sink.
func (e *Engine) emit(intent Intent) {
	e.events = ApplyIntent(e.events, intent)
	e.relayout()
	e.logger.Debugf("emit %#v", intent)
	if e.sink != nil {
		e.sink.Emit(intent)
	}
}
