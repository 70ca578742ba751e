package engine

import (
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

// Test geometry: one pixel per minute, 100px day columns after a 50px gutter.
const (
	testGutter = 50.0
	testColumn = 100.0
	testRowH   = 20.0
)

// localAt builds an instant from local wall-clock fields in late August 2025.
// The 25th is a Monday.
func localAt(day, hour, minute int) time.Time {
	return time.Date(2025, 8, day, hour, minute, 0, 0, calendar.Zone).UTC()
}

func bucket(day int) time.Time {
	return localAt(day, 0, 0)
}

type recorder struct {
	intents []Intent
}

func (r *recorder) Emit(i Intent) {
	r.intents = append(r.intents, i)
}

type fakeHost struct {
	opened   []calendar.Event
	confirms []calendar.Event
	approve  bool
	weeks    []int
}

func (h *fakeHost) OpenEditor(ev calendar.Event) {
	h.opened = append(h.opened, ev)
}

func (h *fakeHost) ConfirmDelete(ev calendar.Event, confirm func()) {
	h.confirms = append(h.confirms, ev)
	if h.approve {
		confirm()
	}
}

func (h *fakeHost) WeekChanged(offset int) {
	h.weeks = append(h.weeks, offset)
}

type fakeFrames struct {
	next      FrameID
	pending   map[FrameID]func()
	cancelled []FrameID
}

func newFakeFrames() *fakeFrames {
	return &fakeFrames{pending: make(map[FrameID]func())}
}

func (f *fakeFrames) RequestFrame(fn func()) FrameID {
	f.next++
	f.pending[f.next] = fn
	return f.next
}

func (f *fakeFrames) CancelFrame(id FrameID) {
	delete(f.pending, id)
	f.cancelled = append(f.cancelled, id)
}

// flush runs the frames pending right now and returns how many ran.
func (f *fakeFrames) flush() int {
	due := f.pending
	f.pending = make(map[FrameID]func())
	for _, fn := range due {
		fn()
	}
	return len(due)
}

type harness struct {
	*Engine
	host   *fakeHost
	sink   *recorder
	frames *fakeFrames

	visible float64 // height of the timed area
}

// newHarness returns a week-wide engine on Wednesday 2025-08-27 at noon.
func newHarness(events ...calendar.Event) *harness {
	cfg := DefaultConfig()
	cfg.Scale = calendar.Scale{HourHeight: 60}
	cfg.AllDayRowHeight = testRowH

	h := &harness{
		host:   &fakeHost{approve: true},
		sink:   &recorder{},
		frames: newFakeFrames(),
		// the whole day fits, so nothing scrolls unless a test shrinks it
		visible: calendar.MinutesPerDay,
	}
	h.Engine = New(cfg, h.host, h.sink, h.frames)
	h.SetClock(func() time.Time { return localAt(27, 12, 0) })
	h.SetEvents(events)
	h.resize()
	return h
}

// resize fits the viewport to the current all-day band plus h.visible
// pixels of timed area.
func (h *harness) resize() {
	h.SetViewport(Viewport{
		Width:       testGutter + testColumn*float64(len(h.Days())),
		Height:      h.HeaderHeight() + h.visible,
		GutterWidth: testGutter,
	})
}

// at returns the point in the middle of column col at minute m of the timed
// area.
func (h *harness) at(col int, m float64) Point {
	return Point{
		X: testGutter + float64(col)*testColumn + testColumn/2,
		Y: h.HeaderHeight() + h.Config().Scale.Pixels(m) - h.ScrollTop(),
	}
}

// allDay returns the point in column col on all-day row row.
func (h *harness) allDay(col, row int) Point {
	return Point{
		X: testGutter + float64(col)*testColumn + testColumn/2,
		Y: float64(row)*testRowH + testRowH/2,
	}
}

// drag presses at from, moves through the path and releases at the last
// point.
func (h *harness) drag(from Point, path ...Point) {
	h.PointerDown(from, h.HitTest(from))
	for _, p := range path {
		h.PointerMove(p)
	}
	up := from
	if len(path) > 0 {
		up = path[len(path)-1]
	}
	h.PointerUp(up)
}

func (h *harness) lastIntent() Intent {
	if len(h.sink.intents) == 0 {
		return nil
	}
	return h.sink.intents[len(h.sink.intents)-1]
}
