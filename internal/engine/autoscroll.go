package engine

import "math"

// FrameID identifies a requested frame.
type FrameID uint64

// FrameRequester schedules a callback for the next display frame.
type FrameRequester interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// Scroller is the scrollable timed area.
type Scroller interface {
	ScrollTop() float64
	MaxScroll() float64
	SetScrollTop(y float64)
}

// AutoScroller scrolls the timed area while a drag holds the pointer near
// its top or bottom edge. At most one frame loop runs at a time.
type AutoScroller struct {
	frames   FrameRequester
	scroller Scroller
	edge     float64
	velocity float64

	// active reports whether a drag is in progress.
	active func() bool
	// onScroll runs after every step.
	onScroll func()

	running bool
	dir     int
	frame   FrameID
}

// NewAutoScroller creates an idle auto-scroller.
func NewAutoScroller(frames FrameRequester, scroller Scroller, edge, velocity float64) *AutoScroller {
	return &AutoScroller{
		frames:   frames,
		scroller: scroller,
		edge:     edge,
		velocity: velocity,
	}
}

// Running reports whether a frame loop is scheduled.
func (a *AutoScroller) Running() bool {
	return a.running
}

// Direction returns -1 when scrolling up, 1 when scrolling down and 0 when
// idle.
func (a *AutoScroller) Direction() int {
	return a.dir
}

// Track checks pointer y against the region [top, bottom) and starts, keeps
// or stops the loop. A pointer above top, over the sticky header, counts as
// being at the top edge; one below bottom counts as the bottom edge.
func (a *AutoScroller) Track(y, top, bottom float64) {
	if a.active == nil || !a.active() || a.scroller == nil || a.frames == nil {
		a.Stop()
		return
	}

	dir := 0
	switch {
	case y < top+a.edge && a.scroller.ScrollTop() > 0:
		dir = -1
	case y > bottom-a.edge && a.scroller.ScrollTop() < a.scroller.MaxScroll():
		dir = 1
	}

	if dir == 0 {
		a.Stop()
		return
	}
	if a.running && a.dir == dir {
		return
	}

	a.Stop()
	a.dir = dir
	a.running = true
	a.frame = a.frames.RequestFrame(a.step)
}

// Stop cancels the loop.
func (a *AutoScroller) Stop() {
	if !a.running {
		return
	}
	if a.frames != nil {
		a.frames.CancelFrame(a.frame)
	}
	a.running = false
	a.dir = 0
}

func (a *AutoScroller) step() {
	if !a.running {
		return
	}
	if a.active == nil || !a.active() || a.scroller == nil {
		a.Stop()
		return
	}

	limit := a.scroller.MaxScroll()
	next := math.Max(0, math.Min(limit, a.scroller.ScrollTop()+float64(a.dir)*a.velocity))
	a.scroller.SetScrollTop(next)
	if a.onScroll != nil {
		a.onScroll()
	}

	if (a.dir < 0 && next <= 0) || (a.dir > 0 && next >= limit) {
		a.running = false
		a.dir = 0
		return
	}
	a.frame = a.frames.RequestFrame(a.step)
}
