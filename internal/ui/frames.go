package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/skuld/internal/engine"
)

// frameMsg fires a frame requested by the engine.
type frameMsg struct {
	id engine.FrameID
}

// frameClock implements engine.FrameRequester on top of tea.Tick. Frames
// requested during an update are turned into commands by drain; a frame
// cancelled before its tick arrives is dropped on arrival.
type frameClock struct {
	interval time.Duration
	next     engine.FrameID
	pending  map[engine.FrameID]func()
	queued   []engine.FrameID
}

func newFrameClock(interval time.Duration) *frameClock {
	return &frameClock{
		interval: interval,
		pending:  make(map[engine.FrameID]func()),
	}
}

func (c *frameClock) RequestFrame(fn func()) engine.FrameID {
	c.next++
	c.pending[c.next] = fn
	c.queued = append(c.queued, c.next)
	return c.next
}

func (c *frameClock) CancelFrame(id engine.FrameID) {
	delete(c.pending, id)
}

// fire runs the callback of frame id if it is still pending.
func (c *frameClock) fire(id engine.FrameID) bool {
	fn, ok := c.pending[id]
	if !ok {
		return false
	}
	delete(c.pending, id)
	fn()
	return true
}

// drain returns a tick command for every frame requested since the last
// call.
func (c *frameClock) drain() []tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range c.queued {
		if _, ok := c.pending[id]; !ok {
			continue
		}
		id := id
		cmds = append(cmds, tea.Tick(c.interval, func(time.Time) tea.Msg {
			return frameMsg{id: id}
		}))
	}
	c.queued = c.queued[:0]
	return cmds
}
