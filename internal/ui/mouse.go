package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/skuld/internal/engine"
)

const (
	doubleClickInterval = 400 * time.Millisecond
	wheelRows           = 3
)

// pointAt maps a terminal cell to grid pixels. The point is the center of
// the cell; y is measured from the top of the all-day band.
func (m *Model) pointAt(x, y int) engine.Point {
	return engine.Point{
		X: float64(x) + 0.5,
		Y: float64(y-headerRows)*m.rowPx + m.rowPx/2,
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.mode != ViewGrid {
		return
	}
	p := m.pointAt(msg.X, msg.Y)

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if !m.engine.Dragging() {
			m.engine.ScrollBy(-wheelRows * m.rowPx)
		}

	case msg.Button == tea.MouseButtonWheelDown:
		if !m.engine.Dragging() {
			m.engine.ScrollBy(wheelRows * m.rowPx)
		}

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		now := m.now()
		double := !m.lastClick.IsZero() &&
			now.Sub(m.lastClick) < doubleClickInterval &&
			msg.X == m.lastX && msg.Y == m.lastY
		m.lastClick, m.lastX, m.lastY = now, msg.X, msg.Y

		if double {
			m.lastClick = time.Time{}
			if m.engine.DoubleClick(p) {
				return
			}
		}
		m.engine.PointerDown(p, m.engine.HitTest(p))

	case msg.Action == tea.MouseActionMotion:
		m.engine.PointerMove(p)

	case msg.Action == tea.MouseActionRelease:
		m.engine.PointerUp(p)
	}
}
