package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/cwarden/skuld/internal/calendar"
)

// Layer depths
const (
	zGrid = iota
	zNow
	zEvent
	zSelected
	zGhost
	zStatus = 100
)

// cellAt returns the first terminal cell whose center lies at or right of
// pixel x, matching the engine's hit testing of cell centers.
func cellAt(x float64) int {
	return int(math.Ceil(x - 0.5))
}

// rowSpan returns the timed rows whose centers fall inside [top, end)
// minutes.
func (m *Model) rowSpan(top, end int) (first, last int) {
	scale := m.engine.Config().Scale
	scroll := m.engine.ScrollTop()
	first = int(math.Ceil((scale.Pixels(float64(top)) - scroll - m.rowPx/2) / m.rowPx))
	last = int(math.Ceil((scale.Pixels(float64(end))-scroll-m.rowPx/2)/m.rowPx)) - 1
	if last < first {
		last = first
	}
	return first, last
}

// columnSpan returns the cells [start, end) of sub-column sub of n in day
// column col.
func (m *Model) columnSpan(col, sub, n int) (start, end int) {
	days := len(m.engine.Days())
	if days == 0 {
		return 0, 0
	}
	colW := float64(m.width-gutterWidth) / float64(days)
	subW := colW / float64(n)
	left := gutterWidth + float64(col)*colW + float64(sub)*subW
	return cellAt(left), cellAt(left + subW)
}

func (m *Model) renderGrid() string {
	layout := m.engine.Layout()
	bandRows := layout.AllDayRows + 1
	gridRows := m.height - headerRows - statusRows
	timedRows := gridRows - bandRows

	var layers []*lipgloss.Layer
	layers = append(layers, lipgloss.NewLayer(m.renderBackground(bandRows, timedRows)).X(0).Y(0).Z(zGrid))
	layers = append(layers, m.nowLayers(bandRows, timedRows)...)
	layers = append(layers, m.allDayLayers()...)
	layers = append(layers, m.timedLayers(bandRows, timedRows)...)
	layers = append(layers, m.ghostLayers(bandRows, timedRows)...)
	layers = append(layers, lipgloss.NewLayer(m.renderStatusBar()).X(0).Y(m.height-statusRows).Z(zStatus))

	return lipgloss.NewCanvas(layers...).Render()
}

// renderBackground draws the title, the day labels, the time gutter and the
// column rules.
func (m *Model) renderBackground(bandRows, timedRows int) string {
	days := m.engine.Days()
	today := calendar.DayOf(m.now())
	lines := make([]string, 0, headerRows+bandRows+timedRows)

	lines = append(lines, m.renderTitle())

	var labels strings.Builder
	labels.WriteString(strings.Repeat(" ", gutterWidth))
	for i, d := range days {
		start, end := m.columnSpan(i, 0, 1)
		label := truncate.String(d.Bucket.In(calendar.Zone).Format(m.config.DateFormat), uint(end-start))
		style := m.styles.Header
		if d.Bucket.Equal(today) {
			style = m.styles.Today
		}
		labels.WriteString(style.Render(label))
		labels.WriteString(strings.Repeat(" ", end-start-lipgloss.Width(label)))
	}
	lines = append(lines, labels.String())

	rule := m.columnRule()
	for r := 0; r < bandRows; r++ {
		gutter := strings.Repeat(" ", gutterWidth)
		if r == 0 {
			gutter = m.styles.Gutter.Render(fmt.Sprintf("%-*s", gutterWidth, "all"))
		}
		lines = append(lines, gutter+rule)
	}

	scale := m.engine.Config().Scale
	rowMinutes := scale.Minutes(m.rowPx)
	for r := 0; r < timedRows; r++ {
		center := scale.Minutes(m.engine.ScrollTop() + float64(r)*m.rowPx + m.rowPx/2)
		gutter := strings.Repeat(" ", gutterWidth)
		hour := int(math.Ceil((center - rowMinutes/2) / 60))
		if float64(hour*60) < center+rowMinutes/2 && hour < 24 {
			label := time.Date(2000, 1, 1, hour, 0, 0, 0, time.UTC).Format(m.config.TimeFormat)
			gutter = m.styles.Gutter.Render(fmt.Sprintf("%-*s", gutterWidth, truncate.String(label, gutterWidth-1)))
		}
		lines = append(lines, gutter+rule)
	}

	return strings.Join(lines, "\n")
}

func (m *Model) columnRule() string {
	var b strings.Builder
	for i := range m.engine.Days() {
		start, end := m.columnSpan(i, 0, 1)
		if end <= start {
			continue
		}
		b.WriteString(m.styles.Gutter.Faint(true).Render("│"))
		b.WriteString(strings.Repeat(" ", end-start-1))
	}
	return b.String()
}

func (m *Model) renderTitle() string {
	anchor := m.engine.Anchor().In(calendar.Zone)
	left := m.styles.Header.Render(fmt.Sprintf("skuld  week of %s", anchor.Format("Mon Jan 2 2006")))
	if off := m.engine.WeekOffset(); off != 0 {
		left += m.styles.Status.Render(fmt.Sprintf(" (%+d)", off))
	}
	right := m.styles.Status.Render(m.now().In(calendar.Zone).Format(m.config.DateFormat + " " + m.config.TimeFormat))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return truncate.String(left, uint(m.width))
	}
	return left + strings.Repeat(" ", gap) + right
}

// nowLayers marks the current time across today's column.
func (m *Model) nowLayers(bandRows, timedRows int) []*lipgloss.Layer {
	now := m.now()
	today := calendar.DayOf(now)
	for i, d := range m.engine.Days() {
		if !d.Bucket.Equal(today) {
			continue
		}
		scale := m.engine.Config().Scale
		y := scale.Pixels(float64(calendar.MinuteOfDay(now))) - m.engine.ScrollTop()
		row := int(math.Floor(y / m.rowPx))
		if row < 0 || row >= timedRows {
			return nil
		}
		start, end := m.columnSpan(i, 0, 1)
		line := m.styles.Now.Render(strings.Repeat("─", end-start))
		return []*lipgloss.Layer{lipgloss.NewLayer(line).X(start).Y(headerRows + bandRows + row).Z(zNow)}
	}
	return nil
}

// visibleColumn returns the column showing the given week day index.
func (m *Model) visibleColumn(dayIndex int) (int, bool) {
	for i, d := range m.engine.Days() {
		if d.Index == dayIndex {
			return i, true
		}
	}
	return 0, false
}

// visibleRange clamps [first, last] week day indexes to the visible columns.
func (m *Model) visibleRange(first, last int) (int, int, bool) {
	days := m.engine.Days()
	if len(days) == 0 {
		return 0, 0, false
	}
	lo, hi := days[0].Index, days[len(days)-1].Index
	if last < lo || first > hi {
		return 0, 0, false
	}
	if first < lo {
		first = lo
	}
	if last > hi {
		last = hi
	}
	c0, _ := m.visibleColumn(first)
	c1, _ := m.visibleColumn(last)
	return c0, c1, true
}

func (m *Model) allDayLayers() []*lipgloss.Layer {
	var layers []*lipgloss.Layer
	for _, p := range m.engine.Layout().AllDay {
		c0, c1, ok := m.visibleRange(p.StartDayIndex, p.EndDayIndex)
		if !ok {
			continue
		}
		style, z := m.styles.AllDay, zEvent
		if p.Event.ID != "" && p.Event.ID == m.engine.SelectedID() {
			style, z = m.styles.Selected, zSelected
		}
		layers = append(layers, m.barLayer(p.Event, c0, c1, headerRows+p.Row, style, z))
	}
	return layers
}

// barLayer draws a one row all-day bar across columns c0..c1.
func (m *Model) barLayer(ev calendar.Event, c0, c1, y int, style lipgloss.Style, z int) *lipgloss.Layer {
	start, _ := m.columnSpan(c0, 0, 1)
	_, end := m.columnSpan(c1, 0, 1)
	w := end - start - 1
	if w < 1 {
		w = 1
	}
	text := truncate.String(titleOf(ev), uint(w))
	return lipgloss.NewLayer(style.Width(w).Render(text)).X(start + 1).Y(y).Z(z)
}

func (m *Model) timedLayers(bandRows, timedRows int) []*lipgloss.Layer {
	var layers []*lipgloss.Layer
	for i, d := range m.engine.Days() {
		for _, seg := range m.engine.Layout().SegmentsOn(d.Index) {
			style, z := m.styles.Event, zEvent
			if seg.Event.ID != "" && seg.Event.ID == m.engine.SelectedID() {
				style, z = m.styles.Selected, zSelected
			}
			if l := m.blockLayer(seg, i, bandRows, timedRows, style, z); l != nil {
				layers = append(layers, l)
			}
		}
	}
	return layers
}

// blockLayer draws a timed segment in column col, clipped to the visible
// rows. It returns nil when the segment is scrolled out of view.
func (m *Model) blockLayer(seg calendar.Segment, col, bandRows, timedRows int, style lipgloss.Style, z int) *lipgloss.Layer {
	first, last := m.rowSpan(seg.Top, seg.End)
	if last < 0 || first >= timedRows {
		return nil
	}
	if first < 0 {
		first = 0
	}
	if last > timedRows-1 {
		last = timedRows - 1
	}
	h := last - first + 1

	start, end := m.columnSpan(col, seg.Column, max(seg.Columns, 1))
	w := end - start - 1
	if w < 1 {
		return nil
	}

	label := titleOf(seg.Event)
	if seg.IsFirst {
		label = seg.Event.Start.In(calendar.Zone).Format(m.config.TimeFormat) + " " + label
	}
	lines := strings.Split(wordwrap.String(label, w), "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for i, l := range lines {
		lines[i] = truncate.String(l, uint(w))
	}

	block := style.Width(w).Height(h).Render(strings.Join(lines, "\n"))
	return lipgloss.NewLayer(block).X(start + 1).Y(headerRows + bandRows + first).Z(z)
}

// ghostLayers draws the result of the active gesture.
func (m *Model) ghostLayers(bandRows, timedRows int) []*lipgloss.Layer {
	ev, ok := m.engine.Preview()
	if !ok {
		return nil
	}
	anchor := m.engine.Anchor()

	if ev.AllDay {
		first := calendar.DaysBetween(anchor, calendar.DayOf(ev.Start))
		last := calendar.DaysBetween(anchor, calendar.LastDayOf(ev))
		c0, c1, ok := m.visibleRange(first, last)
		if !ok {
			return nil
		}
		row := headerRows + bandRows - 1
		return []*lipgloss.Layer{m.barLayer(ev, c0, c1, row, m.styles.Ghost, zGhost)}
	}

	var layers []*lipgloss.Layer
	for _, seg := range calendar.Segments(ev, anchor) {
		col, ok := m.visibleColumn(seg.DayIndex)
		if !ok {
			continue
		}
		seg.Column, seg.Columns = 0, 1
		if l := m.blockLayer(seg, col, bandRows, timedRows, m.styles.Ghost, zGhost); l != nil {
			layers = append(layers, l)
		}
	}
	return layers
}

func (m *Model) renderStatusBar() string {
	if p := m.prompt(); p != "" {
		return p
	}
	if m.message != "" {
		style := m.styles.Status
		if m.messageErr {
			style = m.styles.Error
		}
		return style.Render(truncate.String(m.message, uint(m.width)))
	}
	if ev, ok := m.engine.Selected(); ok {
		return m.styles.Status.Render(truncate.String(m.describe(ev), uint(m.width)))
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// describe summarizes an event for the status bar.
func (m *Model) describe(ev calendar.Event) string {
	start := ev.Start.In(calendar.Zone)
	end := ev.End.In(calendar.Zone)
	if ev.AllDay {
		last := calendar.LastDayOf(ev).In(calendar.Zone)
		if ev.SpanDays() > 1 {
			return fmt.Sprintf("%s  %s - %s", titleOf(ev), start.Format(m.config.DateFormat), last.Format(m.config.DateFormat))
		}
		return fmt.Sprintf("%s  %s, all day", titleOf(ev), start.Format(m.config.DateFormat))
	}
	endFormat := m.config.TimeFormat
	if ev.IsMultiDay() {
		endFormat = m.config.DateFormat + " " + m.config.TimeFormat
	}
	return fmt.Sprintf("%s  %s %s - %s", titleOf(ev), start.Format(m.config.DateFormat), start.Format(m.config.TimeFormat), end.Format(endFormat))
}

func (m *Model) viewHelp() string {
	lines := []string{
		m.styles.Header.Render("skuld help"),
		"",
		m.styles.Normal.Render("Mouse:"),
		m.styles.Status.Render("  drag on empty time     - create event"),
		m.styles.Status.Render("  drag in the all-day row - create all-day event"),
		m.styles.Status.Render("  drag event             - move"),
		m.styles.Status.Render("  drag top/bottom edge   - resize"),
		m.styles.Status.Render("  double-click event     - edit title"),
		m.styles.Status.Render("  wheel                  - scroll"),
		"",
		m.styles.Normal.Render("Keys:"),
		m.help.FullHelpView(m.keys.FullHelp()),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}
