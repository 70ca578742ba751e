package calendar

import (
	"sort"
	"time"
)

// Segment is the part of a timed event drawn in one day column.
type Segment struct {
	Event    Event
	Day      time.Time // bucket of the column
	DayIndex int       // days from the week anchor
	Top      int       // minute of the day the segment starts
	End      int       // minute of the day the segment ends (<= 1440)
	IsFirst  bool
	IsLast   bool

	// Side-by-side placement among overlapping segments of the same day.
	Column  int
	Columns int
}

// Minutes returns the segment length in minutes.
func (s Segment) Minutes() int {
	return s.End - s.Top
}

// Resizable reports whether the segment exposes resize handles. Only
// single-day events do.
func (s Segment) Resizable() bool {
	return s.IsFirst && s.IsLast
}

// AllDayPlacement is an all-day event clamped to the visible week.
type AllDayPlacement struct {
	Event         Event
	StartDayIndex int
	EndDayIndex   int
	SpanDays      int
	Row           int
}

// Covers reports whether the placement occupies the given day index.
func (p AllDayPlacement) Covers(dayIndex int) bool {
	return dayIndex >= p.StartDayIndex && dayIndex <= p.EndDayIndex
}

// Layout is the render projection of a week of events.
type Layout struct {
	Anchor     time.Time
	AllDay     []AllDayPlacement
	Timed      []Segment
	AllDayRows int
}

// SegmentsOn returns the timed segments drawn on the given day index.
func (l Layout) SegmentsOn(dayIndex int) []Segment {
	var out []Segment
	for _, s := range l.Timed {
		if s.DayIndex == dayIndex {
			out = append(out, s)
		}
	}
	return out
}

// Segments splits a timed event into one segment per calendar day it
// touches. DayIndex is relative to anchor and may fall outside the week.
func Segments(e Event, anchor time.Time) []Segment {
	if !e.Valid() {
		return nil
	}

	first := DayOf(e.Start)
	last := LastDayOf(e)
	n := DaysBetween(first, last) + 1

	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		bucket := AddDays(first, i)
		seg := Segment{
			Event:    e,
			Day:      bucket,
			DayIndex: DaysBetween(anchor, bucket),
			Top:      0,
			End:      MinutesPerDay,
			IsFirst:  i == 0,
			IsLast:   i == n-1,
			Columns:  1,
		}
		if seg.IsFirst {
			seg.Top = MinutesFrom(bucket, e.Start)
		}
		if seg.IsLast {
			seg.End = MinutesFrom(bucket, e.End)
		}
		segments = append(segments, seg)
	}
	return segments
}

// Resolve partitions events into all-day placements and timed segments for
// the week starting at anchor. Multi-day timed events stay timed.
func Resolve(events []Event, anchor time.Time) Layout {
	layout := Layout{Anchor: anchor}

	for _, e := range events {
		if !e.Valid() {
			continue
		}

		if e.AllDay {
			start := DaysBetween(anchor, DayOf(e.Start))
			end := DaysBetween(anchor, LastDayOf(e))
			if end < 0 || start >= DaysPerWeek {
				continue
			}
			if start < 0 {
				start = 0
			}
			if end > DaysPerWeek-1 {
				end = DaysPerWeek - 1
			}
			layout.AllDay = append(layout.AllDay, AllDayPlacement{
				Event:         e,
				StartDayIndex: start,
				EndDayIndex:   end,
				SpanDays:      end - start + 1,
			})
			continue
		}

		for _, seg := range Segments(e, anchor) {
			if seg.DayIndex < 0 || seg.DayIndex >= DaysPerWeek {
				continue
			}
			layout.Timed = append(layout.Timed, seg)
		}
	}

	layout.AllDayRows = stackAllDay(layout.AllDay)

	// Sort timed segments by day, then start, then longer first
	sort.SliceStable(layout.Timed, func(i, j int) bool {
		a, b := layout.Timed[i], layout.Timed[j]
		if a.DayIndex != b.DayIndex {
			return a.DayIndex < b.DayIndex
		}
		if a.Top != b.Top {
			return a.Top < b.Top
		}
		return a.End > b.End
	})
	for start := 0; start < len(layout.Timed); {
		end := start
		for end < len(layout.Timed) && layout.Timed[end].DayIndex == layout.Timed[start].DayIndex {
			end++
		}
		assignColumns(layout.Timed[start:end])
		start = end
	}

	return layout
}

// assignColumns places overlapping segments of one day side by side. Each
// segment takes the first column that is free at its start; every segment in
// a cluster of overlapping segments shares the cluster's column count.
func assignColumns(segs []Segment) {
	var columnEnds []int
	clusterStart := 0
	clusterEnd := -1

	finish := func(to int) {
		for i := clusterStart; i < to; i++ {
			segs[i].Columns = len(columnEnds)
		}
	}

	for i := range segs {
		s := &segs[i]
		if i > 0 && s.Top >= clusterEnd {
			finish(i)
			columnEnds = nil
			clusterStart = i
		}

		column := -1
		for c, end := range columnEnds {
			if end <= s.Top {
				column = c
				break
			}
		}
		if column < 0 {
			column = len(columnEnds)
			columnEnds = append(columnEnds, s.End)
		} else {
			columnEnds[column] = s.End
		}
		s.Column = column

		if s.End > clusterEnd {
			clusterEnd = s.End
		}
	}
	finish(len(segs))
}

// stackAllDay assigns each placement the first row free across its span and
// returns the number of rows used.
func stackAllDay(placements []AllDayPlacement) int {
	order := make([]int, len(placements))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := placements[order[i]], placements[order[j]]
		if a.StartDayIndex != b.StartDayIndex {
			return a.StartDayIndex < b.StartDayIndex
		}
		return a.SpanDays > b.SpanDays
	})

	var rows [][DaysPerWeek]bool
	for _, idx := range order {
		p := &placements[idx]
		row := 0
		for ; row < len(rows); row++ {
			free := true
			for d := p.StartDayIndex; d <= p.EndDayIndex; d++ {
				if rows[row][d] {
					free = false
					break
				}
			}
			if free {
				break
			}
		}
		if row == len(rows) {
			rows = append(rows, [DaysPerWeek]bool{})
		}
		for d := p.StartDayIndex; d <= p.EndDayIndex; d++ {
			rows[row][d] = true
		}
		p.Row = row
	}
	return len(rows)
}
