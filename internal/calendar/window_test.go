package calendar

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	monday := time.Date(2025, 8, 25, 0, 0, 0, 0, Zone)

	tests := []struct {
		name string
		now  time.Time
	}{
		{"Monday morning", time.Date(2025, 8, 25, 0, 5, 0, 0, Zone)},
		{"Wednesday noon", time.Date(2025, 8, 27, 12, 0, 0, 0, Zone)},
		{"Sunday late", time.Date(2025, 8, 31, 23, 59, 0, 0, Zone)},
		{"UTC instant still Sunday locally", time.Date(2025, 8, 31, 20, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStart(tt.now); !got.Equal(monday) {
				t.Errorf("WeekStart(%v) = %v, want %v", tt.now, got.In(Zone), monday)
			}
		})
	}

	// 21:00 UTC on Sunday is already Monday 00:00 locally
	next := time.Date(2025, 8, 31, 21, 0, 0, 0, time.UTC)
	if got := WeekStart(next); !got.Equal(monday.AddDate(0, 0, 7)) {
		t.Errorf("WeekStart(%v) = %v, want next Monday", next, got.In(Zone))
	}
}

func TestWeekAnchor(t *testing.T) {
	now := time.Date(2025, 8, 27, 12, 0, 0, 0, Zone)
	monday := time.Date(2025, 8, 25, 0, 0, 0, 0, Zone)

	for _, offset := range []int{-2, -1, 0, 1, 5} {
		want := monday.AddDate(0, 0, 7*offset)
		if got := WeekAnchor(now, offset); !got.Equal(want) {
			t.Errorf("WeekAnchor(offset %d) = %v, want %v", offset, got.In(Zone), want)
		}
	}
}

func TestWeekDays(t *testing.T) {
	anchor := WeekStart(time.Date(2025, 8, 27, 12, 0, 0, 0, Zone))
	days := WeekDays(anchor)

	if len(days) != DaysPerWeek {
		t.Fatalf("Expected %d days, got %d", DaysPerWeek, len(days))
	}
	if days[0].Label != "Mon 25" {
		t.Errorf("First label = %q, want %q", days[0].Label, "Mon 25")
	}
	if days[6].Label != "Sun 31" {
		t.Errorf("Last label = %q, want %q", days[6].Label, "Sun 31")
	}
	for i, d := range days {
		if d.Index != i {
			t.Errorf("days[%d].Index = %d", i, d.Index)
		}
		if i > 0 && DaysBetween(days[i-1].Bucket, d.Bucket) != 1 {
			t.Errorf("days[%d] is not the day after days[%d]", i, i-1)
		}
	}
}

func TestVisibleDays(t *testing.T) {
	mon := time.Date(2025, 8, 25, 9, 0, 0, 0, Zone)
	wed := time.Date(2025, 8, 27, 9, 0, 0, 0, Zone)
	sun := time.Date(2025, 8, 31, 9, 0, 0, 0, Zone)

	tests := []struct {
		name     string
		now      time.Time
		offset   int
		count    int
		expected []int
	}{
		{"whole week", wed, 0, 7, []int{0, 1, 2, 3, 4, 5, 6}},
		{"single day is today", wed, 0, 1, []int{2}},
		{"three days centered", wed, 0, 3, []int{1, 2, 3}},
		{"three days clamped at Monday", mon, 0, 3, []int{0, 1, 2}},
		{"three days clamped at Sunday", sun, 0, 3, []int{4, 5, 6}},
		{"other week keeps today's position", wed, -1, 3, []int{1, 2, 3}},
		{"unsupported count shows week", wed, 0, 4, []int{0, 1, 2, 3, 4, 5, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := VisibleDays(tt.now, tt.offset, tt.count)
			if len(days) != len(tt.expected) {
				t.Fatalf("Expected %d days, got %d", len(tt.expected), len(days))
			}
			anchor := WeekAnchor(tt.now, tt.offset)
			for i, d := range days {
				if d.Index != tt.expected[i] {
					t.Errorf("days[%d].Index = %d, want %d", i, d.Index, tt.expected[i])
				}
				if !d.Bucket.Equal(AddDays(anchor, d.Index)) {
					t.Errorf("days[%d].Bucket = %v, not anchored to %v", i, d.Bucket, anchor)
				}
			}
		})
	}
}

func TestDayCountForWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{20, 1},
		{59, 1},
		{60, 3},
		{109, 3},
		{110, 7},
		{200, 7},
	}

	for _, tt := range tests {
		if got := DayCountForWidth(tt.width); got != tt.want {
			t.Errorf("DayCountForWidth(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}
