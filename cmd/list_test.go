package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/config"
)

func TestPrintWeek(t *testing.T) {
	cfg = config.DefaultConfig()
	defer func() { cfg = nil }()

	at := func(day, hour int) time.Time {
		return time.Date(2025, 8, day, hour, 0, 0, 0, calendar.Zone).UTC()
	}
	anchor := calendar.WeekStart(at(27, 12))

	events := []calendar.Event{
		{ID: "a", Title: "Standup", Start: at(25, 9), End: at(25, 10)},
		{ID: "b", Title: "Offsite", Start: at(27, 0), End: at(29, 0), AllDay: true},
		{ID: "c", Start: at(30, 22), End: at(31, 2)},
	}

	var buf bytes.Buffer
	printWeek(&buf, anchor, events)
	got := buf.String()

	want := []string{
		"Week of Mon Aug 25:",
		"Mon Aug 25\n  09:00-10:00 - Standup",
		"Wed Aug 27\n  All day - Offsite",
		"Thu Aug 28\n  All day - Offsite",
		"Sat Aug 30\n  22:00-00:00 - (untitled)",
		"Sun Aug 31\n  00:00-02:00 - (untitled)",
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Errorf("Expected output to contain %q, got:\n%s", w, got)
		}
	}
	if strings.Contains(got, "Fri Aug 29") {
		t.Errorf("Offsite should end before Friday, got:\n%s", got)
	}
}

func TestPrintWeekEmpty(t *testing.T) {
	cfg = config.DefaultConfig()
	defer func() { cfg = nil }()

	var buf bytes.Buffer
	printWeek(&buf, calendar.WeekStart(time.Now()), nil)
	if !strings.Contains(buf.String(), "No events found.") {
		t.Errorf("Expected empty notice, got %q", buf.String())
	}
}
