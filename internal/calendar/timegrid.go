package calendar

import (
	"math"
	"time"
)

const (
	// SlotMinutes is the snapping granularity of the grid.
	SlotMinutes = 15
	// MinutesPerDay is 24 hours * 60 minutes.
	MinutesPerDay = 1440
	// DefaultHourHeight is the height of one hour in pixels.
	DefaultHourHeight = 48.0

	day = 24 * time.Hour
)

// Zone is the fixed local zone of the calendar (UTC+3, no DST).
var Zone = time.FixedZone("UTC+3", 3*60*60)

// Scale converts between minutes of the day and vertical pixel offsets.
type Scale struct {
	HourHeight float64
}

// DefaultScale returns a Scale using DefaultHourHeight.
func DefaultScale() Scale {
	return Scale{HourHeight: DefaultHourHeight}
}

// Pixels returns the pixel offset of minute m.
func (s Scale) Pixels(m float64) float64 {
	return m / 60 * s.HourHeight
}

// Minutes returns the minute of the day at pixel offset y.
func (s Scale) Minutes(y float64) float64 {
	if s.HourHeight == 0 {
		return 0
	}
	return y / s.HourHeight * 60
}

// DayHeight is the pixel height of a whole day.
func (s Scale) DayHeight() float64 {
	return s.Pixels(MinutesPerDay)
}

// SnapToSlot rounds m to the nearest slot boundary.
func SnapToSlot(m float64) int {
	return int(math.Round(m/SlotMinutes)) * SlotMinutes
}

// FloorToSlot returns the start of the slot containing m.
func FloorToSlot(m float64) int {
	return int(math.Floor(m/SlotMinutes)) * SlotMinutes
}

// ClampMinute limits m to [0, MinutesPerDay].
func ClampMinute(m int) int {
	if m < 0 {
		return 0
	}
	if m > MinutesPerDay {
		return MinutesPerDay
	}
	return m
}

// DayOf returns the day bucket of t: the UTC instant of local midnight.
func DayOf(t time.Time) time.Time {
	local := t.In(Zone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Zone)
	return midnight.UTC()
}

// LastDayOf returns the bucket of the last day the event occupies. An end
// instant exactly on midnight belongs to the previous day.
func LastDayOf(e Event) time.Time {
	if !e.End.After(e.Start) {
		return DayOf(e.Start)
	}
	return DayOf(e.End.Add(-time.Nanosecond))
}

// MinuteOfDay returns the local minute of the day of t, clamped to [0,1440].
func MinuteOfDay(t time.Time) int {
	return MinutesFrom(DayOf(t), t)
}

// MinutesFrom returns the minutes between the bucket and t, clamped to
// [0,1440].
func MinutesFrom(bucket, t time.Time) int {
	return ClampMinute(int(t.Sub(bucket) / time.Minute))
}

// At returns the instant m minutes after the bucket.
func At(bucket time.Time, m int) time.Time {
	return bucket.Add(time.Duration(m) * time.Minute)
}

// AddDays shifts a bucket or instant by whole days.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}

// DaysBetween returns the whole days from bucket a to bucket b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
