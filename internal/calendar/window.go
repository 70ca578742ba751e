package calendar

import "time"

// DaysPerWeek is the number of day buckets in a week.
const DaysPerWeek = 7

// Day is one visible day column.
type Day struct {
	Index  int       // 0 (Monday) .. 6 (Sunday) within the anchored week
	Bucket time.Time // local midnight as a UTC instant
	Label  string
}

// WeekStart returns the bucket of the Monday of the week containing now.
func WeekStart(now time.Time) time.Time {
	today := DayOf(now)
	return AddDays(today, -WeekdayIndex(now))
}

// WeekAnchor returns the Monday bucket offset by whole weeks from the
// current week.
func WeekAnchor(now time.Time, weekOffset int) time.Time {
	return AddDays(WeekStart(now), weekOffset*DaysPerWeek)
}

// WeekdayIndex returns the local weekday of t with Monday = 0.
func WeekdayIndex(t time.Time) int {
	wd := int(t.In(Zone).Weekday())
	if wd == 0 {
		wd = 7 // Sunday -> 7
	}
	return wd - 1
}

// WeekDays returns the seven buckets of the week starting at anchor.
func WeekDays(anchor time.Time) []Day {
	days := make([]Day, DaysPerWeek)
	for i := range days {
		bucket := AddDays(anchor, i)
		days[i] = Day{
			Index:  i,
			Bucket: bucket,
			Label:  bucket.In(Zone).Format("Mon 02"),
		}
	}
	return days
}

// VisibleDays returns the dayCount-wide window of the anchored week, centered
// on today's weekday and kept inside the week. Unsupported counts fall back
// to the whole week.
func VisibleDays(now time.Time, weekOffset, dayCount int) []Day {
	days := WeekDays(WeekAnchor(now, weekOffset))

	switch dayCount {
	case 1, 3, 7:
	default:
		dayCount = DaysPerWeek
	}

	start := WeekdayIndex(now) - dayCount/2
	if start < 0 {
		start = 0
	}
	if start > DaysPerWeek-dayCount {
		start = DaysPerWeek - dayCount
	}
	return days[start : start+dayCount]
}

// DayCountForWidth picks the responsive day count for a grid of the given
// width in cells.
func DayCountForWidth(width int) int {
	switch {
	case width >= 110:
		return 7
	case width >= 60:
		return 3
	default:
		return 1
	}
}
