package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cwarden/skuld/internal/calendar"
)

// DefaultDuration is the length of a timed entry that gives only a start.
const DefaultDuration = time.Hour

var (
	ErrEmpty      = errors.New("empty input")
	ErrEndOfRange = errors.New("end of time range is not after its start")
)

var (
	weekdayRe   = regexp.MustCompile(`^(?:(next|this)\s+)?(mon|monday|tue|tues|tuesday|wed|wednesday|thu|thurs|thursday|fri|friday|sat|saturday|sun|sunday)\b`)
	inRe        = regexp.MustCompile(`^in\s+(\d+)\s+(day|days|week|weeks|month|months)\b`)
	fromNowRe   = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months)\s+from\s+(?:now|today)\b`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	monthDayRe  = regexp.MustCompile(`^(jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december)\s+(\d{1,2})(?:,?\s+(\d{4}))?\b`)
	rangeRe     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*-\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	clockRe     = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	durationRe  = regexp.MustCompile(`^for\s+(\d+h(?:\d+m)?|\d+m)\b`)
)

var namedTimes = []struct {
	name string
	hour int
}{
	{"noon", 12},
	{"midnight", 0},
	{"morning", 9},
	{"afternoon", 14},
	{"evening", 18},
	{"night", 21},
}

// Parser turns quick-add text such as "tomorrow 2pm-3:30pm dentist" into a
// calendar event. Dates are resolved against the calendar zone.
type Parser struct {
	now time.Time
}

func New(now time.Time) *Parser {
	return &Parser{now: now}
}

func (p *Parser) SetNow(now time.Time) {
	p.now = now
}

// Parse reads an optional date, an optional time or time range, an optional
// "for <duration>" and takes the rest as the title. Without a date the
// entry is for today; without a time it is an all-day event.
func (p *Parser) Parse(input string) (calendar.Event, error) {
	rest := strings.TrimSpace(input)
	if rest == "" {
		return calendar.Event{}, ErrEmpty
	}

	day, rest, ok := p.relativeDate(rest)
	if !ok {
		day, rest, ok = p.absoluteDate(rest)
	}
	if !ok {
		day = calendar.DayOf(p.now)
	}

	rest = strings.TrimSpace(strings.TrimPrefix(rest, "at "))
	start, end, rest, timed, err := parseClock(rest)
	if err != nil {
		return calendar.Event{}, err
	}

	if m := durationRe.FindStringSubmatch(strings.ToLower(rest)); m != nil && timed {
		d, err := time.ParseDuration(m[1])
		if err != nil {
			return calendar.Event{}, fmt.Errorf("invalid duration %q: %w", m[1], err)
		}
		end = start + int(d/time.Minute)
		rest = strings.TrimSpace(rest[len(m[0]):])
	}

	ev := calendar.Event{Title: rest}
	if !timed {
		ev.AllDay = true
		ev.Start = day
		ev.End = calendar.AddDays(day, 1)
		return ev, nil
	}

	if end < 0 {
		end = start + int(DefaultDuration/time.Minute)
	}
	if end <= start {
		return calendar.Event{}, ErrEndOfRange
	}
	ev.Start = calendar.At(day, start)
	ev.End = calendar.At(day, end)
	return ev, nil
}

func (p *Parser) relativeDate(input string) (time.Time, string, bool) {
	lower := strings.ToLower(input)
	today := calendar.DayOf(p.now)

	for _, w := range []struct {
		word string
		days int
	}{{"today", 0}, {"tomorrow", 1}, {"tmrw", 1}, {"yesterday", -1}} {
		if lower == w.word || strings.HasPrefix(lower, w.word+" ") {
			return calendar.AddDays(today, w.days), strings.TrimSpace(input[len(w.word):]), true
		}
	}

	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		ahead := int(weekday(m[2])) - int(p.now.In(calendar.Zone).Weekday())
		// "next" never means today; a bare or "this" weekday may
		if ahead < 0 || (ahead == 0 && m[1] == "next") {
			ahead += 7
		}
		return calendar.AddDays(today, ahead), strings.TrimSpace(input[len(m[0]):]), true
	}

	for _, re := range []*regexp.Regexp{inRe, fromNowRe} {
		if m := re.FindStringSubmatch(lower); m != nil {
			n, _ := strconv.Atoi(m[1])
			return addUnit(today, n, m[2]), strings.TrimSpace(input[len(m[0]):]), true
		}
	}

	return time.Time{}, input, false
}

func (p *Parser) absoluteDate(input string) (time.Time, string, bool) {
	lower := strings.ToLower(input)
	year := p.now.In(calendar.Zone).Year()

	var (
		y, d  int
		month time.Month
		m     []string
	)
	switch {
	case isoDateRe.MatchString(lower):
		m = isoDateRe.FindStringSubmatch(lower)
		y, _ = strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		month = time.Month(mo)
		d, _ = strconv.Atoi(m[3])
	case slashDateRe.MatchString(lower):
		m = slashDateRe.FindStringSubmatch(lower)
		mo, _ := strconv.Atoi(m[1])
		month = time.Month(mo)
		d, _ = strconv.Atoi(m[2])
		y = year
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
		}
	case monthDayRe.MatchString(lower):
		m = monthDayRe.FindStringSubmatch(lower)
		month = monthOf(m[1])
		d, _ = strconv.Atoi(m[2])
		y = year
		if m[3] != "" {
			y, _ = strconv.Atoi(m[3])
		}
	default:
		return time.Time{}, input, false
	}

	if month < time.January || month > time.December || d < 1 || d > 31 {
		return time.Time{}, input, false
	}
	date := time.Date(y, month, d, 0, 0, 0, 0, calendar.Zone)
	if date.Day() != d {
		// Feb 30 and friends
		return time.Time{}, input, false
	}
	return date.UTC(), strings.TrimSpace(input[len(m[0]):]), true
}

// parseClock reads a time or time range as minutes of the day. end is -1
// when only a start was given.
func parseClock(input string) (start, end int, rest string, ok bool, err error) {
	lower := strings.ToLower(input)

	if m := rangeRe.FindStringSubmatch(lower); m != nil {
		// "2-4pm" means both ends are pm
		startMeridiem := m[3]
		if startMeridiem == "" {
			startMeridiem = m[6]
		}
		if start, err = clockMinute(m[1], m[2], startMeridiem); err != nil {
			return 0, 0, input, false, err
		}
		if end, err = clockMinute(m[4], m[5], m[6]); err != nil {
			return 0, 0, input, false, err
		}
		if end == 0 {
			end = calendar.MinutesPerDay
		}
		return start, end, strings.TrimSpace(input[len(m[0]):]), true, nil
	}

	if m := clockRe.FindStringSubmatch(lower); m != nil {
		// A bare number is only a time with a colon or meridiem
		if m[2] != "" || m[3] != "" {
			if start, err = clockMinute(m[1], m[2], m[3]); err != nil {
				return 0, 0, input, false, err
			}
			return start, -1, strings.TrimSpace(input[len(m[0]):]), true, nil
		}
	}

	for _, nt := range namedTimes {
		if lower == nt.name || strings.HasPrefix(lower, nt.name+" ") {
			return nt.hour * 60, -1, strings.TrimSpace(input[len(nt.name):]), true, nil
		}
	}

	return 0, 0, input, false, nil
}

func clockMinute(hour, minute, meridiem string) (int, error) {
	h, _ := strconv.Atoi(hour)
	mins := 0
	if minute != "" {
		mins, _ = strconv.Atoi(minute)
	}
	switch meridiem {
	case "am":
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("invalid hour %d%s", h, meridiem)
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return 0, fmt.Errorf("invalid hour %d%s", h, meridiem)
		}
		if h < 12 {
			h += 12
		}
	}
	if h > 23 || mins > 59 {
		return 0, fmt.Errorf("invalid time %s:%02d", hour, mins)
	}
	return h*60 + mins, nil
}

func addUnit(day time.Time, n int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "day"):
		return calendar.AddDays(day, n)
	case strings.HasPrefix(unit, "week"):
		return calendar.AddDays(day, n*calendar.DaysPerWeek)
	default:
		return calendar.DayOf(day.In(calendar.Zone).AddDate(0, n, 0))
	}
}

func weekday(s string) time.Weekday {
	switch s[:3] {
	case "mon":
		return time.Monday
	case "tue":
		return time.Tuesday
	case "wed":
		return time.Wednesday
	case "thu":
		return time.Thursday
	case "fri":
		return time.Friday
	case "sat":
		return time.Saturday
	default:
		return time.Sunday
	}
}

func monthOf(s string) time.Month {
	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), s[:3]) {
			return m
		}
	}
	return time.January
}
