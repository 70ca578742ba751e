package store

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/cwarden/skuld/internal/calendar"
	"github.com/cwarden/skuld/internal/log"
)

const (
	productID = "-//skuld//calendar//EN"

	icsDate     = "20060102"
	icsUTC      = "20060102T150405Z"
	icsDateTime = "20060102T150405"

	defaultMaxOccurrences = 500
)

// ImportOptions bounds the expansion of recurring events.
type ImportOptions struct {
	From time.Time
	To   time.Time
	// MaxOccurrences caps the instances kept per recurring event.
	MaxOccurrences int
}

// ReadICS parses an iCalendar stream. Recurring events are expanded into
// one event per occurrence in [opts.From, opts.To). Events that cannot be
// read are logged and skipped.
func ReadICS(r io.Reader, opts ImportOptions, logger *log.Logger) ([]calendar.Event, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}
	if opts.MaxOccurrences <= 0 {
		opts.MaxOccurrences = defaultMaxOccurrences
	}

	var events []calendar.Event
	for _, ve := range cal.Events() {
		base, rule, exdates, err := readVEvent(ve)
		if err != nil {
			logger.Warnf("skipping VEVENT: %v", err)
			continue
		}
		if rule == "" {
			events = append(events, base)
			continue
		}

		occurrences, err := expand(base, rule, exdates, opts)
		if err != nil {
			logger.Warnf("skipping recurring %s: %v", base.ID, err)
			continue
		}
		events = append(events, occurrences...)
	}

	logger.Infof("read %d events from calendar", len(events))
	return events, nil
}

func readVEvent(ve *ical.VEvent) (calendar.Event, string, []time.Time, error) {
	var ev calendar.Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, "", nil, errors.New("missing UID")
	}
	ev.ID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Title = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return ev, "", nil, fmt.Errorf("%s: missing DTSTART", ev.ID)
	}
	ev.AllDay = isDateValue(dtstart)

	if ev.AllDay {
		start, err := parseDate(dtstart.Value)
		if err != nil {
			return ev, "", nil, fmt.Errorf("%s: %w", ev.ID, err)
		}
		ev.Start = start
		ev.End = calendar.AddDays(start, 1)
		if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
			if end, err := parseDate(dtend.Value); err == nil && end.After(start) {
				ev.End = end
			}
		}
	} else {
		start, err := ve.GetStartAt()
		if err != nil {
			return ev, "", nil, fmt.Errorf("%s: bad DTSTART: %w", ev.ID, err)
		}
		end, err := ve.GetEndAt()
		if err != nil {
			return ev, "", nil, fmt.Errorf("%s: bad DTEND: %w", ev.ID, err)
		}
		ev.Start = start.UTC()
		ev.End = end.UTC()
	}

	if !ev.Valid() {
		return ev, "", nil, fmt.Errorf("%s: %w", ev.ID, ErrInvalidEvent)
	}

	var rule string
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rule = p.Value
	}

	var exdates []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(strings.TrimSpace(part)); err == nil {
				exdates = append(exdates, t)
			}
		}
	}

	return ev, rule, exdates, nil
}

// expand turns a recurring event into concrete events with ids derived from
// the UID and the occurrence start.
func expand(base calendar.Event, rule string, exdates []time.Time, opts ImportOptions) ([]calendar.Event, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, err
	}

	// Recur in local wall-clock time so occurrences keep their minute of day.
	r.DTStart(base.Start.In(calendar.Zone))

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(ex.In(calendar.Zone))
	}

	duration := base.Duration()
	var out []calendar.Event
	for _, start := range set.Between(opts.From, opts.To, true) {
		if len(out) == opts.MaxOccurrences {
			break
		}
		ev := base
		ev.ID = base.ID + "/" + start.UTC().Format(icsUTC)
		ev.Start = start.UTC()
		ev.End = ev.Start.Add(duration)
		out = append(out, ev)
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// parseDate reads a DATE value as local midnight in the calendar zone.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) < len(icsDate) {
		return time.Time{}, fmt.Errorf("bad date %q", v)
	}
	t, err := time.ParseInLocation(icsDate, v[:len(icsDate)], calendar.Zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseICSTime reads a DATE or DATE-TIME value without parameters. Floating
// times are taken in the calendar zone.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsUTC, v)
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation(icsDateTime, v, calendar.Zone)
		return t.UTC(), err
	default:
		return parseDate(v)
	}
}

// WriteICS writes events as an iCalendar document.
func WriteICS(w io.Writer, events []calendar.Event, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, ev := range events {
		if ev.IsDraft() {
			continue
		}
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Title)
		if ev.AllDay {
			first := calendar.DayOf(ev.Start)
			next := calendar.AddDays(calendar.LastDayOf(ev), 1)
			ve.SetAllDayStartAt(first.In(calendar.Zone))
			ve.SetAllDayEndAt(next.In(calendar.Zone))
			continue
		}
		ve.SetStartAt(ev.Start.UTC())
		ve.SetEndAt(ev.End.UTC())
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
