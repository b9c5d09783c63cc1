package calendar

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/dalbo/briefingbot/internal/logging"
)

// ParsedEvent is the normalized form of a VEVENT component. Recurrence
// expansion operates on this type; it is never exposed past this package.
type ParsedEvent struct {
	Source Source

	UID string

	Summary     string
	Description string
	Location    string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time

	// RecurrenceID is set when this component overrides one occurrence of
	// a series with the same UID; IsOverride marks it so top-level
	// expansion skips it as a standalone event.
	RecurrenceID *time.Time
	IsOverride   bool
}

// Parse parses one ICS payload into a list of ParsedEvent. A component
// that cannot be normalized is logged and skipped; its siblings are still
// returned.
func Parse(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("calendar: empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(src, comp)
		if perr != nil {
			logging.Error("calendar: skipping malformed event", perr, "source", src.ID)
			continue
		}
		events = append(events, ev)
	}

	logging.Debug("calendar: parsed source", "source", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	out := ParsedEvent{Source: src, Summary: DefaultSummary}

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, errors.New("missing or unparseable DTSTART")
	}
	out.Start = start

	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else {
		out.End = start
	}

	out.AllDay = isAllDay(ve)
	if out.AllDay {
		// Normalize to [date 00:00, next date 00:00) in the event's zone.
		out.Start = truncateToDate(out.Start)
		if out.End.Equal(start) || out.End.Before(out.Start.Add(24*time.Hour)) {
			out.End = out.Start.Add(24 * time.Hour)
		} else {
			out.End = truncateToDate(out.End)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, perr := parseICSTime(part, out.Start.Location())
			if perr != nil {
				logging.Error("calendar: unparseable EXDATE, ignoring", perr, "uid", out.UID, "value", part)
				continue
			}
			out.ExDates = append(out.ExDates, t)
		}
	}

	// Raw property name: constant naming for RECURRENCE-ID varies across
	// library versions.
	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, perr := parseICSTime(p.Value, out.Start.Location())
		if perr != nil {
			return out, errors.New("unparseable RECURRENCE-ID")
		}
		out.RecurrenceID = &t
		out.IsOverride = true
	}

	return out, nil
}

// isAllDay detects VALUE=DATE starts or date-only DTSTART values.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseICSTime parses the basic ICS date / date-time forms used by EXDATE
// and RECURRENCE-ID. Floating (no suffix) values are interpreted in loc,
// the zone of the event's own DTSTART.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
