package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/dalbo/briefingbot/internal/logging"
)

// defaultMaxIterations bounds how many occurrences are pulled from a
// single series. Pathological or unbounded rules stop here; whatever was
// collected so far is still returned.
const defaultMaxIterations = 1000

// OccurrenceIterator yields successive occurrence start times of one
// series in ascending order, with cancellations (EXDATE) already removed.
// The recurrence engine sits behind this interface so expansion logic
// never touches RRULE grammar directly.
type OccurrenceIterator interface {
	Next() (time.Time, bool)
}

// IteratorFactory builds an OccurrenceIterator for a recurring ParsedEvent.
type IteratorFactory func(ev ParsedEvent) (OccurrenceIterator, error)

// Expander turns parsed events into concrete occurrences inside a closed
// time window.
type Expander struct {
	maxIterations int
	newIterator   IteratorFactory
}

// NewExpander builds an Expander with the rrule-backed iterator and the
// default iteration ceiling.
func NewExpander() *Expander {
	return &Expander{
		maxIterations: defaultMaxIterations,
		newIterator:   newRRuleIterator,
	}
}

// NewExpanderWith overrides the iterator factory and ceiling; a zero
// ceiling keeps the default. Used by tests and by any future recurrence
// engine swap.
func NewExpanderWith(factory IteratorFactory, maxIterations int) *Expander {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	return &Expander{maxIterations: maxIterations, newIterator: factory}
}

// Expand produces the occurrences of all given events whose start falls
// inside [rangeStart, rangeEnd], ordered per series. Override components
// substitute their fields for the occurrence they modify and are never
// emitted as standalone events. A malformed series is logged and skipped;
// its siblings are still expanded.
func (x *Expander) Expand(events []ParsedEvent, rangeStart, rangeEnd time.Time) []Event {
	// Overrides grouped by series UID; applied while walking the series
	// so they are consumed exactly once.
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	out := make([]Event, 0)
	for _, ev := range events {
		if ev.IsOverride {
			// Already applied through the series walk above.
			continue
		}
		if ev.RawRRule == "" {
			if occ, ok := x.expandSingle(ev, overrides[ev.UID], rangeStart, rangeEnd); ok {
				out = append(out, occ)
			}
			continue
		}
		out = append(out, x.expandSeries(ev, overrides[ev.UID], rangeStart, rangeEnd)...)
	}
	return out
}

// expandSingle maps a non-recurring event directly, subject to the same
// window check on its start.
func (x *Expander) expandSingle(ev ParsedEvent, overrides []ParsedEvent, rangeStart, rangeEnd time.Time) (Event, bool) {
	start, end, src := ev.Start, ev.End, ev
	if ov, ok := overrideFor(overrides, ev.Start); ok {
		start, end, src = ov.Start, ov.End, ov
	}
	if start.Before(rangeStart) || start.After(rangeEnd) {
		return Event{}, false
	}
	return Event{
		ID:          ev.UID,
		SourceID:    ev.Source.ID,
		Summary:     src.Summary,
		Description: src.Description,
		Location:    src.Location,
		Start:       start,
		End:         end,
		AllDay:      src.AllDay,
	}, true
}

// expandSeries pulls occurrences one at a time. Starts are monotonically
// increasing, so the walk stops at the first occurrence past rangeEnd;
// the iteration ceiling covers rules that never reach it.
func (x *Expander) expandSeries(ev ParsedEvent, overrides []ParsedEvent, rangeStart, rangeEnd time.Time) []Event {
	out := make([]Event, 0)

	iter, err := x.newIterator(ev)
	if err != nil {
		logging.Error("calendar: skipping series with bad recurrence rule", err,
			"uid", ev.UID, "rrule", ev.RawRRule)
		return out
	}

	duration := ev.End.Sub(ev.Start)

	for i := 0; ; i++ {
		if i >= x.maxIterations {
			logging.Warn("calendar: series expansion hit iteration ceiling, returning partial",
				"uid", ev.UID, "ceiling", x.maxIterations, "collected", len(out))
			break
		}

		occStart, ok := iter.Next()
		if !ok {
			break
		}
		if occStart.After(rangeEnd) {
			break
		}
		if occStart.Before(rangeStart) {
			continue
		}

		occ := Event{
			ID:          OccurrenceID(ev.UID, occStart),
			SourceID:    ev.Source.ID,
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			Start:       occStart,
			End:         occStart.Add(duration),
			AllDay:      ev.AllDay,
		}
		if ev.AllDay {
			day := truncateToDate(occStart)
			occ.Start = day
			occ.End = day.Add(24 * time.Hour)
		}

		// An override replaces this occurrence's time and content while
		// the id keeps pointing at the occurrence it modifies.
		if ov, ok := overrideFor(overrides, occStart); ok {
			occ.Summary = ov.Summary
			occ.Description = ov.Description
			occ.Location = ov.Location
			occ.Start = ov.Start
			occ.End = ov.End
			occ.AllDay = ov.AllDay
		}

		out = append(out, occ)
	}

	return out
}

// overrideFor finds the override whose RECURRENCE-ID matches the given
// occurrence start.
func overrideFor(overrides []ParsedEvent, occStart time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.RecurrenceID != nil && ov.RecurrenceID.Equal(occStart) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

// rruleIterator adapts teambition/rrule-go's set iterator. EXDATE
// cancellations are resolved inside the set, so callers never see a
// cancelled occurrence.
type rruleIterator struct {
	next func() (time.Time, bool)
}

func newRRuleIterator(ev ParsedEvent) (OccurrenceIterator, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	return &rruleIterator{next: set.Iterator()}, nil
}

func (it *rruleIterator) Next() (time.Time, bool) {
	return it.next()
}
