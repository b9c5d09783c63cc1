package calendar

import (
	"sort"
	"time"

	"github.com/dalbo/briefingbot/internal/clock"
)

// FilterToday selects the events relevant to now's civil day in the
// target zone, ascending by start time.
//
// All-day events are compared by calendar date only: their stored
// start/end are midnight-to-midnight in whatever zone the source tagged,
// and instant-overlap comparison would misclassify them near zone
// boundaries. Timed events are relevant when [start, end] overlaps
// today's civil-day interval, so an event spanning midnight shows up on
// both days.
func FilterToday(events []Event, zone *clock.Zone, now time.Time) []Event {
	todayStart := zone.StartOfDay(now)
	todayEnd := zone.EndOfDay(now)
	ty, tm, td := zone.DateOf(now)

	out := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			y, m, d := ev.Start.Date()
			if y == ty && m == tm && d == td {
				out = append(out, ev)
			}
			continue
		}
		if ev.Start.Before(todayEnd) && !ev.End.Before(todayStart) {
			out = append(out, ev)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
