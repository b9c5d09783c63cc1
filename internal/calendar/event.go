package calendar

import (
	"fmt"
	"time"

	"github.com/dalbo/briefingbot/internal/clock"
)

// DefaultSummary is used when a source event has no SUMMARY property.
const DefaultSummary = "Untitled Event"

// Event is one concrete occurrence: a single event, or one instance of a
// recurring series. For a series instance the ID is
// "<seriesUID>-<recurrenceID>" so every occurrence stays uniquely
// addressable. Events are built fresh each fetch cycle and never mutated.
type Event struct {
	ID          string
	SourceID    string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

// OccurrenceID builds the synthetic id of one instance of a recurring
// series.
func OccurrenceID(uid string, recurrenceID time.Time) string {
	return fmt.Sprintf("%s-%s", uid, recurrenceID.UTC().Format("20060102T150405Z"))
}

// DisplayLine renders the event as a single digest line in the target
// zone, e.g. "09:00–10:00 Standup (room 3)" or "All day: Holiday".
func (e Event) DisplayLine(zone *clock.Zone) string {
	label := e.Summary
	if e.Location != "" {
		label += " (" + e.Location + ")"
	}
	if e.AllDay {
		return "All day: " + label
	}
	start := zone.In(e.Start)
	end := zone.In(e.End)
	return fmt.Sprintf("%s–%s %s", start.Format("15:04"), end.Format("15:04"), label)
}
