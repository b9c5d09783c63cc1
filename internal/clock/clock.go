// Package clock answers civil-day questions against the bot's single
// target timezone. Every instant comparison in the task and calendar
// domain goes through a Zone so that "today" always means today in the
// configured zone, never in UTC or the host's local zone.
package clock

import (
	"fmt"
	"time"
)

// DefaultZoneName is the target timezone used when the config does not
// override it.
const DefaultZoneName = "America/Sao_Paulo"

// Zone wraps the fixed target timezone. Construct it once at startup via
// LoadZone; all methods are pure and safe for concurrent use.
type Zone struct {
	loc *time.Location
}

// LoadZone resolves an IANA zone name. A missing or unknown zone is an
// error the caller must treat as fatal for the cycle: silently classifying
// against UTC produces wrong due-today/overdue answers, so there is no
// fallback here.
func LoadZone(name string) (*Zone, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("clock: timezone %q unavailable: %w", name, err)
	}
	return &Zone{loc: loc}, nil
}

// Location exposes the underlying location for formatting call sites.
func (z *Zone) Location() *time.Location {
	return z.loc
}

// In converts an instant to its wall-clock representation in the target
// zone.
func (z *Zone) In(t time.Time) time.Time {
	return t.In(z.loc)
}

// DateOf returns the civil date (year, month, day) of t in the target zone.
func (z *Zone) DateOf(t time.Time) (int, time.Month, int) {
	return t.In(z.loc).Date()
}

// SameDay reports whether a and b fall on the same civil day in the
// target zone.
func (z *Zone) SameDay(a, b time.Time) bool {
	ay, am, ad := z.DateOf(a)
	by, bm, bd := z.DateOf(b)
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns the instant of 00:00:00 on t's civil day in the
// target zone. time.Date handles zones where midnight does not exist
// (DST spring-forward) by normalizing; the target zone currently has no
// transitions but the math does not rely on that.
func (z *Zone) StartOfDay(t time.Time) time.Time {
	y, m, d := z.DateOf(t)
	return time.Date(y, m, d, 0, 0, 0, 0, z.loc)
}

// EndOfDay returns the first instant of the next civil day, i.e. the
// exclusive upper bound of t's civil day.
func (z *Zone) EndOfDay(t time.Time) time.Time {
	return z.StartOfDay(t).AddDate(0, 0, 1)
}

// BeforeToday reports whether t's civil day is strictly before now's
// civil day in the target zone.
func (z *Zone) BeforeToday(t, now time.Time) bool {
	return z.In(t).Before(z.StartOfDay(now))
}
