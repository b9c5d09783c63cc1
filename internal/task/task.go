// Package task holds the immutable task record and its temporal
// classification. A Task is built once per fetch cycle from the raw API
// record and never mutated; every flag downstream formatting needs
// (overdue, due today, inbox) is derived from the record, the injected
// "now" and the target zone.
package task

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/todoist"
)

// Task is an immutable snapshot of one task.
type Task struct {
	ID        string
	Content   string
	ProjectID string // empty means the task lives in the inbox
	Completed bool
	URL       string

	CreatedAt   *time.Time
	CompletedAt *time.Time

	// Due is the due instant, nil when the task has no due date. When
	// DueHasTime is false the task carried only a date and Due points at
	// the start of that civil day in the target zone.
	Due        *time.Time
	DueHasTime bool

	Priority int // 1 (normal) .. 4 (highest)
}

// timeAnnotation matches an HH:MM time embedded in a free-text due string
// such as "every day 14:00".
var timeAnnotation = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)

// FromAPI normalizes a raw API task record into a Task. The due
// specification arrives in one of three shapes: an explicit RFC3339
// datetime, a bare date, or a bare date whose time of day is only present
// as an annotation inside the free-text due string. An unparseable due
// value makes the whole record malformed.
func FromAPI(raw todoist.Task, zone *clock.Zone) (Task, error) {
	if raw.ID == "" {
		return Task{}, errors.New("task: record has no id")
	}

	t := Task{
		ID:        raw.ID,
		Content:   raw.Content,
		ProjectID: raw.ProjectID,
		Completed: raw.IsCompleted,
		URL:       raw.URL,
		Priority:  raw.Priority,
	}

	if raw.Priority < 1 || raw.Priority > 4 {
		t.Priority = 1
	}

	if ts, err := parseRFC3339(raw.CreatedAt); err == nil {
		t.CreatedAt = &ts
	}
	if ts, err := parseRFC3339(raw.CompletedAt); err == nil {
		t.CompletedAt = &ts
	}

	if raw.Due != nil {
		due, hasTime, err := normalizeDue(raw.Due, zone)
		if err != nil {
			return Task{}, fmt.Errorf("task %s: %w", raw.ID, err)
		}
		t.Due = &due
		t.DueHasTime = hasTime
	}

	return t, nil
}

func normalizeDue(due *todoist.Due, zone *clock.Zone) (time.Time, bool, error) {
	if due.Datetime != "" {
		ts, err := time.Parse(time.RFC3339, due.Datetime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("bad due datetime %q: %w", due.Datetime, err)
		}
		return ts, true, nil
	}

	if due.Date == "" {
		return time.Time{}, false, errors.New("due present but carries no date")
	}
	day, err := time.ParseInLocation("2006-01-02", due.Date, zone.Location())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("bad due date %q: %w", due.Date, err)
	}

	// A date-only due may still carry a time of day inside the free-text
	// annotation ("every friday 09:30"). Honor it when it parses; fall
	// back to start of day otherwise.
	if m := timeAnnotation.FindStringSubmatch(due.String); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true, nil
	}

	return day, false, nil
}

func parseRFC3339(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339, v)
}

// DueToday reports whether the task is due on now's civil day in the
// target zone. Tasks without a due date are never due today.
func (t Task) DueToday(zone *clock.Zone, now time.Time) bool {
	if t.Due == nil {
		return false
	}
	return zone.SameDay(*t.Due, now)
}

// Overdue reports whether the task's due moment has passed: either its
// civil day is strictly before today, or it is due today at an instant
// already behind now. A date-only due counts as due at the start of its
// civil day, so it turns overdue the moment its day ends.
func (t Task) Overdue(zone *clock.Zone, now time.Time) bool {
	if t.Due == nil {
		return false
	}
	if zone.BeforeToday(*t.Due, now) {
		return true
	}
	return zone.SameDay(*t.Due, now) && t.Due.Before(now)
}

// Relevant reports whether the task belongs in today's digest.
func (t Task) Relevant(zone *clock.Zone, now time.Time) bool {
	return t.DueToday(zone, now) || t.Overdue(zone, now)
}

// InInbox reports whether the task has no project.
func (t Task) InInbox() bool {
	return t.ProjectID == ""
}

// PriorityMarker maps the priority to its digest marker. Priorities
// outside 1..4 yield no marker.
func (t Task) PriorityMarker() string {
	switch t.Priority {
	case 4:
		return "🔴"
	case 3:
		return "🟠"
	case 2:
		return "🔵"
	case 1:
		return "⚪"
	default:
		return ""
	}
}
