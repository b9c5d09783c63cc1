// Package digest assembles and delivers one briefing: fetch tasks and
// today's events, classify, optionally let the language model group the
// items, format and push to chat.
package digest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dalbo/briefingbot/internal/calendar"
	"github.com/dalbo/briefingbot/internal/chat"
	"github.com/dalbo/briefingbot/internal/clock"
	"github.com/dalbo/briefingbot/internal/llm"
	"github.com/dalbo/briefingbot/internal/logging"
	"github.com/dalbo/briefingbot/internal/task"
	"github.com/dalbo/briefingbot/internal/todoist"
)

// Kind labels which briefing of the day is running.
type Kind string

const (
	KindMorning   Kind = "morning"
	KindAfternoon Kind = "afternoon"
	KindEvening   Kind = "evening"
	KindManual    Kind = "manual"
)

// ErrNothingFetched means both the task API and every calendar source
// failed, so there is no digest to deliver.
var ErrNothingFetched = errors.New("digest: no source produced data")

// TaskSource fetches raw task records.
type TaskSource interface {
	ActiveTasks(ctx context.Context, filter string) ([]todoist.Task, error)
}

// EventSource fetches today's events.
type EventSource interface {
	TodayEvents(ctx context.Context) ([]calendar.Event, error)
}

// Service runs briefing cycles. Stateless per invocation; every Run
// fetches fresh data.
type Service struct {
	tasks      TaskSource
	events     EventSource
	sender     chat.Sender
	grouper    llm.Grouper // nil disables grouping
	zone       *clock.Zone
	taskFilter string
	now        func() time.Time
}

// NewService wires a briefing service. grouper may be nil; now defaults
// to time.Now.
func NewService(tasks TaskSource, events EventSource, sender chat.Sender, grouper llm.Grouper, zone *clock.Zone, taskFilter string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		tasks:      tasks,
		events:     events,
		sender:     sender,
		grouper:    grouper,
		zone:       zone,
		taskFilter: taskFilter,
		now:        now,
	}
}

// Run performs one briefing cycle and delivers the result to chat. A
// failed task fetch or a failed calendar fetch degrades to an empty
// contribution; only both failing aborts the cycle.
func (s *Service) Run(ctx context.Context, kind Kind) error {
	runID := uuid.NewString()
	now := s.now()
	logging.Info("digest run starting", "run_id", runID, "kind", string(kind))

	tasks, tasksErr := s.fetchTasks(ctx)
	events, eventsErr := s.fetchEvents(ctx)
	if tasksErr != nil && eventsErr != nil {
		return errors.Join(ErrNothingFetched, tasksErr, eventsErr)
	}

	b := s.classify(tasks, now)
	b.Events = events
	b.Kind = kind
	b.Now = now

	text := s.render(ctx, b)
	if err := chat.Deliver(ctx, s.sender, text); err != nil {
		return err
	}

	logging.Info("digest run delivered", "run_id", runID, "kind", string(kind),
		"events", len(b.Events), "overdue", len(b.Overdue), "due_today", len(b.DueToday), "inbox", len(b.Inbox))
	return nil
}

// TodayEvents exposes the calendar pipeline result directly, e.g. for
// the HTTP API. A fetch failure is an error, distinct from zero events.
func (s *Service) TodayEvents(ctx context.Context) ([]calendar.Event, error) {
	return s.events.TodayEvents(ctx)
}

func (s *Service) fetchTasks(ctx context.Context) ([]todoist.Task, error) {
	raw, err := s.tasks.ActiveTasks(ctx, s.taskFilter)
	if err != nil {
		logging.Error("digest: task fetch failed, continuing without tasks", err)
		return nil, err
	}
	return raw, nil
}

func (s *Service) fetchEvents(ctx context.Context) ([]calendar.Event, error) {
	events, err := s.events.TodayEvents(ctx)
	if err != nil {
		logging.Error("digest: event fetch failed, continuing without events", err)
		return nil, err
	}
	return events, nil
}

// classify normalizes the raw records and buckets them. Malformed records
// are logged and skipped; siblings survive.
func (s *Service) classify(raw []todoist.Task, now time.Time) briefing {
	var b briefing
	for _, r := range raw {
		t, err := task.FromAPI(r, s.zone)
		if err != nil {
			logging.Error("digest: skipping malformed task", err, "task_id", r.ID)
			continue
		}
		if t.Completed {
			continue
		}
		switch {
		case t.Overdue(s.zone, now) && !t.DueToday(s.zone, now):
			b.Overdue = append(b.Overdue, t)
		case t.DueToday(s.zone, now):
			b.DueToday = append(b.DueToday, t)
		case t.InInbox() && t.Due == nil:
			b.Inbox = append(b.Inbox, t)
		}
	}
	return b
}

// render formats the briefing, preferring the model's grouping when a
// grouper is configured and succeeds.
func (s *Service) render(ctx context.Context, b briefing) string {
	if s.grouper != nil {
		lines := b.itemLines(s.zone)
		if len(lines) > 0 {
			grouped, err := s.grouper.Group(ctx, lines)
			if err == nil && grouped != "" {
				return b.header(s.zone) + "\n\n" + chat.Escape(grouped)
			}
			if err != nil {
				logging.Error("digest: grouping failed, using plain layout", err)
			}
		}
	}
	return b.format(s.zone)
}
