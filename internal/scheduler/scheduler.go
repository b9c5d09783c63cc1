// Package scheduler drives the automatic briefings via cron.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dalbo/briefingbot/internal/config"
	"github.com/dalbo/briefingbot/internal/digest"
	"github.com/dalbo/briefingbot/internal/logging"
)

// runBudget caps one briefing cycle's wall-clock time so a hung fetch
// can never overlap the next scheduled run.
const runBudget = 5 * time.Minute

// Runner executes one briefing cycle. Satisfied by *digest.Service.
type Runner interface {
	Run(ctx context.Context, kind digest.Kind) error
}

// Scheduler owns the cron instance and the three daily triggers.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
}

// New builds a Scheduler whose cron expressions are evaluated in loc, so
// "0 8 * * *" means 08:00 in the target zone, not server time.
func New(runner Runner, schedules config.ScheduleConfig, loc *time.Location) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		runner: runner,
	}

	triggers := []struct {
		spec string
		kind digest.Kind
	}{
		{schedules.Morning, digest.KindMorning},
		{schedules.Afternoon, digest.KindAfternoon},
		{schedules.Evening, digest.KindEvening},
	}
	for _, tr := range triggers {
		kind := tr.kind
		if _, err := s.cron.AddFunc(tr.spec, func() { s.fire(kind) }); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) fire(kind digest.Kind) {
	ctx, cancel := context.WithTimeout(context.Background(), runBudget)
	defer cancel()

	if err := s.runner.Run(ctx, kind); err != nil {
		logging.Error("scheduled briefing failed", err, "kind", string(kind))
	}
}

// Start begins firing triggers in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logging.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
