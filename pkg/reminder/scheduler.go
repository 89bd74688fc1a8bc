// Package reminder periodically reminds approvers of requests that have been
// waiting on them for too long.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Reminder notifies approvers of active requests not updated since before.
type Reminder interface {
	Remind(ctx context.Context, before time.Time) (int, error)
}

type Scheduler struct {
	schedule string
	after    time.Duration
	reminder Reminder
	cron     *cron.Cron
	now      func() time.Time
	logger   *slog.Logger
}

func NewScheduler(schedule string, after time.Duration, reminder Reminder, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		schedule: schedule,
		after:    after,
		reminder: reminder,
		now:      time.Now,
		logger: logger.With(
			"module", "reminder_scheduler",
			"schedule", schedule,
			"after", after.String(),
		),
	}

	err := s.Validate()
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Scheduler) Validate() error {
	if s.schedule == "" {
		return errors.New("reminder schedule is required")
	}

	if s.after <= 0 {
		return errors.New("reminder threshold must be positive")
	}

	_, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

// Start schedules reminder runs until ctx is done or Stop is called. A run
// still in progress when the next one is due is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Starting reminder scheduler")

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.schedule, func() { s.Run(ctx) })
	if err != nil {
		return fmt.Errorf("failed to add reminder job: %w", err)
	}

	s.logger.DebugContext(ctx, "Reminder job added", "entry_id", id)
	s.cron.Start()

	return nil
}

// Run performs one reminder pass. Failures are logged and never stop the schedule.
func (s *Scheduler) Run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	before := s.now().UTC().Add(-s.after)

	reminded, err := s.reminder.Remind(ctx, before)
	if err != nil {
		s.logger.ErrorContext(ctx, "Reminder run failed", "error", err)

		return
	}

	s.logger.InfoContext(ctx, "Reminder run completed", "reminded", reminded)
}

func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.InfoContext(ctx, "Stopping reminder scheduler")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
