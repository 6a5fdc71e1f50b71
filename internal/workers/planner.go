package workers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/services/tasks"
	"go.uber.org/zap"
)

// RescheduleTrigger starts a gated reschedule
type RescheduleTrigger interface {
	Reschedule(ctx context.Context) (*tasks.RescheduleResult, error)
}

// DailyPlanner queues a reschedule at fixed times of day so the day is laid
// out before the user opens the app
type DailyPlanner struct {
	trigger RescheduleTrigger
	times   []clock
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

type clock struct {
	hour, minute int
}

// parseRunTimes parses a comma separated list of HH:MM times
func parseRunTimes(s string) ([]clock, error) {
	var out []clock
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("15:04", part)
		if err != nil {
			return nil, fmt.Errorf("invalid run time %q: must be HH:MM", part)
		}
		out = append(out, clock{hour: t.Hour(), minute: t.Minute()})
	}
	return out, nil
}

// NewDailyPlanner creates a planner firing at runTimes (e.g. "07:00,13:00") in loc
func NewDailyPlanner(trigger RescheduleTrigger, runTimes string, loc *time.Location, logger *zap.Logger) (*DailyPlanner, error) {
	times, err := parseRunTimes(runTimes)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DailyPlanner{
		trigger: trigger,
		times:   times,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Enabled reports whether any run time is configured
func (p *DailyPlanner) Enabled() bool {
	return len(p.times) > 0
}

// NextRun returns the first configured time strictly after from
func (p *DailyPlanner) NextRun(from time.Time) time.Time {
	from = from.In(p.loc)
	var next time.Time
	for _, c := range p.times {
		candidate := time.Date(from.Year(), from.Month(), from.Day(), c.hour, c.minute, 0, 0, p.loc)
		// If we're past this time today, schedule for tomorrow
		if !candidate.After(from) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// RunOnce triggers a reschedule. A reschedule already in flight is not an error.
func (p *DailyPlanner) RunOnce(ctx context.Context) error {
	result, err := p.trigger.Reschedule(ctx)
	if errors.Is(err, models.ErrInFlight) {
		p.logger.Info("planned_reschedule_skipped", zap.String("reason", "already in flight"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to queue planned reschedule: %w", err)
	}
	p.logger.Info("planned_reschedule_queued", zap.String("job_id", result.JobID))
	return nil
}

// Start runs until ctx is cancelled
func (p *DailyPlanner) Start(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	for {
		next := p.NextRun(p.now())
		p.logger.Info("next_planned_reschedule", zap.Time("at", next))
		if err := sleepUntil(ctx, next); err != nil {
			return nil
		}
		if err := p.RunOnce(ctx); err != nil {
			p.logger.Warn("planned_reschedule_failed", zap.Error(err))
		}
	}
}
