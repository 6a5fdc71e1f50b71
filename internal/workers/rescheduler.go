package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/gate"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/benvon/napoleon/internal/schedule"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/services/calendar"
	"go.uber.org/zap"
)

// ProfileLoader supplies optional context for AI refinement
type ProfileLoader interface {
	Get(ctx context.Context) (*models.Profile, error)
}

// RescheduleResult summarises one run of the scheduler
type RescheduleResult struct {
	Date     string
	Placed   []schedule.Placement
	Unplaced []*models.Task
}

// Rescheduler places active tasks into today's free time and writes the
// resulting blocks to the calendar
type Rescheduler struct {
	tasks     database.TaskStore
	calendar  calendar.Client
	assistant ai.Provider
	profiles  ProfileLoader
	gate      gate.Gate
	jobQueue  queue.JobQueue // For re-enqueueing jobs with delays
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// ReschedulerConfig holds the collaborators of a Rescheduler
type ReschedulerConfig struct {
	Tasks     database.TaskStore
	Calendar  calendar.Client
	Assistant ai.Provider
	Profiles  ProfileLoader
	Gate      gate.Gate
	JobQueue  queue.JobQueue
	Location  *time.Location
	Logger    *zap.Logger
}

// NewRescheduler creates a new rescheduler
func NewRescheduler(cfg ReschedulerConfig) *Rescheduler {
	r := &Rescheduler{
		tasks:     cfg.Tasks,
		calendar:  cfg.Calendar,
		assistant: cfg.Assistant,
		profiles:  cfg.Profiles,
		gate:      cfg.Gate,
		jobQueue:  cfg.JobQueue,
		loc:       cfg.Location,
		logger:    cfg.Logger,
		now:       time.Now,
	}
	if r.calendar == nil {
		r.calendar = calendar.Disabled{}
	}
	if r.assistant == nil {
		r.assistant = ai.NewDisabledProvider()
	}
	if r.loc == nil {
		r.loc = time.UTC
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// needsSlot reports whether a task should be (re)placed on date.
// Tasks already placed on a later day keep their slot.
func needsSlot(t *models.Task, date string) bool {
	return t.ScheduledDate == "" || t.ScheduledDate <= date
}

// Reschedule recomputes the slots of every active task for date (YYYY-MM-DD, empty = today)
func (r *Rescheduler) Reschedule(ctx context.Context, date string) (*RescheduleResult, error) {
	now := r.now().In(r.loc)
	if date == "" {
		date = now.Format(models.DateLayout)
	}
	day, err := time.ParseInLocation(models.DateLayout, date, r.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule date %q", models.ErrInvalidInput, date)
	}

	all, err := r.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	candidates := make([]*models.Task, 0, len(all))
	ownEvents := make(map[string]bool)
	for _, t := range all {
		if t.GCalEventID != "" {
			ownEvents[t.GCalEventID] = true
		}
		if needsSlot(t, date) {
			candidates = append(candidates, t)
		}
	}

	ordered := r.refine(ctx, schedule.Prioritize(candidates))

	window := schedule.DayRange(day, r.loc)
	events, err := r.calendar.EventsBetween(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar events: %w", err)
	}
	// blocks written on a previous run are replaced, not treated as busy
	foreign := make([]models.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !ownEvents[ev.ID] {
			foreign = append(foreign, ev)
		}
	}

	notBefore := window.Start
	if now.After(notBefore) {
		notBefore = now
	}
	free := schedule.FreeSlots(day, r.loc, calendar.BusyRanges(foreign), notBefore)
	placed, unplaced := schedule.Assign(ordered, free)

	stored := placed[:0]
	for _, p := range placed {
		r.clearEvent(ctx, p.Task)
		eventID, err := r.calendar.CreateEvent(ctx, p.Task, p.Start, p.End)
		if err != nil {
			r.logger.Warn("failed_to_create_calendar_event",
				zap.String("task_id", p.Task.ID),
				zap.Error(err),
			)
		}
		p.Task.TimeSlot = p.Start.Format(time.RFC3339)
		p.Task.ScheduledDate = date
		p.Task.GCalEventID = eventID
		if err := r.tasks.UpdateTask(ctx, p.Task); err != nil {
			// Completed or deleted since the list; drop its new block and go on
			if errors.Is(err, models.ErrNotFound) {
				r.logger.Info("task_gone_during_reschedule", zap.String("task_id", p.Task.ID))
				r.clearEvent(ctx, p.Task)
				continue
			}
			return nil, fmt.Errorf("failed to store slot for task %s: %w", p.Task.ID, err)
		}
		stored = append(stored, p)
	}
	placed = stored

	for _, t := range unplaced {
		if t.TimeSlot == "" && t.GCalEventID == "" && t.ScheduledDate == "" {
			continue
		}
		r.clearEvent(ctx, t)
		t.TimeSlot = ""
		t.ScheduledDate = ""
		t.GCalEventID = ""
		if err := r.tasks.UpdateTask(ctx, t); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				r.logger.Info("task_gone_during_reschedule", zap.String("task_id", t.ID))
				continue
			}
			return nil, fmt.Errorf("failed to clear slot for task %s: %w", t.ID, err)
		}
	}

	r.logger.Info("reschedule_completed",
		zap.String("date", date),
		zap.Int("placed", len(placed)),
		zap.Int("unplaced", len(unplaced)),
		zap.Int("busy_events", len(foreign)),
	)
	return &RescheduleResult{Date: date, Placed: placed, Unplaced: unplaced}, nil
}

// refine applies the assistant's ordering. Any failure keeps the deterministic order.
func (r *Rescheduler) refine(ctx context.Context, ordered []*models.Task) []*models.Task {
	if len(ordered) < 2 {
		return ordered
	}
	var profile *models.Profile
	if r.profiles != nil {
		if p, err := r.profiles.Get(ctx); err == nil {
			profile = p
		}
	}
	ids, err := r.assistant.RefineOrder(ctx, ordered, profile)
	if err != nil {
		r.logger.Warn("refine_order_failed", zap.Error(err))
		return ordered
	}
	byID := make(map[string]*models.Task, len(ordered))
	for _, t := range ordered {
		byID[t.ID] = t
	}
	out := make([]*models.Task, 0, len(ordered))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
			delete(byID, id)
		}
	}
	// keep anything the assistant dropped, in deterministic order
	for _, t := range ordered {
		if _, ok := byID[t.ID]; ok {
			out = append(out, t)
		}
	}
	return out
}

func (r *Rescheduler) clearEvent(ctx context.Context, t *models.Task) {
	if t.GCalEventID == "" {
		return
	}
	if err := r.calendar.DeleteEvent(ctx, t.GCalEventID); err != nil {
		r.logger.Warn("failed_to_delete_calendar_event",
			zap.String("task_id", t.ID),
			zap.String("event_id", t.GCalEventID),
			zap.Error(err),
		)
	}
	t.GCalEventID = ""
}

// ProcessJob processes a job based on its type. The job's gate is released
// once the job has a final outcome; retried jobs keep it.
func (r *Rescheduler) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	if job.IsExpired() {
		r.logger.Warn("job_expired", zap.String("job_id", job.ID.String()))
		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Warn("failed_to_ack_expired_job", zap.Error(ackErr))
		}
		r.releaseGate(ctx, job)
		return nil
	}

	// Jobs delivered early (no delayed exchange) wait for NotBefore
	if !job.ShouldProcess() && job.NotBefore != nil {
		if err := sleepUntil(ctx, *job.NotBefore); err != nil {
			if nackErr := msg.Nack(true); nackErr != nil {
				r.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
			}
			return err
		}
	}

	switch job.Type {
	case queue.JobTypeReschedule:
		if _, err := r.Reschedule(ctx, job.Date); err != nil {
			return r.handleJobError(ctx, msg, job, err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			r.releaseGate(ctx, job)
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		r.releaseGate(ctx, job)
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			r.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		r.releaseGate(ctx, job)
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError retries with backoff, re-enqueueing with NotBefore when a queue is available
func (r *Rescheduler) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error) error {
	if !job.CanRetry() {
		r.logger.Error("job_failed_max_retries",
			zap.String("job_id", job.ID.String()),
			zap.Int("retries", job.MaxRetries),
			zap.Error(err),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
		}
		r.releaseGate(ctx, job)
		return fmt.Errorf("job failed (max retries): %w", err)
	}

	retryDelay := ai.GetRetryDelay(err, job.RetryCount)
	notBefore := r.now().Add(retryDelay)
	if job.NotAfter != nil && notBefore.After(*job.NotAfter) {
		r.logger.Warn("job_retry_past_deadline", zap.String("job_id", job.ID.String()), zap.Error(err))
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
		}
		r.releaseGate(ctx, job)
		return fmt.Errorf("job failed (deadline): %w", err)
	}

	if r.jobQueue != nil {
		delayed := *job
		delayed.NotBefore = &notBefore
		delayed.RetryCount = job.RetryCount + 1

		if ackErr := msg.Ack(); ackErr != nil {
			r.logger.Warn("failed_to_ack_job_before_reenqueue", zap.Error(ackErr))
		}
		if enqueueErr := r.jobQueue.Enqueue(ctx, &delayed); enqueueErr != nil {
			r.releaseGate(ctx, job)
			return fmt.Errorf("failed to re-enqueue job: %w", enqueueErr)
		}
		r.logger.Info("job_reenqueued",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", delayed.RetryCount),
			zap.Duration("delay", retryDelay),
			zap.Error(err),
		)
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	job.IncrementRetry()
	if nackErr := msg.Nack(true); nackErr != nil {
		r.logger.Warn("failed_to_nack_job", zap.Error(nackErr))
	}
	return fmt.Errorf("job failed (will retry): %w", err)
}

func (r *Rescheduler) releaseGate(ctx context.Context, job *queue.Job) {
	if job.GateKey == "" || r.gate == nil {
		return
	}
	if err := r.gate.Release(context.WithoutCancel(ctx), job.GateKey); err != nil {
		r.logger.Warn("failed_to_release_gate", zap.String("key", job.GateKey), zap.Error(err))
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
