// Package tasks implements the task lifecycle: create, list, delete, complete
// and queueing a reschedule of today's plan.
package tasks

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
	"github.com/benvon/napoleon/internal/services/calendar"
	"github.com/benvon/napoleon/internal/validation"
	"go.uber.org/zap"
)

// CompleteGateTTL bounds how long a crashed completion can block its task
const CompleteGateTTL = 30 * time.Second

// RescheduleStatusQueued is reported when a reschedule job has been accepted
const RescheduleStatusQueued = "queued"

// RescheduleResult is the acknowledgement returned for a queued reschedule
type RescheduleResult struct {
	JobID    string    `json:"jobId"`
	Status   string    `json:"status"`
	QueuedAt time.Time `json:"queuedAt"`
}

// Service coordinates the task store with the in-flight gate, the job queue and the calendar
type Service struct {
	store         database.TaskStore
	gate          gate.Gate
	queue         queue.JobQueue
	calendar      calendar.Client
	loc           *time.Location
	rescheduleTTL time.Duration
	log           *zap.Logger
	now           func() time.Time
}

// Config holds the collaborators of a Service
type Config struct {
	Store         database.TaskStore
	Gate          gate.Gate
	Queue         queue.JobQueue
	Calendar      calendar.Client
	Location      *time.Location
	RescheduleTTL time.Duration
	Logger        *zap.Logger
}

func NewService(cfg Config) *Service {
	s := &Service{
		store:         cfg.Store,
		gate:          cfg.Gate,
		queue:         cfg.Queue,
		calendar:      cfg.Calendar,
		loc:           cfg.Location,
		rescheduleTTL: cfg.RescheduleTTL,
		log:           cfg.Logger,
		now:           time.Now,
	}
	if s.calendar == nil {
		s.calendar = calendar.Disabled{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.rescheduleTTL <= 0 {
		s.rescheduleTTL = 10 * time.Minute
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Create validates the draft and persists it. Nothing is written when validation fails.
func (s *Service) Create(ctx context.Context, draft *models.TaskDraft) (*models.Task, error) {
	task, err := validation.TaskFromDraft(draft)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.log.Info("task_created", zap.String("task_id", task.ID), zap.String("priority", string(task.Priority)))
	return task, nil
}

// List returns every active task, optionally sorted by "priority" or "time"
func (s *Service) List(ctx context.Context, sortKey string) ([]*models.Task, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if sortKey == "" {
		return tasks, nil
	}
	sorted, err := schedule.SortTasks(tasks, schedule.SortKey(sortKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w %q", models.ErrInvalidInput, err, sortKey)
	}
	return sorted, nil
}

// Delete removes an active task. A calendar block written for it is removed best effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.dropCalendarBlock(ctx, task)
	s.log.Info("task_deleted", zap.String("task_id", id))
	return nil
}

// dropCalendarBlock removes the scheduler's event for a task that left the active set.
// Failures are logged; the task change has already happened.
func (s *Service) dropCalendarBlock(ctx context.Context, task *models.Task) {
	if task.GCalEventID == "" {
		return
	}
	if err := s.calendar.DeleteEvent(ctx, task.GCalEventID); err != nil {
		s.log.Warn("failed_to_delete_calendar_event",
			zap.String("task_id", task.ID),
			zap.String("event_id", task.GCalEventID),
			zap.Error(err),
		)
	}
}

// Complete records the time worked on a task and removes it from the active set.
// Only one completion per task can be in flight; a concurrent call gets ErrInFlight.
func (s *Service) Complete(ctx context.Context, id string, start, end time.Time) (*models.CompletionRecord, error) {
	if !end.After(start) {
		return nil, models.ErrInvalidRange
	}

	key := gate.CompleteKey(id)
	ok, err := s.gate.Acquire(ctx, key, CompleteGateTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("complete task %s: %w", id, models.ErrInFlight)
	}
	defer func() {
		// Released on a fresh context so a cancelled request cannot leave the key held
		if err := s.gate.Release(context.WithoutCancel(ctx), key); err != nil {
			s.log.Warn("failed_to_release_gate", zap.String("key", key), zap.Error(err))
		}
	}()

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	record := &models.CompletionRecord{
		TaskID:      id,
		StartTime:   start.UTC(),
		EndTime:     end.UTC(),
		CompletedAt: s.now().UTC(),
	}
	if err := s.store.CompleteTask(ctx, record); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	s.dropCalendarBlock(ctx, task)
	s.log.Info("task_completed",
		zap.String("task_id", id),
		zap.Duration("worked", record.Duration()),
	)
	return record, nil
}

// Reschedule queues a recomputation of today's time slots. At most one
// reschedule is in flight per deployment; the worker releases the gate.
func (s *Service) Reschedule(ctx context.Context) (*RescheduleResult, error) {
	ok, err := s.gate.Acquire(ctx, gate.RescheduleKey, s.rescheduleTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("reschedule: %w", models.ErrInFlight)
	}

	now := s.now()
	notAfter := now.Add(s.rescheduleTTL)
	job := queue.NewJob(queue.JobTypeReschedule)
	job.Date = now.In(s.loc).Format(models.DateLayout)
	job.GateKey = gate.RescheduleKey
	job.NotAfter = &notAfter
	job.CreatedAt = now

	if err := s.queue.Enqueue(ctx, job); err != nil {
		if relErr := s.gate.Release(context.WithoutCancel(ctx), gate.RescheduleKey); relErr != nil {
			s.log.Warn("failed_to_release_gate", zap.String("key", gate.RescheduleKey), zap.Error(relErr))
		}
		return nil, &models.NetworkError{Op: "enqueue reschedule job", Err: err}
	}

	s.log.Info("reschedule_queued", zap.String("job_id", job.ID.String()), zap.String("date", job.Date))
	return &RescheduleResult{
		JobID:    job.ID.String(),
		Status:   RescheduleStatusQueued,
		QueuedAt: job.CreatedAt.UTC(),
	}, nil
}
