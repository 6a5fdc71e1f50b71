// Package today assembles the day view: today's tasks, calendar events and the merged timeline.
package today

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/benvon/napoleon/internal/database"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/schedule"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/services/calendar"
	"github.com/benvon/napoleon/internal/tracker"
	"go.uber.org/zap"
)

// ProfileLoader supplies optional context for generated messages
type ProfileLoader interface {
	Get(ctx context.Context) (*models.Profile, error)
}

// Tasks is the legacy day view
type Tasks struct {
	Date  string         `json:"date"`
	Tasks []*models.Task `json:"tasks"`
}

// Schedule is the day view with calendar events and the merged timeline
type Schedule struct {
	Date     string                  `json:"date"`
	Tasks    []*models.Task          `json:"tasks"`
	Events   []models.CalendarEvent  `json:"events"`
	Timeline []schedule.TimelineItem `json:"timeline"`
}

// Message is a generated note for the day
type Message struct {
	Message string `json:"message"`
}

// Service builds the day view in the configured timezone
type Service struct {
	tasks     database.TaskStore
	calendar  calendar.Client
	assistant ai.Provider
	profiles  ProfileLoader
	tracker   *tracker.Service
	loc       *time.Location
	log       *zap.Logger
	now       func() time.Time
}

// Config holds the collaborators of a Service
type Config struct {
	Tasks     database.TaskStore
	Calendar  calendar.Client
	Assistant ai.Provider
	Profiles  ProfileLoader
	Tracker   *tracker.Service
	Location  *time.Location
	Logger    *zap.Logger
}

func NewService(cfg Config) *Service {
	s := &Service{
		tasks:     cfg.Tasks,
		calendar:  cfg.Calendar,
		assistant: cfg.Assistant,
		profiles:  cfg.Profiles,
		tracker:   cfg.Tracker,
		loc:       cfg.Location,
		log:       cfg.Logger,
		now:       time.Now,
	}
	if s.calendar == nil {
		s.calendar = calendar.Disabled{}
	}
	if s.assistant == nil {
		s.assistant = ai.NewDisabledProvider()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Date returns today's date in the configured timezone
func (s *Service) Date() string {
	return s.now().In(s.loc).Format(models.DateLayout)
}

// onDay reports whether a task belongs to date: scheduled there, or unscheduled and due then
func onDay(t *models.Task, date string) bool {
	if t.ScheduledDate != "" {
		return t.ScheduledDate == date
	}
	return len(t.DueDate) >= len(models.DateLayout) && t.DueDate[:len(models.DateLayout)] == date
}

func (s *Service) todaysTasks(ctx context.Context, date string) ([]*models.Task, error) {
	all, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return slices.DeleteFunc(all, func(t *models.Task) bool { return !onDay(t, date) }), nil
}

// Tasks returns today's tasks sorted by key ("priority" or "time", default "time")
func (s *Service) Tasks(ctx context.Context, sortKey string) (*Tasks, error) {
	date := s.Date()
	tasks, err := s.todaysTasks(ctx, date)
	if err != nil {
		return nil, err
	}
	if sortKey == "" {
		sortKey = string(schedule.SortByTime)
	}
	sorted, err := schedule.SortTasks(tasks, schedule.SortKey(sortKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w %q", models.ErrInvalidInput, err, sortKey)
	}
	return &Tasks{Date: date, Tasks: sorted}, nil
}

// Schedule returns today's tasks and events with the merged timeline.
// A calendar failure degrades to no events.
func (s *Service) Schedule(ctx context.Context) (*Schedule, error) {
	now := s.now().In(s.loc)
	date := now.Format(models.DateLayout)

	tasks, err := s.todaysTasks(ctx, date)
	if err != nil {
		return nil, err
	}

	day := schedule.DayRange(now, s.loc)
	events, err := s.calendar.EventsBetween(ctx, day.Start, day.End)
	if err != nil {
		s.log.Warn("failed_to_load_calendar_events", zap.String("date", date), zap.Error(err))
		events = nil
	}
	if events == nil {
		events = []models.CalendarEvent{}
	}

	return &Schedule{
		Date:     date,
		Tasks:    tasks,
		Events:   events,
		Timeline: slices.Collect(schedule.BuildTimeline(tasks, events)),
	}, nil
}

// DailyMessage writes a note about today's plan. Assistant failures fall back to static text.
func (s *Service) DailyMessage(ctx context.Context) (*Message, error) {
	date := s.Date()
	tasks, err := s.todaysTasks(ctx, date)
	if err != nil {
		return nil, err
	}
	ordered, _ := schedule.SortTasks(tasks, schedule.SortByTime)
	profile := s.loadProfile(ctx)

	msg, err := s.assistant.DailyMessage(ctx, ordered, profile)
	if err != nil {
		s.log.Warn("daily_message_fallback", zap.Error(err))
		msg, _ = ai.DisabledProvider{}.DailyMessage(ctx, ordered, profile)
	}
	return &Message{Message: msg}, nil
}

// MotivationalMessage writes encouragement from the tracker summary. Assistant failures fall back to static text.
func (s *Service) MotivationalMessage(ctx context.Context) (*Message, error) {
	var progress ai.Progress
	if s.tracker != nil {
		summary, err := s.tracker.Summary(ctx, s.Date())
		if err != nil {
			return nil, err
		}
		progress = ai.Progress{
			CurrentStreak:  summary.CurrentStreak,
			WeeklyAverage:  summary.WeeklyAverage,
			MostConsistent: string(summary.MostConsistent),
			Days:           summary.Days,
		}
	}
	profile := s.loadProfile(ctx)

	msg, err := s.assistant.MotivationalMessage(ctx, progress, profile)
	if err != nil {
		s.log.Warn("motivational_message_fallback", zap.Error(err))
		msg, _ = ai.DisabledProvider{}.MotivationalMessage(ctx, progress, profile)
	}
	return &Message{Message: msg}, nil
}

func (s *Service) loadProfile(ctx context.Context) *models.Profile {
	if s.profiles == nil {
		return nil
	}
	p, err := s.profiles.Get(ctx)
	if err != nil {
		s.log.Warn("failed_to_load_profile", zap.Error(err))
		return nil
	}
	return p
}
