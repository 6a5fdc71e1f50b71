package today

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/schedule"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/storage/memory"
	"github.com/benvon/napoleon/internal/tracker"
)

type stubCalendar struct {
	events []models.CalendarEvent
	err    error
}

func (c stubCalendar) EventsBetween(context.Context, time.Time, time.Time) ([]models.CalendarEvent, error) {
	return c.events, c.err
}

func (stubCalendar) CreateEvent(context.Context, *models.Task, time.Time, time.Time) (string, error) {
	return "", nil
}

func (stubCalendar) DeleteEvent(context.Context, string) error { return nil }

type failingAssistant struct{ ai.DisabledProvider }

func (failingAssistant) DailyMessage(context.Context, []*models.Task, *models.Profile) (string, error) {
	return "", &models.NetworkError{Op: "daily_message", Err: errors.New("down")}
}

var fixedNow = time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.TaskStore) {
	t.Helper()
	ctx := context.Background()
	for _, task := range []*models.Task{
		{Name: "Due today", DueDate: "2025-01-06", Priority: models.PriorityLow},
		{Name: "Due tomorrow", DueDate: "2025-01-07", Priority: models.PriorityHigh},
		{Name: "Scheduled today", DueDate: "2025-01-09", Priority: models.PriorityHigh},
	} {
		if err := store.CreateTask(ctx, task); err != nil {
			t.Fatal(err)
		}
		if task.Name == "Scheduled today" {
			task.ScheduledDate = "2025-01-06"
			task.TimeSlot = "2025-01-06T10:00:00Z"
			if err := store.UpdateTask(ctx, task); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func newTestService(t *testing.T, cal stubCalendar, assistant ai.Provider) *Service {
	t.Helper()
	store := memory.NewTaskStore()
	seed(t, store)
	s := NewService(Config{Tasks: store, Calendar: cal, Assistant: assistant})
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_TasksFiltersToToday(t *testing.T) {
	t.Parallel()
	s := newTestService(t, stubCalendar{}, nil)

	got, err := s.Tasks(context.Background(), "priority")
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if got.Date != "2025-01-06" {
		t.Errorf("Date = %s", got.Date)
	}
	if len(got.Tasks) != 2 || got.Tasks[0].Name != "Scheduled today" {
		t.Errorf("Unexpected tasks %+v", got.Tasks)
	}

	if _, err := s.Tasks(context.Background(), "bogus"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Schedule(t *testing.T) {
	t.Parallel()
	meeting := models.CalendarEvent{
		ID:    "e1",
		Title: "Standup",
		Start: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 6, 9, 15, 0, 0, time.UTC),
	}
	s := newTestService(t, stubCalendar{events: []models.CalendarEvent{meeting}}, nil)

	got, err := s.Schedule(context.Background())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(got.Events) != 1 || len(got.Tasks) != 2 {
		t.Fatalf("Unexpected schedule %+v", got)
	}
	// due-date-only task sorts at midnight, then the 09:00 event, then the 10:00 slot
	wantOrder := []schedule.ItemKind{schedule.KindTask, schedule.KindEvent, schedule.KindTask}
	if len(got.Timeline) != len(wantOrder) {
		t.Fatalf("Timeline length %d", len(got.Timeline))
	}
	for i, kind := range wantOrder {
		if got.Timeline[i].Kind != kind {
			t.Errorf("Timeline[%d].Kind = %s, want %s", i, got.Timeline[i].Kind, kind)
		}
	}
}

func TestService_ScheduleCalendarFailureDegrades(t *testing.T) {
	t.Parallel()
	s := newTestService(t, stubCalendar{err: errors.New("calendar down")}, nil)

	got, err := s.Schedule(context.Background())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if got.Events == nil || len(got.Events) != 0 {
		t.Errorf("Expected empty events, got %v", got.Events)
	}
	if len(got.Timeline) != 2 {
		t.Errorf("Expected task-only timeline, got %d items", len(got.Timeline))
	}
}

func TestService_DailyMessageFallsBack(t *testing.T) {
	t.Parallel()
	s := newTestService(t, stubCalendar{}, failingAssistant{})

	got, err := s.DailyMessage(context.Background())
	if err != nil {
		t.Fatalf("DailyMessage: %v", err)
	}
	if !strings.Contains(got.Message, "2 task") {
		t.Errorf("Expected fallback message counting tasks, got %q", got.Message)
	}
}

func TestService_MotivationalMessageUsesTracker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics := memory.NewMetricsStore()
	tr := tracker.NewService(metrics, "2025-01-06", nil)
	if _, err := tr.SaveMetrics(ctx, "2025-01-06", models.Metrics{Workout: true, Water: true, Sleep: true}); err != nil {
		t.Fatal(err)
	}

	s := NewService(Config{Tasks: memory.NewTaskStore(), Tracker: tr})
	s.now = func() time.Time { return fixedNow }

	got, err := s.MotivationalMessage(ctx)
	if err != nil {
		t.Fatalf("MotivationalMessage: %v", err)
	}
	if !strings.Contains(got.Message, "1 day streak") {
		t.Errorf("Expected streak in message, got %q", got.Message)
	}
}
