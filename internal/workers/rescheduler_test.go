package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/napoleon/internal/gate"
	"github.com/benvon/napoleon/internal/models"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/benvon/napoleon/internal/services/ai"
	"github.com/benvon/napoleon/internal/storage/memory"
	"go.uber.org/zap"
)

type stubCalendar struct {
	mu      sync.Mutex
	events  []models.CalendarEvent
	listErr error
	created map[string]time.Time
	deleted []string
	// called after an event is recorded, outside the lock
	onCreate func(task *models.Task)
	onDelete func(id string)
}

func (c *stubCalendar) EventsBetween(context.Context, time.Time, time.Time) ([]models.CalendarEvent, error) {
	return c.events, c.listErr
}

func (c *stubCalendar) CreateEvent(_ context.Context, task *models.Task, start, _ time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.created == nil {
		c.created = make(map[string]time.Time)
	}
	c.created[task.Name] = start
	c.mu.Unlock()
	if c.onCreate != nil {
		c.onCreate(task)
	}
	c.mu.Lock()
	return "evt-" + task.Name, nil
}

func (c *stubCalendar) DeleteEvent(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, id)
	c.mu.Unlock()
	if c.onDelete != nil {
		c.onDelete(id)
	}
	c.mu.Lock()
	return nil
}

// orderingAssistant returns a fixed order by task name
type orderingAssistant struct {
	ai.DisabledProvider
	names []string
	err   error
}

func (a orderingAssistant) RefineOrder(_ context.Context, tasks []*models.Task, _ *models.Profile) ([]string, error) {
	if a.err != nil {
		return nil, a.err
	}
	byName := make(map[string]string, len(tasks))
	for _, t := range tasks {
		byName[t.Name] = t.ID
	}
	ids := make([]string, 0, len(a.names))
	for _, n := range a.names {
		ids = append(ids, byName[n])
	}
	return ids, nil
}

type workerFixture struct {
	r     *Rescheduler
	store *memory.TaskStore
	cal   *stubCalendar
	gate  *gate.LocalGate
	queue *queue.MemoryQueue
}

func newWorkerFixture(t *testing.T, assistant ai.Provider) *workerFixture {
	t.Helper()
	f := &workerFixture{
		store: memory.NewTaskStore(),
		cal:   &stubCalendar{},
		gate:  gate.NewLocalGate(),
		queue: queue.NewMemoryQueue(4),
	}
	f.r = NewRescheduler(ReschedulerConfig{
		Tasks:     f.store,
		Calendar:  f.cal,
		Assistant: assistant,
		Gate:      f.gate,
		JobQueue:  f.queue,
		Location:  time.UTC,
		Logger:    zap.NewNop(),
	})
	f.r.now = func() time.Time { return time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *workerFixture) add(t *testing.T, name, due string, p models.Priority, hours float64) *models.Task {
	t.Helper()
	task := &models.Task{
		Name:          name,
		DueDate:       due,
		Description:   "a task used by the scheduler tests",
		EstimatedTime: hours,
		Priority:      p,
		Goals:         []models.Goal{models.GoalCareer},
		TaskType:      models.TaskTypeAdmin,
	}
	if err := f.store.CreateTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	return task
}

func (f *workerFixture) byName(t *testing.T) map[string]*models.Task {
	t.Helper()
	all, err := f.store.ListTasks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]*models.Task, len(all))
	for _, task := range all {
		out[task.Name] = task
	}
	return out
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 1, 10, hour, minute, 0, 0, time.UTC)
}

func TestRescheduler_PlacesAroundEvents(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	f.cal.events = []models.CalendarEvent{{ID: "standup", Start: at(9, 0), End: at(10, 0)}}

	f.add(t, "report", "2025-01-10", models.PriorityHigh, 1)
	f.add(t, "gym", "2025-01-12", models.PriorityLow, 2)
	f.add(t, "email", "2025-01-11", models.PriorityMedium, 0.5)

	res, err := f.r.Reschedule(context.Background(), "2025-01-10")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(res.Placed) != 3 || len(res.Unplaced) != 0 {
		t.Fatalf("Expected 3 placed, got %d placed %d unplaced", len(res.Placed), len(res.Unplaced))
	}

	tests := []struct {
		name string
		want time.Time
	}{
		{"report", at(8, 0)},
		{"email", at(10, 0)},
		{"gym", at(10, 30)},
	}
	got := f.byName(t)
	for _, tt := range tests {
		task := got[tt.name]
		if task.TimeSlot != tt.want.Format(time.RFC3339) {
			t.Errorf("%s: expected slot %s, got %s", tt.name, tt.want.Format(time.RFC3339), task.TimeSlot)
		}
		if task.ScheduledDate != "2025-01-10" {
			t.Errorf("%s: expected scheduled date, got %q", tt.name, task.ScheduledDate)
		}
		if task.GCalEventID != "evt-"+tt.name {
			t.Errorf("%s: expected calendar event id, got %q", tt.name, task.GCalEventID)
		}
		if !f.cal.created[tt.name].Equal(tt.want) {
			t.Errorf("%s: calendar event at %v", tt.name, f.cal.created[tt.name])
		}
	}
}

func TestRescheduler_TodayStartsAtNow(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	f.add(t, "report", "2025-01-09", models.PriorityHigh, 1)

	res, err := f.r.Reschedule(context.Background(), "")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if res.Date != "2025-01-09" {
		t.Errorf("Expected today, got %s", res.Date)
	}
	want := time.Date(2025, 1, 9, 12, 0, 0, 0, time.UTC)
	if len(res.Placed) != 1 || !res.Placed[0].Start.Equal(want) {
		t.Errorf("Expected slot at %v, got %+v", want, res.Placed)
	}
}

func TestRescheduler_ReplacesOwnEventsAndKeepsLaterDays(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	ctx := context.Background()

	prior := f.add(t, "report", "2025-01-10", models.PriorityHigh, 1)
	prior.GCalEventID = "old-block"
	prior.ScheduledDate = "2025-01-09"
	prior.TimeSlot = "2025-01-09T15:00:00Z"
	_ = f.store.UpdateTask(ctx, prior)

	later := f.add(t, "trip", "2025-01-20", models.PriorityHigh, 1)
	later.ScheduledDate = "2025-01-15"
	later.TimeSlot = "2025-01-15T08:00:00Z"
	_ = f.store.UpdateTask(ctx, later)

	// the old block is in the calendar but must not count as busy
	f.cal.events = []models.CalendarEvent{{ID: "old-block", Start: at(8, 0), End: at(9, 0)}}

	if _, err := f.r.Reschedule(ctx, "2025-01-10"); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	got := f.byName(t)
	if got["report"].TimeSlot != at(8, 0).Format(time.RFC3339) {
		t.Errorf("Expected report at 08:00, got %s", got["report"].TimeSlot)
	}
	if len(f.cal.deleted) != 1 || f.cal.deleted[0] != "old-block" {
		t.Errorf("Expected old block deleted, got %v", f.cal.deleted)
	}
	if got["trip"].ScheduledDate != "2025-01-15" || got["trip"].TimeSlot != "2025-01-15T08:00:00Z" {
		t.Errorf("Expected later task untouched, got %+v", got["trip"])
	}
}

func TestRescheduler_UnplacedClearsSlot(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	ctx := context.Background()

	huge := f.add(t, "marathon", "2025-01-10", models.PriorityHigh, 20)
	huge.ScheduledDate = "2025-01-10"
	huge.TimeSlot = "2025-01-10T08:00:00Z"
	huge.GCalEventID = "evt-old"
	_ = f.store.UpdateTask(ctx, huge)

	res, err := f.r.Reschedule(ctx, "2025-01-10")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if len(res.Unplaced) != 1 {
		t.Fatalf("Expected 1 unplaced, got %d", len(res.Unplaced))
	}
	got := f.byName(t)["marathon"]
	if got.TimeSlot != "" || got.ScheduledDate != "" || got.GCalEventID != "" {
		t.Errorf("Expected cleared slot, got %+v", got)
	}
}

func TestRescheduler_TaskRemovedMidRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("placed task completed after listing", func(t *testing.T) {
		t.Parallel()
		f := newWorkerFixture(t, nil)
		gone := f.add(t, "a", "2025-01-10", models.PriorityHigh, 1)
		f.add(t, "b", "2025-01-11", models.PriorityLow, 1)
		f.cal.onCreate = func(task *models.Task) {
			if task.ID == gone.ID {
				_ = f.store.DeleteTask(ctx, gone.ID)
			}
		}

		res, err := f.r.Reschedule(ctx, "2025-01-10")
		if err != nil {
			t.Fatalf("Reschedule: %v", err)
		}
		if len(res.Placed) != 1 || res.Placed[0].Task.Name != "b" {
			t.Fatalf("Expected only b placed, got %+v", res.Placed)
		}
		got := f.byName(t)
		if _, ok := got["a"]; ok {
			t.Error("Expected a to stay removed")
		}
		if got["b"].TimeSlot == "" || got["b"].GCalEventID != "evt-b" {
			t.Errorf("Expected b placed with its event, got %+v", got["b"])
		}
		if len(f.cal.deleted) != 1 || f.cal.deleted[0] != "evt-a" {
			t.Errorf("Expected the block for a to be deleted, got %v", f.cal.deleted)
		}
	})

	t.Run("unplaced task deleted after listing", func(t *testing.T) {
		t.Parallel()
		f := newWorkerFixture(t, nil)
		huge := f.add(t, "marathon", "2025-01-10", models.PriorityHigh, 20)
		huge.ScheduledDate = "2025-01-10"
		huge.GCalEventID = "evt-old"
		_ = f.store.UpdateTask(ctx, huge)
		f.cal.onDelete = func(id string) {
			if id == "evt-old" {
				_ = f.store.DeleteTask(ctx, huge.ID)
			}
		}

		res, err := f.r.Reschedule(ctx, "2025-01-10")
		if err != nil {
			t.Fatalf("Reschedule: %v", err)
		}
		if len(res.Unplaced) != 1 {
			t.Errorf("Expected 1 unplaced, got %d", len(res.Unplaced))
		}
	})
}

func TestRescheduler_RefineOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		assistant ai.Provider
		first     string
	}{
		{"assistant order", orderingAssistant{names: []string{"gym", "report"}}, "gym"},
		{"assistant failure keeps order", orderingAssistant{err: errors.New("offline")}, "report"},
		{"partial order appends rest", orderingAssistant{names: []string{"gym"}}, "gym"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newWorkerFixture(t, tt.assistant)
			f.add(t, "report", "2025-01-10", models.PriorityHigh, 1)
			f.add(t, "gym", "2025-01-11", models.PriorityLow, 1)

			res, err := f.r.Reschedule(context.Background(), "2025-01-10")
			if err != nil {
				t.Fatalf("Reschedule: %v", err)
			}
			if len(res.Placed) != 2 {
				t.Fatalf("Expected 2 placed, got %d", len(res.Placed))
			}
			if res.Placed[0].Task.Name != tt.first {
				t.Errorf("Expected %s first, got %s", tt.first, res.Placed[0].Task.Name)
			}
		})
	}
}

func TestRescheduler_InvalidDate(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	if _, err := f.r.Reschedule(context.Background(), "10/01/2025"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func newRescheduleMessage(t *testing.T, f *workerFixture) (*queue.Message, *bool) {
	t.Helper()
	ok, err := f.gate.Acquire(context.Background(), gate.RescheduleKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("Acquire: %v %v", ok, err)
	}
	job := queue.NewJob(queue.JobTypeReschedule)
	job.Date = "2025-01-10"
	job.GateKey = gate.RescheduleKey
	acked := false
	msg := queue.NewMessage(job, func() error { acked = true; return nil }, nil)
	return msg, &acked
}

func gateHeld(t *testing.T, g *gate.LocalGate) bool {
	t.Helper()
	ok, err := g.Acquire(context.Background(), gate.RescheduleKey, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	return !ok
}

func TestProcessJob_SuccessReleasesGate(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	f.add(t, "report", "2025-01-10", models.PriorityHigh, 1)
	msg, acked := newRescheduleMessage(t, f)

	if err := f.r.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob: %v", err)
	}
	if !*acked {
		t.Error("Expected message acked")
	}
	if gateHeld(t, f.gate) {
		t.Error("Expected gate released after success")
	}
	if f.byName(t)["report"].ScheduledDate != "2025-01-10" {
		t.Error("Expected task scheduled by job")
	}
}

func TestProcessJob_RetryKeepsGate(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	f.cal.listErr = &models.NetworkError{Op: "list calendar events", StatusCode: 503, Err: errors.New("unavailable")}
	msg, acked := newRescheduleMessage(t, f)

	if err := f.r.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("Expected error for failed job")
	}
	if !*acked {
		t.Error("Expected original message acked before re-enqueue")
	}
	if f.queue.Pending() != 1 {
		t.Fatalf("Expected re-enqueued job, got %d pending", f.queue.Pending())
	}
	if gateHeld(t, f.gate) == false {
		t.Error("Expected gate kept while job retries")
	}
}

func TestProcessJob_MaxRetriesReleasesGate(t *testing.T) {
	t.Parallel()
	f := newWorkerFixture(t, nil)
	f.cal.listErr = errors.New("calendar down")
	msg, _ := newRescheduleMessage(t, f)
	msg.Job.RetryCount = msg.Job.MaxRetries

	if err := f.r.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("Expected error")
	}
	if f.queue.Pending() != 0 {
		t.Errorf("Expected no retry, got %d pending", f.queue.Pending())
	}
	if gateHeld(t, f.gate) {
		t.Error("Expected gate released after final failure")
	}
}

func TestProcessJob_ExpiredAndUnknown(t *testing.T) {
	t.Parallel()

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		f := newWorkerFixture(t, nil)
		msg, acked := newRescheduleMessage(t, f)
		past := time.Now().Add(-time.Minute)
		msg.Job.NotAfter = &past

		if err := f.r.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("Expected nil for expired job, got %v", err)
		}
		if !*acked || gateHeld(t, f.gate) {
			t.Error("Expected expired job acked and gate released")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()
		f := newWorkerFixture(t, nil)
		msg, _ := newRescheduleMessage(t, f)
		msg.Job.Type = "analyze"

		if err := f.r.ProcessJob(context.Background(), msg); err == nil {
			t.Error("Expected error for unknown job type")
		}
		if gateHeld(t, f.gate) {
			t.Error("Expected gate released for unknown job")
		}
	})
}
