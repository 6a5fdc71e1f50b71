package schedule

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/benvon/napoleon/internal/models"
)

func task(id, due, slot string, p models.Priority) *models.Task {
	return &models.Task{ID: id, Name: "task " + id, DueDate: due, TimeSlot: slot, Priority: p}
}

func event(id string, start time.Time) models.CalendarEvent {
	return models.CalendarEvent{ID: id, Title: "event " + id, Start: start, End: start.Add(time.Hour)}
}

func ids(items []TimelineItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestBuildTimeline_SortedAndIdempotent(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		task("t-late", "2025-01-10", "2025-01-10T15:00:00Z", models.PriorityLow),
		task("t-due", "2025-01-09", "", models.PriorityHigh),
		task("t-early", "2025-01-10", "2025-01-10T08:00:00Z", models.PriorityMedium),
	}
	events := []models.CalendarEvent{
		event("e-noon", time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)),
		event("e-early", time.Date(2025, 1, 10, 7, 0, 0, 0, time.UTC)),
	}

	seq := BuildTimeline(tasks, events)
	first := slices.Collect(seq)
	second := slices.Collect(seq)

	want := []string{"t-due", "e-early", "t-early", "e-noon", "t-late"}
	if got := ids(first); !slices.Equal(got, want) {
		t.Errorf("timeline = %v, want %v", got, want)
	}
	if !slices.Equal(first, second) {
		t.Errorf("Expected identical output on re-run:\n%v\n%v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if compareTimes(first[i-1].Time, first[i].Time) > 0 {
			t.Errorf("Items %d and %d out of order: %s > %s", i-1, i, first[i-1].Time, first[i].Time)
		}
	}
}

func TestBuildTimeline_TasksBeforeEventsOnTies(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	tasks := []*models.Task{task("t1", "2025-01-10", at.Format(time.RFC3339), models.PriorityHigh)}
	events := []models.CalendarEvent{event("e1", at)}

	got := ids(slices.Collect(BuildTimeline(tasks, events)))
	if !slices.Equal(got, []string{"t1", "e1"}) {
		t.Errorf("Expected task before event on equal time, got %v", got)
	}
}

func TestBuildTimeline_UnparseableLast(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		task("bad-b", "zzz", "", models.PriorityLow),
		task("ok", "2025-01-10", "", models.PriorityLow),
		task("bad-a", "aaa", "", models.PriorityLow),
	}
	events := []models.CalendarEvent{{ID: "no-start", Title: "floating"}}

	got := ids(slices.Collect(BuildTimeline(tasks, events)))
	want := []string{"ok", "no-start", "bad-a", "bad-b"}
	if !slices.Equal(got, want) {
		t.Errorf("timeline = %v, want %v", got, want)
	}
}

func TestBuildTimeline_ReflectsInputChanges(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{task("t1", "2025-01-10", "", models.PriorityLow)}
	seq := BuildTimeline(tasks, nil)
	if n := len(slices.Collect(seq)); n != 1 {
		t.Fatalf("Expected 1 item, got %d", n)
	}
	tasks[0].Name = "renamed"
	for item := range seq {
		if item.Title != "renamed" {
			t.Errorf("Expected recomputed projection, got title %q", item.Title)
		}
	}
}

func TestBuildTimeline_EarlyStop(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		task("a", "2025-01-01", "", models.PriorityLow),
		task("b", "2025-01-02", "", models.PriorityLow),
	}
	count := 0
	for range BuildTimeline(tasks, nil) {
		count++
		break
	}
	if count != 1 {
		t.Errorf("Expected iteration to stop after first item, got %d", count)
	}
}

func TestSortTasks(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		task("low", "", "2025-01-10T10:00:00Z", models.PriorityLow),
		task("high-1", "", "2025-01-10T12:00:00Z", models.PriorityHigh),
		task("weird", "", "2025-01-10T09:00:00Z", models.Priority("Someday")),
		task("med", "", "2025-01-10T08:00:00Z", models.PriorityMedium),
		task("high-2", "", "2025-01-10T11:00:00Z", models.PriorityHigh),
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortByPriority, []string{"high-1", "high-2", "med", "low", "weird"}},
		{SortByTime, []string{"med", "weird", "low", "high-2", "high-1"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			t.Parallel()
			got, err := SortTasks(tasks, tt.key)
			if err != nil {
				t.Fatalf("SortTasks: %v", err)
			}
			gotIDs := make([]string, len(got))
			for i, g := range got {
				gotIDs[i] = g.ID
			}
			if !slices.Equal(gotIDs, tt.want) {
				t.Errorf("SortTasks(%s) = %v, want %v", tt.key, gotIDs, tt.want)
			}
		})
	}

	if tasks[0].ID != "low" {
		t.Error("Expected SortTasks to leave its input untouched")
	}
}

func TestSortTasks_UnknownKey(t *testing.T) {
	t.Parallel()
	if _, err := SortTasks(nil, "alphabetical"); !errors.Is(err, ErrUnknownSortKey) {
		t.Errorf("Expected ErrUnknownSortKey, got %v", err)
	}
}

func TestPrioritize(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		task("later-high", "2025-01-12", "", models.PriorityHigh),
		task("soon-low", "2025-01-10", "", models.PriorityLow),
		task("soon-high", "2025-01-10", "", models.PriorityHigh),
		task("no-date", "", "", models.PriorityHigh),
	}
	got := Prioritize(tasks)
	want := []string{"soon-high", "soon-low", "later-high", "no-date"}
	for i, w := range want {
		if got[i].ID != w {
			t.Errorf("Prioritize()[%d] = %s, want %s", i, got[i].ID, w)
		}
	}
}
