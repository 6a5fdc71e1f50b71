// Package schedule merges tasks and calendar events into a day view and
// places tasks into free time.
package schedule

import (
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/benvon/napoleon/internal/models"
)

// ItemKind distinguishes the two sources of a timeline entry
type ItemKind string

const (
	KindTask  ItemKind = "task"
	KindEvent ItemKind = "event"
)

// TimelineItem is a display projection of a task or calendar event
type TimelineItem struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Time        string          `json:"time"`
	Kind        ItemKind        `json:"kind"`
	Priority    models.Priority `json:"priority,omitempty"`
	Description string          `json:"description,omitempty"`
}

// TaskTime is the slot the scheduler assigned, falling back to the due date
func TaskTime(t *models.Task) string {
	if t.TimeSlot != "" {
		return t.TimeSlot
	}
	return t.DueDate
}

func project(tasks []*models.Task, events []models.CalendarEvent) []TimelineItem {
	items := make([]TimelineItem, 0, len(tasks)+len(events))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		items = append(items, TimelineItem{
			ID:          t.ID,
			Title:       t.Name,
			Time:        TaskTime(t),
			Kind:        KindTask,
			Priority:    t.Priority,
			Description: t.Description,
		})
	}
	for _, e := range events {
		var at string
		if !e.Start.IsZero() {
			at = e.Start.Format(time.RFC3339)
		}
		items = append(items, TimelineItem{
			ID:          e.ID,
			Title:       e.Title,
			Time:        at,
			Kind:        KindEvent,
			Description: e.Description,
		})
	}
	return items
}

// compareTimes orders parseable times chronologically, then unparseable ones by raw text
func compareTimes(a, b string) int {
	ta, errA := models.ParseDate(a)
	tb, errB := models.ParseDate(b)
	switch {
	case errA == nil && errB == nil:
		return ta.Compare(tb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	}
}

// BuildTimeline yields tasks and events in ascending time order.
// The sort is stable and tasks are projected before events, so on equal
// times tasks come first. Date-only times are read as midnight UTC.
// Each range over the sequence recomputes from the current inputs.
func BuildTimeline(tasks []*models.Task, events []models.CalendarEvent) iter.Seq[TimelineItem] {
	return func(yield func(TimelineItem) bool) {
		items := project(tasks, events)
		slices.SortStableFunc(items, func(a, b TimelineItem) int {
			return compareTimes(a.Time, b.Time)
		})
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

// SortKey selects the ordering used by SortTasks
type SortKey string

const (
	SortByPriority SortKey = "priority"
	SortByTime     SortKey = "time"
)

// ErrUnknownSortKey is returned for sort keys other than priority and time
var ErrUnknownSortKey = errors.New("unknown sort key")

func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityMedium:
		return 1
	case models.PriorityLow:
		return 2
	default:
		return 3
	}
}

// SortTasks returns a sorted copy of tasks. Priority puts High first and unknown
// priorities last. Time compares TaskTime strings lexically. Both are stable.
func SortTasks(tasks []*models.Task, key SortKey) ([]*models.Task, error) {
	out := slices.Clone(tasks)
	switch key {
	case SortByPriority:
		slices.SortStableFunc(out, func(a, b *models.Task) int {
			return priorityRank(a.Priority) - priorityRank(b.Priority)
		})
	case SortByTime:
		slices.SortStableFunc(out, func(a, b *models.Task) int {
			ta, tb := TaskTime(a), TaskTime(b)
			switch {
			case ta < tb:
				return -1
			case ta > tb:
				return 1
			default:
				return 0
			}
		})
	default:
		return nil, ErrUnknownSortKey
	}
	return out, nil
}

// Prioritize orders tasks by due date ascending, then priority High to Low.
// Tasks with unparseable due dates go last.
func Prioritize(tasks []*models.Task) []*models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *models.Task) int {
		if c := compareTimes(a.DueDate, b.DueDate); c != 0 {
			return c
		}
		return priorityRank(a.Priority) - priorityRank(b.Priority)
	})
	return out
}
