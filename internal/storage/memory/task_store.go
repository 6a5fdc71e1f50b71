package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/google/uuid"
)

// TaskStore keeps active tasks and the completion log in process memory
type TaskStore struct {
	mu          sync.RWMutex
	tasks       map[string]*models.Task
	order       []string
	completions []models.CompletionRecord
	now         func() time.Time
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*models.Task),
		now:   time.Now,
	}
}

func cloneTask(t *models.Task) *models.Task {
	out := *t
	out.Goals = slices.Clone(t.Goals)
	return &out
}

func (s *TaskStore) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = uuid.New().String()
	now := s.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	s.tasks[task.ID] = cloneTask(task)
	s.order = append(s.order, task.ID)
	return nil
}

func (s *TaskStore) ListTasks(_ context.Context) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneTask(s.tasks[id]))
	}
	return out, nil
}

func (s *TaskStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return cloneTask(task), nil
}

func (s *TaskStore) UpdateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok {
		return fmt.Errorf("task %s: %w", task.ID, models.ErrNotFound)
	}
	existing.TimeSlot = task.TimeSlot
	existing.ScheduledDate = task.ScheduledDate
	existing.GCalEventID = task.GCalEventID
	existing.Notes = task.Notes
	existing.UpdatedAt = s.now().UTC()
	task.UpdatedAt = existing.UpdatedAt
	return nil
}

func (s *TaskStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeLocked(id) {
		return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *TaskStore) CompleteTask(_ context.Context, record *models.CompletionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[record.TaskID]
	if !ok {
		return fmt.Errorf("task %s: %w", record.TaskID, models.ErrNotFound)
	}
	record.Task = *cloneTask(task)
	s.removeLocked(record.TaskID)
	s.completions = append(s.completions, *record)
	return nil
}

// Completions returns a copy of the completion log
func (s *TaskStore) Completions() []models.CompletionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.completions)
}

func (s *TaskStore) removeLocked(id string) bool {
	if _, ok := s.tasks[id]; !ok {
		return false
	}
	delete(s.tasks, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return true
}
