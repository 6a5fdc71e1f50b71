package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/benvon/napoleon/internal/models"
)

type taskDoc struct {
	Name          string    `firestore:"name"`
	DueDate       string    `firestore:"dueDate"`
	Description   string    `firestore:"description"`
	EstimatedTime float64   `firestore:"estimatedTime"`
	Priority      string    `firestore:"priority"`
	Goals         []string  `firestore:"goals"`
	TaskType      string    `firestore:"taskType"`
	Notes         string    `firestore:"notes"`
	TimeSlot      string    `firestore:"timeSlot"`
	ScheduledDate string    `firestore:"scheduledDate"`
	GCalEventID   string    `firestore:"gcalEventId"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

type completionDoc struct {
	TaskID      string    `firestore:"taskId"`
	StartTime   time.Time `firestore:"startTime"`
	EndTime     time.Time `firestore:"endTime"`
	CompletedAt time.Time `firestore:"completedAt"`
	Task        taskDoc   `firestore:"task"`
}

func toTaskDoc(t *models.Task) taskDoc {
	goals := make([]string, len(t.Goals))
	for i, g := range t.Goals {
		goals[i] = string(g)
	}
	return taskDoc{
		Name:          t.Name,
		DueDate:       t.DueDate,
		Description:   t.Description,
		EstimatedTime: t.EstimatedTime,
		Priority:      string(t.Priority),
		Goals:         goals,
		TaskType:      string(t.TaskType),
		Notes:         t.Notes,
		TimeSlot:      t.TimeSlot,
		ScheduledDate: t.ScheduledDate,
		GCalEventID:   t.GCalEventID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (d taskDoc) toModel(id string) *models.Task {
	goals := make([]models.Goal, len(d.Goals))
	for i, g := range d.Goals {
		goals[i] = models.Goal(g)
	}
	return &models.Task{
		ID:            id,
		Name:          d.Name,
		DueDate:       d.DueDate,
		Description:   d.Description,
		EstimatedTime: d.EstimatedTime,
		Priority:      models.Priority(d.Priority),
		Goals:         goals,
		TaskType:      models.TaskType(d.TaskType),
		Notes:         d.Notes,
		TimeSlot:      d.TimeSlot,
		ScheduledDate: d.ScheduledDate,
		GCalEventID:   d.GCalEventID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (s *Store) tasksCol() *firestore.CollectionRef {
	return s.client.Collection(tasksCollection)
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	ref := s.tasksCol().NewDoc()
	if _, err := ref.Create(ctx, toTaskDoc(task)); err != nil {
		return fmt.Errorf("firestore CreateTask: %w", err)
	}
	task.ID = ref.ID
	return nil
}

func (s *Store) ListTasks(ctx context.Context) ([]*models.Task, error) {
	iter := s.tasksCol().OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	out := make([]*models.Task, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListTasks: %w", err)
		}

		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode taskDoc: %w", err)
		}
		out = append(out, doc.toModel(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	snap, err := s.tasksCol().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetTask: %w", err)
	}

	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetTask decode: %w", err)
	}
	return doc.toModel(id), nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	_, err := s.tasksCol().Doc(task.ID).Update(ctx, []firestore.Update{
		{Path: "timeSlot", Value: task.TimeSlot},
		{Path: "scheduledDate", Value: task.ScheduledDate},
		{Path: "gcalEventId", Value: task.GCalEventID},
		{Path: "notes", Value: task.Notes},
		{Path: "updatedAt", Value: task.UpdatedAt},
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("task %s: %w", task.ID, models.ErrNotFound)
		}
		return fmt.Errorf("firestore UpdateTask: %w", err)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := s.tasksCol().Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("firestore DeleteTask: %w", err)
	}
	return nil
}

// CompleteTask moves the task document into the completions collection inside a transaction
func (s *Store) CompleteTask(ctx context.Context, record *models.CompletionRecord) error {
	taskRef := s.tasksCol().Doc(record.TaskID)
	completionRef := s.client.Collection(completionsCollection).NewDoc()

	var removed *models.Task
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(taskRef)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("task %s: %w", record.TaskID, models.ErrNotFound)
			}
			return err
		}
		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode taskDoc: %w", err)
		}
		removed = doc.toModel(record.TaskID)

		if err := tx.Create(completionRef, completionDoc{
			TaskID:      record.TaskID,
			StartTime:   record.StartTime,
			EndTime:     record.EndTime,
			CompletedAt: record.CompletedAt,
			Task:        doc,
		}); err != nil {
			return err
		}
		return tx.Delete(taskRef)
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("firestore CompleteTask: %w", err)
	}

	record.Task = *removed
	return nil
}
