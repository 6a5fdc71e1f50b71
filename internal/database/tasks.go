package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/napoleon/internal/models"
	"github.com/google/uuid"
)

const taskColumns = `id, name, due_date, description, estimated_time, priority, goals, task_type,
	notes, time_slot, scheduled_date, gcal_event_id, created_at, updated_at`

// TaskRepository handles task and completion database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var goalsJSON []byte
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.DueDate,
		&task.Description,
		&task.EstimatedTime,
		&task.Priority,
		&goalsJSON,
		&task.TaskType,
		&task.Notes,
		&task.TimeSlot,
		&task.ScheduledDate,
		&task.GCalEventID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(goalsJSON, &task.Goals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
	}
	return task, nil
}

// CreateTask inserts a task and assigns its id
func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	goalsJSON, err := json.Marshal(task.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}

	task.ID = uuid.New().String()
	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`,
		task.ID,
		task.Name,
		task.DueDate,
		task.Description,
		task.EstimatedTime,
		task.Priority,
		goalsJSON,
		task.TaskType,
		task.Notes,
		task.TimeSlot,
		task.ScheduledDate,
		task.GCalEventID,
		now,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// ListTasks returns every active task in creation order
func (r *TaskRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves an active task by id
func (r *TaskRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask overwrites the scheduling fields of a task. Last write wins.
func (r *TaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE tasks
		SET time_slot = $2, scheduled_date = $3, gcal_event_id = $4, notes = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at
	`, task.ID, task.TimeSlot, task.ScheduledDate, task.GCalEventID, task.Notes, time.Now().UTC()).Scan(&task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %s: %w", task.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

// DeleteTask hard-removes a task from the active set
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CompleteTask deletes the task and records the completion in a single transaction
func (r *TaskRepository) CompleteTask(ctx context.Context, record *models.CompletionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := scanTask(tx.QueryRowContext(ctx, `DELETE FROM tasks WHERE id = $1 RETURNING `+taskColumns, record.TaskID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("task %s: %w", record.TaskID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to remove task: %w", err)
	}

	snapshot, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO task_completions (task_id, start_time, end_time, completed_at, task)
		VALUES ($1, $2, $3, $4, $5)
	`, record.TaskID, record.StartTime, record.EndTime, record.CompletedAt, snapshot); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	record.Task = *task
	return nil
}
