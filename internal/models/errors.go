package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates the referenced entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange indicates a completion end time that is not after its start time
	ErrInvalidRange = errors.New("end time must be after start time")
	// ErrInFlight indicates the same operation is already running for the entity
	ErrInFlight = errors.New("operation already in progress")
	// ErrInvalidInput indicates a malformed request parameter outside task validation
	ErrInvalidInput = errors.New("invalid input")
)

// TaskField is the closed set of task draft fields that can carry a validation error
type TaskField string

const (
	FieldName          TaskField = "name"
	FieldDueDate       TaskField = "dueDate"
	FieldDescription   TaskField = "description"
	FieldEstimatedTime TaskField = "estimatedTime"
	FieldPriority      TaskField = "priority"
	FieldGoals         TaskField = "goals"
	FieldTaskType      TaskField = "taskType"
)

// TaskFields lists every validated field in form order
var TaskFields = []TaskField{
	FieldName,
	FieldDueDate,
	FieldDescription,
	FieldEstimatedTime,
	FieldPriority,
	FieldGoals,
	FieldTaskType,
}

// FieldErrors maps each invalid field to a human readable message
type FieldErrors map[TaskField]string

// Add records a message for field, keeping the first message if one already exists
func (fe FieldErrors) Add(field TaskField, message string) {
	if _, exists := fe[field]; exists {
		return
	}
	fe[field] = message
}

// Has reports whether field has an error
func (fe FieldErrors) Has(field TaskField) bool {
	_, ok := fe[field]
	return ok
}

// ValidationError carries every field-level problem found in a submission
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return fmt.Sprintf("validation failed: %s", strings.Join(keys, ", "))
}

// NetworkError wraps a failed call to a remote collaborator (AI provider, calendar, queue)
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
