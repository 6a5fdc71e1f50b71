package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/benvon/napoleon/internal/models"
)

// MinDescriptionLength is the minimum number of characters in a task description
const MinDescriptionLength = 10

// ValidateTask checks every rule for a task draft and reports all violations together.
// An empty result means the draft is valid.
func ValidateTask(draft *models.TaskDraft) models.FieldErrors {
	errs := models.FieldErrors{}

	if SanitizeText(draft.Name) == "" {
		errs.Add(models.FieldName, "Task name is required.")
	}

	if strings.TrimSpace(draft.DueDate) == "" {
		errs.Add(models.FieldDueDate, "Due date is required.")
	} else if _, err := models.ParseDate(draft.DueDate); err != nil {
		errs.Add(models.FieldDueDate, "Due date must be a valid date.")
	}

	if utf8.RuneCountInString(strings.TrimSpace(draft.Description)) < MinDescriptionLength {
		errs.Add(models.FieldDescription, fmt.Sprintf("Description must be at least %d characters long.", MinDescriptionLength))
	}

	if strings.TrimSpace(string(draft.EstimatedTime)) == "" {
		errs.Add(models.FieldEstimatedTime, "Estimated time is required.")
	} else if v, err := draft.EstimatedTime.Float(); err != nil || !(v > 0) {
		errs.Add(models.FieldEstimatedTime, "Estimated time must be greater than 0.")
	}

	if p := strings.TrimSpace(draft.Priority); p != "" {
		if err := Validate.Var(p, "priority"); err != nil {
			errs.Add(models.FieldPriority, "Priority must be one of Low, Medium, High.")
		}
	}

	if len(draft.Goals) == 0 {
		errs.Add(models.FieldGoals, "Please select at least one goal.")
	} else {
		for _, g := range draft.Goals {
			if err := Validate.Var(strings.TrimSpace(g), "goal"); err != nil {
				errs.Add(models.FieldGoals, fmt.Sprintf("Unknown goal: %s.", g))
				break
			}
		}
	}

	if tt := strings.TrimSpace(draft.TaskType); tt == "" {
		errs.Add(models.FieldTaskType, "Task type is required.")
	} else if err := Validate.Var(tt, "task_type"); err != nil {
		errs.Add(models.FieldTaskType, "Task type must be one of Deep Work, Admin, Meeting, Physical.")
	}

	return errs
}

// TaskFromDraft validates a draft and builds the task to persist. Priority defaults to Medium.
// The returned error is a *models.ValidationError when any rule fails.
func TaskFromDraft(draft *models.TaskDraft) (*models.Task, error) {
	if errs := ValidateTask(draft); len(errs) > 0 {
		return nil, &models.ValidationError{Fields: errs}
	}

	// Validated above
	estimated, _ := draft.EstimatedTime.Float()

	priority := models.Priority(strings.TrimSpace(draft.Priority))
	if priority == "" {
		priority = models.PriorityMedium
	}

	goals := make([]models.Goal, 0, len(draft.Goals))
	seen := make(map[models.Goal]bool, len(draft.Goals))
	for _, g := range draft.Goals {
		goal := models.Goal(strings.TrimSpace(g))
		if seen[goal] {
			continue
		}
		seen[goal] = true
		goals = append(goals, goal)
	}

	return &models.Task{
		Name:          SanitizeText(draft.Name),
		DueDate:       strings.TrimSpace(draft.DueDate),
		Description:   SanitizeText(draft.Description),
		EstimatedTime: estimated,
		Priority:      priority,
		Goals:         goals,
		TaskType:      models.TaskType(strings.TrimSpace(draft.TaskType)),
		Notes:         SanitizeText(draft.Notes),
	}, nil
}
