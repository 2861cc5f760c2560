package domain

import (
	"fmt"
	"strings"
)

const (
	DefaultPriority = "Medium"
	DefaultStatus   = "Pending"
)

// Task represents a single item on a user's list.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	UserID      int64  `json:"userId"`
}

// NewTask carries the fields a client may supply when creating a task.
// Nil fields fall back to their defaults.
type NewTask struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// TaskPatch is a partial update. Only non-nil fields overwrite the stored task.
type TaskPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

// Build validates the input and returns a task owned by ownerID with
// defaults applied to every omitted field.
func (n NewTask) Build(ownerID int64) (Task, error) {
	if n.Title == nil || strings.TrimSpace(*n.Title) == "" {
		return Task{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	t := Task{
		Title:       *n.Title,
		Description: "",
		Priority:    DefaultPriority,
		Status:      DefaultStatus,
		UserID:      ownerID,
	}
	if n.Description != nil {
		t.Description = *n.Description
	}
	if n.Priority != nil {
		t.Priority = *n.Priority
	}
	if n.Status != nil {
		t.Status = *n.Status
	}
	return t, nil
}

// Validate rejects patches that would blank the title.
func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrValidation)
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil
}

// Apply copies the supplied fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
}
