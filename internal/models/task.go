// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// IsValidTaskStatus reports whether s is one of the four persisted statuses.
func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task represents the structure of a task in the system.
// ParentID, if set, references a task in the same project (subtask).
type Task struct {
	ID          int64        `json:"id"`
	ProjectID   int64        `json:"project_id"`
	CreatorID   int64        `json:"creator_id"`
	AssigneeID  *int64       `json:"assignee_id,omitempty"`
	ParentID    *int64       `json:"parent_id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsAssignee reports whether userID is the task's current assignee.
func (t *Task) IsAssignee(userID int64) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	ProjectID  *int64
	AssigneeID *int64
	CreatorID  *int64
	ParentID   *int64
	Status     *TaskStatus
}
