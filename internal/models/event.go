// internal/models/event.go
package models

import "time"

// TaskEvent is the durable record written together with every committed status
// transition (and task deletion). ID is a uuid assigned by the service.
type TaskEvent struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"` // task.start, task.submit_review, ...
	TaskID    int64      `json:"task_id"`
	ActorID   int64      `json:"actor_id"`
	OldStatus TaskStatus `json:"old_status"`
	NewStatus TaskStatus `json:"new_status"`
	Detail    string     `json:"detail,omitempty"` // rejection reason etc.
	CreatedAt time.Time  `json:"created_at"`
}
