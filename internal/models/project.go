// internal/models/project.go
package models

import "time"

// Project groups tasks inside a workspace. LeaderID, when set, designates the
// authority for review approval/rejection decisions.
type Project struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	LeaderID    *int64    `json:"leader_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsLeader reports whether userID is the project's designated leader.
func (p *Project) IsLeader(userID int64) bool {
	return p.LeaderID != nil && *p.LeaderID == userID
}
