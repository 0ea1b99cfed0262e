// internal/models/workspace.go
package models

import "time"

// Workspace is the top-level tenant boundary containing projects and members.
type Workspace struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Membership binds a user to a workspace with a role and an optional explicit
// permission-override set. For the owner role the override set is ignored:
// owner always holds the full capability catalog.
type Membership struct {
	UserID      int64        `json:"user_id"`
	WorkspaceID int64        `json:"workspace_id"`
	Role        Role         `json:"role"`
	Overrides   []Capability `json:"overrides,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}
