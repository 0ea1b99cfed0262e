// internal/models/report.go
package models

import "time"

// DailyReport is one user's work summary for one calendar day in a workspace.
// At most one report per (user, workspace, day).
type DailyReport struct {
	ID          int64     `json:"id"`
	WorkspaceID int64     `json:"workspace_id"`
	UserID      int64     `json:"user_id"`
	Day         string    `json:"day"` // YYYY-MM-DD
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportFilter selects daily reports for listing.
type ReportFilter struct {
	WorkspaceID int64
	UserIDs     []int64 // empty = no user restriction
	Day         *string
}
