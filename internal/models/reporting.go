// internal/models/reporting.go
package models

// ReportingEdge is a directed manager→subordinate relationship scoped to one
// project. A subordinate has at most one manager per project; edges are only
// written through the set-reporting-relation operation, never inferred.
type ReportingEdge struct {
	ProjectID     int64 `json:"project_id"`
	ManagerID     int64 `json:"manager_id"`
	SubordinateID int64 `json:"subordinate_id"`
}
