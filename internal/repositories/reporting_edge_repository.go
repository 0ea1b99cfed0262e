package repositories

import (
	"context"
	"database/sql"

	"taskhub/internal/models"
)

type ReportingEdgeRepository interface {
	// Upsert replaces the subordinate's manager edge in the project, or removes
	// it when managerID is nil.
	Upsert(ctx context.Context, projectID, subordinateID int64, managerID *int64) error
	ListEdges(ctx context.Context, projectID int64) ([]models.ReportingEdge, error)
}

type reportingEdgeRepository struct {
	db *sql.DB
}

func NewReportingEdgeRepository(db *sql.DB) ReportingEdgeRepository {
	return &reportingEdgeRepository{db: db}
}

func (r *reportingEdgeRepository) Upsert(ctx context.Context, projectID, subordinateID int64, managerID *int64) error {
	if managerID == nil {
		_, err := r.db.ExecContext(ctx,
			`DELETE FROM reporting_edges WHERE project_id=$1 AND subordinate_id=$2`,
			projectID, subordinateID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reporting_edges (project_id, subordinate_id, manager_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (project_id, subordinate_id) DO UPDATE SET manager_id = EXCLUDED.manager_id`,
		projectID, subordinateID, *managerID)
	return err
}

func (r *reportingEdgeRepository) ListEdges(ctx context.Context, projectID int64) ([]models.ReportingEdge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT project_id, manager_id, subordinate_id FROM reporting_edges WHERE project_id = $1`,
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReportingEdge
	for rows.Next() {
		var e models.ReportingEdge
		if err := rows.Scan(&e.ProjectID, &e.ManagerID, &e.SubordinateID); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
