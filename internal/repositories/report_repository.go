package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"taskhub/internal/models"
)

type ReportRepository interface {
	// Upsert keeps at most one report per (workspace, user, day); resubmission
	// replaces the content.
	Upsert(ctx context.Context, rep *models.DailyReport) error
	Find(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, error)
}

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Upsert(ctx context.Context, rep *models.DailyReport) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO daily_reports (workspace_id, user_id, day, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		ON CONFLICT (workspace_id, user_id, day)
		DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING id, created_at, updated_at`,
		rep.WorkspaceID, rep.UserID, rep.Day, rep.Content,
	).Scan(&rep.ID, &rep.CreatedAt, &rep.UpdatedAt)
}

func (r *reportRepository) Find(ctx context.Context, filter models.ReportFilter) ([]models.DailyReport, error) {
	conditions := []string{"workspace_id = $1"}
	args := []interface{}{filter.WorkspaceID}
	argID := 2

	if len(filter.UserIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("user_id = ANY($%d)", argID))
		args = append(args, pq.Array(filter.UserIDs))
		argID++
	}
	if filter.Day != nil {
		conditions = append(conditions, fmt.Sprintf("day = $%d", argID))
		args = append(args, *filter.Day)
		argID++
	}

	q := `SELECT id, workspace_id, user_id, day, content, created_at, updated_at
	      FROM daily_reports WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY day DESC, user_id ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyReport
	for rows.Next() {
		var rep models.DailyReport
		if err := rows.Scan(&rep.ID, &rep.WorkspaceID, &rep.UserID, &rep.Day, &rep.Content,
			&rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}
