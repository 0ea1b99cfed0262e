package repositories

import (
	"context"
	"database/sql"

	"taskhub/internal/models"
)

type WorkspaceRepository interface {
	Store(ctx context.Context, w *models.Workspace) error
	FindByID(ctx context.Context, id int64) (*models.Workspace, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Workspace, error)
	Update(ctx context.Context, w *models.Workspace) error
}

type workspaceRepository struct {
	db *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) WorkspaceRepository {
	return &workspaceRepository{db: db}
}

func (r *workspaceRepository) Store(ctx context.Context, w *models.Workspace) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO workspaces (name, owner_id, created_at, updated_at)
		VALUES ($1,$2,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		w.Name, w.OwnerID,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *workspaceRepository) FindByID(ctx context.Context, id int64) (*models.Workspace, error) {
	w := &models.Workspace{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, owner_id, created_at, updated_at FROM workspaces WHERE id = $1`, id,
	).Scan(&w.ID, &w.Name, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return w, nil
}

func (r *workspaceRepository) ListForUser(ctx context.Context, userID int64) ([]models.Workspace, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at
		FROM workspaces w
		JOIN memberships m ON m.workspace_id = w.id
		WHERE m.user_id = $1
		ORDER BY w.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Workspace
	for rows.Next() {
		var w models.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workspaceRepository) Update(ctx context.Context, w *models.Workspace) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET name=$1, updated_at=NOW() WHERE id=$2`, w.Name, w.ID)
	return err
}
