package repositories

import (
	"context"
	"database/sql"

	"taskhub/internal/models"
)

type ProjectRepository interface {
	Store(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id int64) (*models.Project, error)
	FindByWorkspace(ctx context.Context, workspaceID int64) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	UpdateLeader(ctx context.Context, id int64, leaderID *int64) error
	Delete(ctx context.Context, id int64) error
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Store(ctx context.Context, p *models.Project) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO projects (workspace_id, leader_id, name, description, created_at, updated_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		RETURNING id, created_at, updated_at`,
		p.WorkspaceID, p.LeaderID, p.Name, p.Description,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *projectRepository) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, leader_id, name, description, created_at, updated_at
		FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.WorkspaceID, &p.LeaderID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *projectRepository) FindByWorkspace(ctx context.Context, workspaceID int64) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workspace_id, leader_id, name, description, created_at, updated_at
		FROM projects WHERE workspace_id = $1 ORDER BY created_at ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.LeaderID, &p.Name, &p.Description,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, p *models.Project) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name=$1, description=$2, leader_id=$3, updated_at=NOW()
		WHERE id=$4`,
		p.Name, p.Description, p.LeaderID, p.ID)
	return err
}

func (r *projectRepository) UpdateLeader(ctx context.Context, id int64, leaderID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects SET leader_id=$1, updated_at=NOW() WHERE id=$2`, leaderID, id)
	return err
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}
