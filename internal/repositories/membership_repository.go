package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"taskhub/internal/models"
)

type MembershipRepository interface {
	Store(ctx context.Context, m *models.Membership) error
	Find(ctx context.Context, userID, workspaceID int64) (*models.Membership, error)
	ListByWorkspace(ctx context.Context, workspaceID int64) ([]models.Membership, error)
	UpdateRole(ctx context.Context, userID, workspaceID int64, role models.Role) error
	UpdatePermissions(ctx context.Context, userID, workspaceID int64, perms []models.Capability) error
	Delete(ctx context.Context, userID, workspaceID int64) error
}

type membershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Store(ctx context.Context, m *models.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (user_id, workspace_id, role, overrides, created_at)
		VALUES ($1,$2,$3,$4,NOW())`,
		m.UserID, m.WorkspaceID, m.Role, capsToArray(m.Overrides),
	)
	return err
}

func (r *membershipRepository) Find(ctx context.Context, userID, workspaceID int64) (*models.Membership, error) {
	m := &models.Membership{}
	var overrides pq.StringArray
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, workspace_id, role, overrides, created_at
		FROM memberships WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	).Scan(&m.UserID, &m.WorkspaceID, &m.Role, &overrides, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Overrides = arrayToCaps(overrides)
	return m, nil
}

func (r *membershipRepository) ListByWorkspace(ctx context.Context, workspaceID int64) ([]models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, workspace_id, role, overrides, created_at
		FROM memberships WHERE workspace_id = $1 ORDER BY created_at ASC`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		var m models.Membership
		var overrides pq.StringArray
		if err := rows.Scan(&m.UserID, &m.WorkspaceID, &m.Role, &overrides, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Overrides = arrayToCaps(overrides)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *membershipRepository) UpdateRole(ctx context.Context, userID, workspaceID int64, role models.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role=$1 WHERE user_id=$2 AND workspace_id=$3`,
		role, userID, workspaceID)
	return err
}

func (r *membershipRepository) UpdatePermissions(ctx context.Context, userID, workspaceID int64, perms []models.Capability) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET overrides=$1 WHERE user_id=$2 AND workspace_id=$3`,
		capsToArray(perms), userID, workspaceID)
	return err
}

func (r *membershipRepository) Delete(ctx context.Context, userID, workspaceID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE user_id=$1 AND workspace_id=$2`, userID, workspaceID)
	return err
}

func capsToArray(caps []models.Capability) pq.StringArray {
	out := make(pq.StringArray, 0, len(caps))
	for _, c := range caps {
		out = append(out, string(c))
	}
	return out
}

func arrayToCaps(arr pq.StringArray) []models.Capability {
	if len(arr) == 0 {
		return nil
	}
	out := make([]models.Capability, 0, len(arr))
	for _, s := range arr {
		out = append(out, models.Capability(s))
	}
	return out
}
