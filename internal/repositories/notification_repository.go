package repositories

import (
	"context"
	"database/sql"

	"taskhub/internal/models"
)

type NotificationRepository interface {
	Store(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Store(ctx context.Context, n *models.Notification) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, task_id, type, message, read, created_at)
		VALUES ($1,$2,$3,$4,false,NOW())
		RETURNING id, created_at`,
		n.UserID, n.TaskID, n.Type, n.Message,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	q := `SELECT id, user_id, task_id, type, message, read, created_at
	      FROM notifications WHERE user_id = $1`
	if unreadOnly {
		q += ` AND read = false`
	}
	q += ` ORDER BY created_at DESC LIMIT 200`

	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE id = $1 AND user_id = $2`, id, userID)
	return err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read = true WHERE user_id = $1`, userID)
	return err
}
