package repositories

import (
	"context"
	"database/sql"

	"taskhub/internal/models"
)

type EventRepository interface {
	Store(ctx context.Context, ev *models.TaskEvent) error
	ListByTask(ctx context.Context, taskID int64) ([]models.TaskEvent, error)
}

type eventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// storeEventTx is shared with taskRepository.TransitionStatus so the event row
// lands in the same transaction as the status flip.
func storeEventTx(ctx context.Context, q execer, ev *models.TaskEvent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO task_events (id, type, task_id, actor_id, old_status, new_status, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		ev.ID, ev.Type, ev.TaskID, ev.ActorID, ev.OldStatus, ev.NewStatus, ev.Detail, ev.CreatedAt,
	)
	return err
}

func (r *eventRepository) Store(ctx context.Context, ev *models.TaskEvent) error {
	return storeEventTx(ctx, r.db, ev)
}

func (r *eventRepository) ListByTask(ctx context.Context, taskID int64) ([]models.TaskEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, task_id, actor_id, old_status, new_status, detail, created_at
		FROM task_events WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TaskEvent
	for rows.Next() {
		var ev models.TaskEvent
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.TaskID, &ev.ActorID,
			&ev.OldStatus, &ev.NewStatus, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
