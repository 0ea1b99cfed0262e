package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"taskhub/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id int64) error
	ListChildren(ctx context.Context, parentID int64) ([]models.Task, error)

	// TransitionStatus flips the status only if the row still holds expected,
	// and writes the event record in the same transaction. Returns false when
	// zero rows matched (a concurrent transition won the race).
	TransitionStatus(ctx context.Context, id int64, expected, to models.TaskStatus, ev *models.TaskEvent) (bool, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, project_id, creator_id, assignee_id, parent_id, title, description,
       due_date, priority, status, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.ProjectID, &t.CreatorID, &t.AssigneeID, &t.ParentID,
		&t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			project_id, creator_id, assignee_id, parent_id, title, description,
			due_date, priority, status, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, query,
		task.ProjectID, task.CreatorID, task.AssigneeID, task.ParentID,
		task.Title, task.Description, task.DueDate, task.Priority, task.Status,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task := &models.Task{}
	err := scanTask(r.db.QueryRowContext(ctx, query, id), task)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks`

	conditions := []string{}
	args := []interface{}{}
	argID := 1

	if filter.ProjectID != nil {
		conditions = append(conditions, fmt.Sprintf("project_id = $%d", argID))
		args = append(args, *filter.ProjectID)
		argID++
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("assignee_id = $%d", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.CreatorID != nil {
		conditions = append(conditions, fmt.Sprintf("creator_id = $%d", argID))
		args = append(args, *filter.CreatorID)
		argID++
	}
	if filter.ParentID != nil {
		conditions = append(conditions, fmt.Sprintf("parent_id = $%d", argID))
		args = append(args, *filter.ParentID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			assignee_id=$1, parent_id=$2, title=$3, description=$4,
			due_date=$5, priority=$6, updated_at=$7
		WHERE id=$8`
	_, err := r.db.ExecContext(ctx, query,
		task.AssigneeID, task.ParentID, task.Title, task.Description,
		task.DueDate, task.Priority, task.UpdatedAt, task.ID,
	)
	return err
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) ListChildren(ctx context.Context, parentID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE parent_id = $1`
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) TransitionStatus(ctx context.Context, id int64, expected, to models.TaskStatus, ev *models.TaskEvent) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		to, id, expected)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// status moved under us; no event, no commit
		return false, nil
	}

	if ev != nil {
		if err := storeEventTx(ctx, tx, ev); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
