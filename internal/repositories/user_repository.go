package repositories

import (
	"context"
	"database/sql"
	"time"

	"taskhub/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	// refresh helpers
	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error

	// telegram push settings
	UpdateTelegramLink(ctx context.Context, userID, chatID int64, enable bool) error
	GetTelegramSettings(ctx context.Context, userID int64) (chatID int64, notify bool, err error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, refresh_token, refresh_expires_at,
       telegram_chat_id, telegram_notify, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.RefreshToken, &u.RefreshExpiresAt, &u.TelegramChatID, &u.TelegramNotify, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, telegram_chat_id, telegram_notify, created_at)
		VALUES ($1,$2,$3,0,false,NOW())
		RETURNING id, created_at`,
		user.Name, user.Email, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token=$1, refresh_expires_at=$2 WHERE id=$3`,
		token, expiresAt, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token))
}

func (r *userRepository) ClearRefresh(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token=NULL, refresh_expires_at=NULL WHERE id=$1`, userID)
	return err
}

func (r *userRepository) UpdateTelegramLink(ctx context.Context, userID, chatID int64, enable bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET telegram_chat_id=$1, telegram_notify=$2 WHERE id=$3`,
		chatID, enable, userID)
	return err
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, userID int64) (int64, bool, error) {
	var chatID int64
	var notify bool
	err := r.db.QueryRowContext(ctx,
		`SELECT telegram_chat_id, telegram_notify FROM users WHERE id = $1`, userID,
	).Scan(&chatID, &notify)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return chatID, notify, nil
}
