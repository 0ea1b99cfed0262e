package models

import "time"

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	// refresh token storage
	RefreshToken     *string    `json:"-"`
	RefreshExpiresAt *time.Time `json:"-"`

	// telegram push settings
	TelegramChatID int64 `json:"-"`
	TelegramNotify bool  `json:"telegram_notify"`

	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
