package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskhub/internal/apperr"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, name, email, plainPassword string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)

	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)

	LinkTelegram(ctx context.Context, userID, chatID int64, enable bool) error
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) Register(ctx context.Context, name, email, plainPassword string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if strings.TrimSpace(plainPassword) == "" {
		return nil, apperr.Validation("password is required")
	}
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("email %q is already registered", email)
	}

	hash, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	// best-effort; registration stands even if the mail bounces
	if s.emailService != nil {
		_ = s.emailService.SendWelcomeEmail(user.Email, user.Name)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *userService) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(ctx, userID, token, expiresAt)
}

func (s *userService) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(ctx, token)
}

func (s *userService) LinkTelegram(ctx context.Context, userID, chatID int64, enable bool) error {
	return s.repo.UpdateTelegramLink(ctx, userID, chatID, enable)
}
