// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"html"

	"taskhub/internal/models"
	"taskhub/internal/realtime"
	"taskhub/internal/repositories"
)

// NotificationService is the EventSink behind every committed transition: it
// persists a notification row per interested user, pushes it over the
// websocket hub and, when the user linked a chat, over telegram. All failures
// here are logged-and-dropped; the task mutation is already committed.
type NotificationService interface {
	EventSink
	ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) error
}

type notificationService struct {
	repo     repositories.NotificationRepository
	tasks    repositories.TaskRepository
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	hub      *realtime.NotificationHub
	tg       *TelegramNotifier
	logf     func(format string, args ...interface{})
}

func NewNotificationService(
	repo repositories.NotificationRepository,
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	users repositories.UserRepository,
	hub *realtime.NotificationHub,
	tg *TelegramNotifier,
	logf func(format string, args ...interface{}),
) NotificationService {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &notificationService{
		repo:     repo,
		tasks:    tasks,
		projects: projects,
		users:    users,
		hub:      hub,
		tg:       tg,
		logf:     logf,
	}
}

// Emit never returns an error and never panics back into the caller.
func (s *notificationService) Emit(ev models.TaskEvent) {
	ctx := context.Background()

	task, err := s.tasks.FindByID(ctx, ev.TaskID)
	if err != nil {
		s.logf("[notify] load task %d failed: %v", ev.TaskID, err)
		return
	}

	recipients := map[int64]struct{}{}
	title := fmt.Sprintf("task #%d", ev.TaskID)
	if task != nil {
		title = task.Title
		recipients[task.CreatorID] = struct{}{}
		if task.AssigneeID != nil {
			recipients[*task.AssigneeID] = struct{}{}
		}
		if project, err := s.projects.FindByID(ctx, task.ProjectID); err == nil && project != nil && project.LeaderID != nil {
			recipients[*project.LeaderID] = struct{}{}
		}
	}
	delete(recipients, ev.ActorID) // the actor knows what they did

	msg := formatEventMessage(ev, title)
	for userID := range recipients {
		n := &models.Notification{
			UserID:  userID,
			TaskID:  ev.TaskID,
			Type:    ev.Type,
			Message: msg,
		}
		if err := s.repo.Store(ctx, n); err != nil {
			s.logf("[notify] store for user %d failed: %v", userID, err)
			continue
		}
		if s.hub != nil {
			s.hub.Push(n)
		}
		s.pushTelegram(ctx, userID, msg)
	}
}

func (s *notificationService) pushTelegram(ctx context.Context, userID int64, msg string) {
	if s.tg == nil {
		return
	}
	chatID, allow, err := s.users.GetTelegramSettings(ctx, userID)
	if err != nil {
		s.logf("[notify] telegram settings for user %d failed: %v", userID, err)
		return
	}
	if !allow || chatID == 0 {
		return
	}
	if err := s.tg.Send(chatID, msg); err != nil {
		s.logf("[notify] telegram send to chat %d failed: %v", chatID, err)
	}
}

func formatEventMessage(ev models.TaskEvent, title string) string {
	t := html.EscapeString(title)
	switch ev.Type {
	case "task.start":
		return fmt.Sprintf("▶️ %s is now in progress", t)
	case "task.submit_review":
		return fmt.Sprintf("🔍 %s was submitted for review", t)
	case "task.approve":
		return fmt.Sprintf("✅ %s was approved and completed", t)
	case "task.reject":
		return fmt.Sprintf("↩️ %s was rejected: %s", t, html.EscapeString(ev.Detail))
	case "task.complete":
		return fmt.Sprintf("✅ %s was completed", t)
	case "task.reopen":
		return fmt.Sprintf("🔁 %s was reopened", t)
	case "task.delete":
		return fmt.Sprintf("🗑️ %s was deleted", t)
	}
	return fmt.Sprintf("%s: %s → %s", t, ev.OldStatus, ev.NewStatus)
}

func (s *notificationService) ListForUser(ctx context.Context, userID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, unreadOnly)
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, userID, id)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}
