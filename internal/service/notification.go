package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/KruglovEgor/RestoStats/internal/apiclient"
	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// NotificationService реализует обращения к /notifications
type NotificationService struct {
	backend domain.BackendClient
	logger  *zap.Logger
}

// NewNotificationService создаёт новый экземпляр NotificationService
func NewNotificationService(backend domain.BackendClient, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		backend: backend,
		logger:  logger,
	}
}

// List возвращает уведомления; unreadOnly оставляет только непрочитанные
func (s *NotificationService) List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	params := apiclient.NewParams().SetBool("nonLues", unreadOnly)

	var out []domain.Notification
	if err := s.backend.Get(ctx, "/notifications", params.Values(), &out); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

// MarkRead помечает уведомление прочитанным
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	path := "/notifications/" + url.PathEscape(id) + "/read"
	if err := s.backend.Send(ctx, http.MethodPatch, path, nil, nil, nil); err != nil {
		return fmt.Errorf("failed to mark notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllRead помечает все уведомления прочитанными
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.backend.Send(ctx, http.MethodPatch, "/notifications/mark-all-read", nil, nil, nil); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	s.logger.Info("all notifications marked as read")
	return nil
}

// Delete удаляет уведомление
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if err := s.backend.Send(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	s.logger.Info("notification deleted", zap.String("notification_id", id))
	return nil
}
