// notifications.go — уведомления пользователя: список и удаление через
// RecordService, отметка о прочтении.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/repository"
)

// NotificationService — сервис уведомлений.
type NotificationService struct {
	*RecordService[*model.Notification]
	repo repository.NotificationRepository
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		RecordService: NewRecordService[*model.Notification](model.KindNotifications, repo, PrepareNotification, logger),
		repo:          repo,
	}
}

// MarkRead отмечает уведомление пользователя прочитанным.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: уведомление %s", ErrNotFound, id)
		}
		return fmt.Errorf("отметка уведомления %s: %w", id, err)
	}
	return nil
}
