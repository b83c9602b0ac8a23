package service

import (
	"context"
	"errors"

	"retail-rma-backend/internal/domain"
	"retail-rma-backend/internal/repository"
)

// NotificationService is the customer-facing read side of in-app
// notifications.
type NotificationService interface {
	ListNotifications(ctx context.Context, userID, limit, offset int64) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) error
}

type notificationService struct {
	store repository.Store
}

func NewNotificationService(store repository.Store) NotificationService {
	return &notificationService{store: store}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID, limit, offset int64) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	notes, err := s.store.Repos().Notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, domain.Serverf(err, "list notifications for user %d", userID)
	}
	return notes, nil
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, id, userID int64) error {
	err := s.store.Repos().Notifications.MarkAsRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrStatusConflict) {
			return domain.NotFoundf("notification %d not found", id)
		}
		return domain.Serverf(err, "mark notification %d read", id)
	}
	return nil
}
