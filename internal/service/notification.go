package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// notificationLimit caps how many notifications a listing returns.
const notificationLimit = 50

// Notifier is the fire-and-forget event sink consumed by workflows.
// Implementations must never propagate failures to the caller.
type Notifier interface {
	Emit(ctx context.Context, accountID uuid.UUID, typ models.NotificationType, message string)
}

// NotificationService persists and serves account event notifications
type NotificationService struct {
	store  repository.NotificationStore
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(store repository.NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger}
}

// Emit records an event. Failures are logged and swallowed so a broken
// sink can never fail a financial operation.
func (s *NotificationService) Emit(ctx context.Context, accountID uuid.UUID, typ models.NotificationType, message string) {
	n := &models.Notification{
		ID:        uuid.New(),
		AccountID: accountID,
		Type:      typ,
		Message:   message,
	}

	if err := s.store.Create(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			"error", err,
			"account_id", accountID,
			"type", typ,
		)
	}
}

// List returns the newest notifications for an account.
func (s *NotificationService) List(ctx context.Context, accountID uuid.UUID) ([]*models.Notification, error) {
	notifications, err := s.store.FindByAccount(ctx, accountID, notificationLimit)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to fetch notifications",
			Err:     err,
		}
	}
	return notifications, nil
}

// UnreadCount returns how many notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context, accountID uuid.UUID) (int, error) {
	count, err := s.store.CountUnread(ctx, accountID)
	if err != nil {
		return 0, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to count notifications",
			Err:     err,
		}
	}
	return count, nil
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	if err := s.store.MarkRead(ctx, accountID, id); err != nil {
		if err == models.ErrNotFound {
			return &ServiceError{Code: ErrCodeNotFound, Message: "notification not found"}
		}
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to mark notification read",
			Err:     err,
		}
	}
	return nil
}

// MarkAllRead marks every unread notification read.
func (s *NotificationService) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	if err := s.store.MarkAllRead(ctx, accountID); err != nil {
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to mark notifications read",
			Err:     err,
		}
	}
	return nil
}

var _ Notifier = (*NotificationService)(nil)
