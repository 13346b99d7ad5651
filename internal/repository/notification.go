package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

// notificationRepository implements NotificationStore on Postgres
type notificationRepository struct {
	db *db.DB
}

// NewNotificationRepository creates a new Postgres-backed NotificationStore
func NewNotificationRepository(database *db.DB) NotificationStore {
	return &notificationRepository{db: database}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, account_id, type, message, is_read)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, n.ID, n.AccountID, n.Type, n.Message, n.IsRead).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Notification, error) {
	query := `
		SELECT id, account_id, type, message, is_read, created_at
		FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return result, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE account_id = $1 AND is_read = FALSE`
	if err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND account_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, accountID uuid.UUID) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE account_id = $1 AND is_read = FALSE`
	if _, err := r.db.ExecContext(ctx, query, accountID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
