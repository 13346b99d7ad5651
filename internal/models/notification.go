package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType categorizes account event notifications
type NotificationType string

const (
	NotificationLogin               NotificationType = "login"
	NotificationWithdrawalSubmitted NotificationType = "withdrawal_submitted"
	NotificationFreePlanActivated   NotificationType = "free_plan_activated"
	NotificationPlanCompleted       NotificationType = "plan_completed"
)

// Notification is a fire-and-forget account event record
type Notification struct {
	CreatedAt time.Time        `db:"created_at"`
	Type      NotificationType `db:"type"`
	Message   string           `db:"message"`
	IsRead    bool             `db:"is_read"`
	ID        uuid.UUID        `db:"id"`
	AccountID uuid.UUID        `db:"account_id"`
}
