// Package repository provides data access layer implementations for the platform.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

// AccountStore defines the interface for account data access
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// LedgerStore defines the interface for wallet balance data access.
// ApplyDelta is the sole mutation primitive: it atomically applies a signed
// delta to one currency amount and fails with models.ErrInsufficientFunds
// if the result would be negative.
type LedgerStore interface {
	Get(ctx context.Context, accountID uuid.UUID) (*models.WalletBalance, error)
	Create(ctx context.Context, balance *models.WalletBalance) error
	ApplyDelta(ctx context.Context, accountID uuid.UUID, currency models.Currency, delta decimal.Decimal) (decimal.Decimal, error)
}

// WithdrawalStore defines the interface for withdrawal request data access
type WithdrawalStore interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	FindByStatus(ctx context.Context, status models.WithdrawalStatus) ([]*models.WithdrawalRequest, error)
	FindByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, txHash string) error
}

// InvestmentStore defines the interface for investment data access.
// Claim flips an active investment to completed and reports whether this
// call won the transition; Release undoes a claim whose payout failed.
type InvestmentStore interface {
	Create(ctx context.Context, inv *models.Investment) error
	FindByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Investment, error)
	FindMatured(ctx context.Context, now time.Time) ([]*models.Investment, error)
	Claim(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
	CountByPlan(ctx context.Context, accountID uuid.UUID, planID string) (int, error)
}

// NotificationStore defines the interface for notification data access
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	FindByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, accountID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, accountID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, accountID uuid.UUID) error
}

// IdempotencyStore defines the interface for idempotency key storage
type IdempotencyStore interface {
	Get(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Store(ctx context.Context, idemKey *models.IdempotencyKey) error
}

// Stores bundles every store behind one handle for wiring.
type Stores struct {
	Accounts      AccountStore
	Ledger        LedgerStore
	Withdrawals   WithdrawalStore
	Investments   InvestmentStore
	Notifications NotificationStore
	Idempotency   IdempotencyStore
}

// NewPostgresStores builds the Postgres-backed store set.
func NewPostgresStores(database *db.DB) *Stores {
	return &Stores{
		Accounts:      NewAccountRepository(database),
		Ledger:        NewLedgerRepository(database),
		Withdrawals:   NewWithdrawalRepository(database),
		Investments:   NewInvestmentRepository(database),
		Notifications: NewNotificationRepository(database),
		Idempotency:   NewIdempotencyRepository(database),
	}
}

// NewMemoryStores builds the in-memory store set used by tests and demo mode.
func NewMemoryStores() *Stores {
	return &Stores{
		Accounts:      NewMemoryAccountStore(),
		Ledger:        NewMemoryLedgerStore(),
		Withdrawals:   NewMemoryWithdrawalStore(),
		Investments:   NewMemoryInvestmentStore(),
		Notifications: NewMemoryNotificationStore(),
		Idempotency:   NewMemoryIdempotencyStore(),
	}
}
