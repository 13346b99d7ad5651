package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

// ledgerRepository implements LedgerStore on Postgres.
// Balances are stored one row per (account, currency) so the floor check
// and the update can run as a single conditional UPDATE.
type ledgerRepository struct {
	db *db.DB
}

// NewLedgerRepository creates a new Postgres-backed LedgerStore
func NewLedgerRepository(database *db.DB) LedgerStore {
	return &ledgerRepository{db: database}
}

func (r *ledgerRepository) Get(ctx context.Context, accountID uuid.UUID) (*models.WalletBalance, error) {
	query := `
		SELECT currency, amount, updated_at
		FROM wallet_balances
		WHERE account_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	balance := &models.WalletBalance{
		AccountID:  accountID,
		Currencies: make(map[models.Currency]decimal.Decimal),
	}

	for rows.Next() {
		var currency models.Currency
		var amount decimal.Decimal
		if err := rows.Scan(&currency, &amount, &balance.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan balance row: %w", err)
		}
		balance.Currencies[currency] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance rows: %w", err)
	}

	if len(balance.Currencies) == 0 {
		return nil, models.ErrNotFound
	}
	return balance, nil
}

func (r *ledgerRepository) Create(ctx context.Context, balance *models.WalletBalance) error {
	query := `
		INSERT INTO wallet_balances (account_id, currency, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, currency) DO NOTHING
	`

	for currency, amount := range balance.Currencies {
		if _, err := r.db.ExecContext(ctx, query, balance.AccountID, currency, amount); err != nil {
			return fmt.Errorf("failed to seed balance for %s: %w", currency, err)
		}
	}
	return nil
}

// ApplyDelta applies a signed delta in one statement; the WHERE clause keeps
// check-then-act atomic with respect to concurrent mutators of the same row.
func (r *ledgerRepository) ApplyDelta(ctx context.Context, accountID uuid.UUID, currency models.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	query := `
		UPDATE wallet_balances
		SET amount = amount + $3, updated_at = NOW()
		WHERE account_id = $1 AND currency = $2 AND amount + $3 >= 0
		RETURNING amount
	`

	var newAmount decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, accountID, currency, delta).Scan(&newAmount)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the row does not exist or the delta would go below zero.
		exists, existsErr := r.rowExists(ctx, accountID, currency)
		if existsErr != nil {
			return decimal.Zero, existsErr
		}
		if !exists {
			return decimal.Zero, models.ErrNotFound
		}
		return decimal.Zero, models.ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return newAmount, nil
}

func (r *ledgerRepository) rowExists(ctx context.Context, accountID uuid.UUID, currency models.Currency) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM wallet_balances WHERE account_id = $1 AND currency = $2)`
	if err := r.db.QueryRowContext(ctx, query, accountID, currency).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check balance row: %w", err)
	}
	return exists, nil
}
