package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

// withdrawalRepository implements WithdrawalStore on Postgres
type withdrawalRepository struct {
	db *db.DB
}

// NewWithdrawalRepository creates a new Postgres-backed WithdrawalStore
func NewWithdrawalRepository(database *db.DB) WithdrawalStore {
	return &withdrawalRepository{db: database}
}

const withdrawalColumns = `
	id, account_id, coin, network, address, amount, fee, net_amount,
	status, tx_hash, created_at, updated_at
`

func (r *withdrawalRepository) Create(ctx context.Context, w *models.WithdrawalRequest) error {
	query := `
		INSERT INTO withdrawals (id, account_id, coin, network, address,
		                         amount, fee, net_amount, status, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		w.ID, w.AccountID, w.Coin, w.Network, w.Address,
		w.Amount, w.Fee, w.NetAmount, w.Status, w.TxHash,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) FindByStatus(ctx context.Context, status models.WithdrawalStatus) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE status = $1 ORDER BY created_at`
	return r.queryWithdrawals(ctx, query, status)
}

func (r *withdrawalRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE account_id = $1 ORDER BY created_at DESC`
	return r.queryWithdrawals(ctx, query, accountID)
}

// MarkCompleted stamps the transaction reference and flips a pending request
// to completed. The status guard makes a second sweep over the same record a
// no-op rather than an error.
func (r *withdrawalRepository) MarkCompleted(ctx context.Context, id uuid.UUID, txHash string) error {
	query := `
		UPDATE withdrawals
		SET status = $2, tx_hash = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	_, err := r.db.ExecContext(ctx, query, id, models.WithdrawalStatusCompleted, txHash, models.WithdrawalStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal completed: %w", err)
	}
	return nil
}

func (r *withdrawalRepository) queryWithdrawals(ctx context.Context, query string, args ...any) ([]*models.WithdrawalRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []*models.WithdrawalRequest
	for rows.Next() {
		var w models.WithdrawalRequest
		err := rows.Scan(
			&w.ID, &w.AccountID, &w.Coin, &w.Network, &w.Address,
			&w.Amount, &w.Fee, &w.NetAmount, &w.Status, &w.TxHash,
			&w.CreatedAt, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		result = append(result, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}
	return result, nil
}
