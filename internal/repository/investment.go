package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

// investmentRepository implements InvestmentStore on Postgres
type investmentRepository struct {
	db *db.DB
}

// NewInvestmentRepository creates a new Postgres-backed InvestmentStore
func NewInvestmentRepository(database *db.DB) InvestmentStore {
	return &investmentRepository{db: database}
}

const investmentColumns = `
	id, account_id, plan_id, plan_title, amount, roi_percent, is_free,
	start_date, end_date, status, tx_hash, completed_at
`

func (r *investmentRepository) Create(ctx context.Context, inv *models.Investment) error {
	query := `
		INSERT INTO investments (id, account_id, plan_id, plan_title, amount, roi_percent,
		                         is_free, start_date, end_date, status, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.AccountID, inv.PlanID, inv.PlanTitle, inv.Amount, inv.ROIPercent,
		inv.IsFree, inv.StartDate, inv.EndDate, inv.Status, inv.TxHash,
	)
	if err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

func (r *investmentRepository) FindByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE account_id = $1 ORDER BY start_date DESC`
	return r.queryInvestments(ctx, query, accountID)
}

func (r *investmentRepository) FindMatured(ctx context.Context, now time.Time) ([]*models.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE status = $1 AND end_date <= $2 ORDER BY end_date`
	return r.queryInvestments(ctx, query, models.InvestmentStatusActive, now)
}

// Claim flips active -> completed and reports whether this call won the
// transition. Losing the race is not an error; it means another sweep
// already owns the payout.
func (r *investmentRepository) Claim(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	query := `
		UPDATE investments
		SET status = $2, completed_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, id, models.InvestmentStatusCompleted, completedAt, models.InvestmentStatusActive)
	if err != nil {
		return false, fmt.Errorf("failed to claim investment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}

func (r *investmentRepository) Release(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE investments
		SET status = $2, completed_at = NULL
		WHERE id = $1 AND status = $3
	`

	_, err := r.db.ExecContext(ctx, query, id, models.InvestmentStatusActive, models.InvestmentStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to release investment claim: %w", err)
	}
	return nil
}

func (r *investmentRepository) CountByPlan(ctx context.Context, accountID uuid.UUID, planID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM investments WHERE account_id = $1 AND plan_id = $2`
	if err := r.db.QueryRowContext(ctx, query, accountID, planID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count investments: %w", err)
	}
	return count, nil
}

func (r *investmentRepository) queryInvestments(ctx context.Context, query string, args ...any) ([]*models.Investment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query investments: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var result []*models.Investment
	for rows.Next() {
		var inv models.Investment
		err := rows.Scan(
			&inv.ID, &inv.AccountID, &inv.PlanID, &inv.PlanTitle, &inv.Amount, &inv.ROIPercent,
			&inv.IsFree, &inv.StartDate, &inv.EndDate, &inv.Status, &inv.TxHash, &inv.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan investment: %w", err)
		}
		result = append(result, &inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investments: %w", err)
	}
	return result, nil
}
