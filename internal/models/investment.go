package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestmentStatus represents the lifecycle state of an investment
type InvestmentStatus string

const (
	InvestmentStatusActive    InvestmentStatus = "active"
	InvestmentStatusCompleted InvestmentStatus = "completed"
)

// Investment is a time-boxed position in one of the fixed-return plans.
// EndDate is always after StartDate; the transition active -> completed
// happens exactly once and credits the payout to the settlement currency.
type Investment struct {
	StartDate   time.Time        `db:"start_date"`
	EndDate     time.Time        `db:"end_date"`
	CompletedAt *time.Time       `db:"completed_at"`
	PlanID      string           `db:"plan_id"`
	PlanTitle   string           `db:"plan_title"`
	Status      InvestmentStatus `db:"status"`
	TxHash      string           `db:"tx_hash"`
	Amount      decimal.Decimal  `db:"amount"`
	ROIPercent  decimal.Decimal  `db:"roi_percent"`
	IsFree      bool             `db:"is_free"`
	ID          uuid.UUID        `db:"id"`
	AccountID   uuid.UUID        `db:"account_id"`
}

// Payout is the profit credited at maturity: principal * rate / 100.
func (i *Investment) Payout() decimal.Decimal {
	return i.Amount.Mul(i.ROIPercent).Div(decimal.NewFromInt(100))
}

// Matured reports whether the investment term has elapsed at the given time.
func (i *Investment) Matured(now time.Time) bool {
	return !now.Before(i.EndDate)
}
