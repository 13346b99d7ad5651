package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalStatusPending    WithdrawalStatus = "pending"
	WithdrawalStatusProcessing WithdrawalStatus = "processing"
	WithdrawalStatusCompleted  WithdrawalStatus = "completed"
	WithdrawalStatusFailed     WithdrawalStatus = "failed"
)

// WithdrawalRequest records a requested transfer out of a wallet.
//
// The wallet is debited Amount + Fee when the request is created; the
// counterpart receives NetAmount, which equals Amount. The fee is charged
// on top of the requested receive amount, never deducted from it.
type WithdrawalRequest struct {
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
	Coin      Currency         `db:"coin"`
	Network   string           `db:"network"`
	Address   string           `db:"address"`
	Status    WithdrawalStatus `db:"status"`
	TxHash    string           `db:"tx_hash"`
	Amount    decimal.Decimal  `db:"amount"`
	Fee       decimal.Decimal  `db:"fee"`
	NetAmount decimal.Decimal  `db:"net_amount"`
	ID        uuid.UUID        `db:"id"`
	AccountID uuid.UUID        `db:"account_id"`
}

// TotalDebit is the amount deducted from the wallet for this request.
func (w *WithdrawalRequest) TotalDebit() decimal.Decimal {
	return w.Amount.Add(w.Fee)
}
