package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// minAddressLength is the weakest sanity check we apply to destination
// addresses; format is otherwise opaque to the workflow.
const minAddressLength = 20

// SubmitWithdrawalRequest carries the validated input of one withdrawal
type SubmitWithdrawalRequest struct {
	Coin    models.Currency
	Network string
	Address string
	OTP     string
	Amount  decimal.Decimal
}

// WithdrawalService coordinates the withdrawal workflow: 2FA gate,
// fee/balance validation, atomic debit, persisted record, notification.
// Any failure before the debit aborts with no side effect.
type WithdrawalService struct {
	ledger    *LedgerService
	twoFactor *TwoFactorService
	store     repository.WithdrawalStore
	notifier  Notifier
	logger    *slog.Logger
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(
	ledger *LedgerService,
	twoFactor *TwoFactorService,
	store repository.WithdrawalStore,
	notifier Notifier,
	logger *slog.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		ledger:    ledger,
		twoFactor: twoFactor,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

// Submit runs the withdrawal workflow for one request.
//
// The wallet is debited amount + fee; the persisted record carries
// netAmount == amount, the exact sum the counterpart receives. The debit
// is the only effectful step before the record exists, and it is rolled
// back if the record cannot be created.
func (s *WithdrawalService) Submit(ctx context.Context, accountID uuid.UUID, req SubmitWithdrawalRequest) (*models.WithdrawalRequest, error) {
	fee, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if err := s.gate(ctx, accountID, req.OTP); err != nil {
		return nil, err
	}

	totalDebit := req.Amount.Add(fee)
	if _, err := s.ledger.ApplyDelta(ctx, accountID, req.Coin, totalDebit.Neg()); err != nil {
		return nil, err
	}

	withdrawal := &models.WithdrawalRequest{
		ID:        uuid.New(),
		AccountID: accountID,
		Coin:      req.Coin,
		Network:   req.Network,
		Address:   req.Address,
		Amount:    req.Amount,
		Fee:       fee,
		NetAmount: req.Amount,
		Status:    models.WithdrawalStatusPending,
	}

	if err := s.store.Create(ctx, withdrawal); err != nil {
		// The debit already happened; undo it so no funds vanish without
		// a persisted record.
		if _, refundErr := s.ledger.ApplyDelta(ctx, accountID, req.Coin, totalDebit); refundErr != nil {
			s.logger.Error("failed to roll back debit after record creation failure",
				"error", refundErr,
				"account_id", accountID,
				"amount", totalDebit.String(),
			)
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to persist withdrawal",
			Err:     err,
		}
	}

	s.notifier.Emit(ctx, accountID, models.NotificationWithdrawalSubmitted,
		fmt.Sprintf("Withdrawal request for %s %s submitted", req.Amount.String(), req.Coin))

	s.logger.Info("withdrawal submitted",
		"withdrawal_id", withdrawal.ID,
		"account_id", accountID,
		"coin", req.Coin,
		"network", req.Network,
		"amount", req.Amount.String(),
		"fee", fee.String(),
	)
	return withdrawal, nil
}

// History returns the account's withdrawal requests, newest first.
func (s *WithdrawalService) History(ctx context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	history, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to fetch withdrawal history",
			Err:     err,
		}
	}
	return history, nil
}

func (s *WithdrawalService) validate(req SubmitWithdrawalRequest) (decimal.Decimal, error) {
	if !req.Amount.IsPositive() {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "amount must be greater than 0",
		}
	}
	if len(req.Address) < minAddressLength {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "destination address is too short",
		}
	}

	fee, ok := WithdrawalFee(req.Coin, req.Network)
	if !ok {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: fmt.Sprintf("unsupported network %s for %s", req.Network, req.Coin),
		}
	}

	if minimum := MinWithdrawal(req.Coin); req.Amount.LessThan(minimum) {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: fmt.Sprintf("minimum withdrawal is %s %s", minimum.String(), req.Coin),
		}
	}

	return fee, nil
}

// gate enforces the hard 2FA precondition: not enabled means the caller
// must be sent to enrollment, never through.
func (s *WithdrawalService) gate(ctx context.Context, accountID uuid.UUID, code string) error {
	enabled, err := s.twoFactor.Enabled(ctx, accountID)
	if err != nil {
		return err
	}
	if !enabled {
		return &ServiceError{
			Code:    ErrCodeTwoFactorRequired,
			Message: "two-factor authentication is required for withdrawals",
		}
	}

	if code == "" {
		return &ServiceError{
			Code:    ErrCodeInvalidTwoFactorCode,
			Message: "two-factor code is required",
		}
	}

	ok, err := s.twoFactor.Verify(ctx, accountID, code)
	if err != nil {
		return err
	}
	if !ok {
		return &ServiceError{
			Code:    ErrCodeInvalidTwoFactorCode,
			Message: "invalid two-factor code",
		}
	}
	return nil
}
