package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// LedgerService is the single source of truth for wallet balances.
// All mutations go through ApplyDelta, which is serialized per account so
// concurrent deltas cannot race past the floor check. Different accounts
// proceed in parallel.
type LedgerService struct {
	store  repository.LedgerStore
	logger *slog.Logger

	// locks grows one entry per account seen and is never evicted;
	// entries are a bare mutex each, so this only matters if the
	// account population outgrows process memory.
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(store repository.LedgerStore, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: logger,
		locks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// accountLock returns the serialization point for one account.
func (s *LedgerService) accountLock(accountID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[accountID] = lock
	}
	return lock
}

// GetBalances returns the current balance snapshot, seeding the default
// balance set on first access.
func (s *LedgerService) GetBalances(ctx context.Context, accountID uuid.UUID) (map[models.Currency]decimal.Decimal, error) {
	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	balance, err := s.ensureBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return balance.Currencies, nil
}

// ApplyDelta atomically applies a signed delta to one currency amount.
// Credit is delta > 0, debit is delta < 0. Fails with insufficient_funds
// if the result would be negative and returns the new balance on success.
func (s *LedgerService) ApplyDelta(ctx context.Context, accountID uuid.UUID, currency models.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	if !models.ValidCurrency(currency) {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: fmt.Sprintf("unsupported currency: %s", currency),
		}
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.ensureBalance(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	newAmount, err := s.store.ApplyDelta(ctx, accountID, currency, delta)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInsufficientFunds,
			Message: "insufficient balance including fee",
		}
	}
	if err != nil {
		return decimal.Zero, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to apply balance delta",
			Err:     err,
		}
	}

	s.logger.Debug("balance delta applied",
		"account_id", accountID,
		"currency", currency,
		"delta", delta.String(),
		"balance", newAmount.String(),
	)
	return newAmount, nil
}

// ensureBalance loads the wallet, seeding defaults on first access.
// Callers must hold the account lock.
func (s *LedgerService) ensureBalance(ctx context.Context, accountID uuid.UUID) (*models.WalletBalance, error) {
	balance, err := s.store.Get(ctx, accountID)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to load balances",
			Err:     err,
		}
	}

	seeded := &models.WalletBalance{
		AccountID:  accountID,
		Currencies: models.DefaultBalances(),
	}
	if err := s.store.Create(ctx, seeded); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to seed balances",
			Err:     err,
		}
	}

	s.logger.Info("seeded default wallet balances", "account_id", accountID)
	return seeded, nil
}
