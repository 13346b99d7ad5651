package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/models"
)

// In-memory store implementations. Thread-safe; used by tests and by the
// memory store driver for running without Postgres.

// MemoryAccountStore is a thread-safe in-memory AccountStore
type MemoryAccountStore struct {
	mu         sync.RWMutex
	accounts   map[uuid.UUID]*models.Account
	emailIndex map[string]uuid.UUID
}

// NewMemoryAccountStore creates an empty MemoryAccountStore
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		accounts:   make(map[uuid.UUID]*models.Account),
		emailIndex: make(map[string]uuid.UUID),
	}
}

func (s *MemoryAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emailIndex[account.Email]; exists {
		return models.ErrDuplicateEmail
	}

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	clone := *account
	s.accounts[account.ID] = &clone
	s.emailIndex[account.Email] = account.ID
	return nil
}

func (s *MemoryAccountStore) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *MemoryAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	id, ok := s.emailIndex[email]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *MemoryAccountStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[account.ID]
	if !ok {
		return models.ErrNotFound
	}

	account.Email = stored.Email
	account.UpdatedAt = time.Now()
	clone := *account
	s.accounts[account.ID] = &clone
	return nil
}

// MemoryLedgerStore is a thread-safe in-memory LedgerStore
type MemoryLedgerStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]map[models.Currency]decimal.Decimal
	updated  map[uuid.UUID]time.Time
}

// NewMemoryLedgerStore creates an empty MemoryLedgerStore
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		balances: make(map[uuid.UUID]map[models.Currency]decimal.Decimal),
		updated:  make(map[uuid.UUID]time.Time),
	}
}

func (s *MemoryLedgerStore) Get(_ context.Context, accountID uuid.UUID) (*models.WalletBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.balances[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}

	currencies := make(map[models.Currency]decimal.Decimal, len(stored))
	for c, a := range stored {
		currencies[c] = a
	}
	return &models.WalletBalance{
		AccountID:  accountID,
		Currencies: currencies,
		UpdatedAt:  s.updated[accountID],
	}, nil
}

func (s *MemoryLedgerStore) Create(_ context.Context, balance *models.WalletBalance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.balances[balance.AccountID]; exists {
		return nil
	}

	currencies := make(map[models.Currency]decimal.Decimal, len(balance.Currencies))
	for c, a := range balance.Currencies {
		currencies[c] = a
	}
	s.balances[balance.AccountID] = currencies
	s.updated[balance.AccountID] = time.Now()
	return nil
}

func (s *MemoryLedgerStore) ApplyDelta(_ context.Context, accountID uuid.UUID, currency models.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.balances[accountID]
	if !ok {
		return decimal.Zero, models.ErrNotFound
	}

	newAmount := stored[currency].Add(delta)
	if newAmount.IsNegative() {
		return decimal.Zero, models.ErrInsufficientFunds
	}

	stored[currency] = newAmount
	s.updated[accountID] = time.Now()
	return newAmount, nil
}

// MemoryWithdrawalStore is a thread-safe in-memory WithdrawalStore
type MemoryWithdrawalStore struct {
	mu          sync.RWMutex
	withdrawals map[uuid.UUID]*models.WithdrawalRequest
}

// NewMemoryWithdrawalStore creates an empty MemoryWithdrawalStore
func NewMemoryWithdrawalStore() *MemoryWithdrawalStore {
	return &MemoryWithdrawalStore{withdrawals: make(map[uuid.UUID]*models.WithdrawalRequest)}
}

func (s *MemoryWithdrawalStore) Create(_ context.Context, w *models.WithdrawalRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	w.UpdatedAt = w.CreatedAt

	clone := *w
	s.withdrawals[w.ID] = &clone
	return nil
}

func (s *MemoryWithdrawalStore) FindByStatus(_ context.Context, status models.WithdrawalStatus) ([]*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.Status == status {
			clone := *w
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *MemoryWithdrawalStore) FindByAccount(_ context.Context, accountID uuid.UUID) ([]*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.AccountID == accountID {
			clone := *w
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *MemoryWithdrawalStore) MarkCompleted(_ context.Context, id uuid.UUID, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return models.ErrNotFound
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil
	}

	w.Status = models.WithdrawalStatusCompleted
	w.TxHash = txHash
	w.UpdatedAt = time.Now()
	return nil
}

// MemoryInvestmentStore is a thread-safe in-memory InvestmentStore
type MemoryInvestmentStore struct {
	mu          sync.Mutex
	investments map[uuid.UUID]*models.Investment
}

// NewMemoryInvestmentStore creates an empty MemoryInvestmentStore
func NewMemoryInvestmentStore() *MemoryInvestmentStore {
	return &MemoryInvestmentStore{investments: make(map[uuid.UUID]*models.Investment)}
}

func (s *MemoryInvestmentStore) Create(_ context.Context, inv *models.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *inv
	s.investments[inv.ID] = &clone
	return nil
}

func (s *MemoryInvestmentStore) FindByAccount(_ context.Context, accountID uuid.UUID) ([]*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Investment
	for _, inv := range s.investments {
		if inv.AccountID == accountID {
			clone := *inv
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (s *MemoryInvestmentStore) FindMatured(_ context.Context, now time.Time) ([]*models.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Investment
	for _, inv := range s.investments {
		if inv.Status == models.InvestmentStatusActive && inv.Matured(now) {
			clone := *inv
			result = append(result, &clone)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndDate.Before(result[j].EndDate) })
	return result, nil
}

func (s *MemoryInvestmentStore) Claim(_ context.Context, id uuid.UUID, completedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if inv.Status != models.InvestmentStatusActive {
		return false, nil
	}

	inv.Status = models.InvestmentStatusCompleted
	at := completedAt
	inv.CompletedAt = &at
	return true, nil
}

func (s *MemoryInvestmentStore) Release(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[id]
	if !ok {
		return models.ErrNotFound
	}
	inv.Status = models.InvestmentStatusActive
	inv.CompletedAt = nil
	return nil
}

func (s *MemoryInvestmentStore) CountByPlan(_ context.Context, accountID uuid.UUID, planID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, inv := range s.investments {
		if inv.AccountID == accountID && inv.PlanID == planID {
			count++
		}
	}
	return count, nil
}

// MemoryNotificationStore is a thread-safe in-memory NotificationStore
type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications []*models.Notification
	failCreate    error
}

// NewMemoryNotificationStore creates an empty MemoryNotificationStore
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

// FailCreateWith makes subsequent Create calls return err. Test hook.
func (s *MemoryNotificationStore) FailCreateWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreate = err
}

func (s *MemoryNotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate != nil {
		return s.failCreate
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	clone := *n
	s.notifications = append(s.notifications, &clone)
	return nil
}

func (s *MemoryNotificationStore) FindByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(result) < limit; i-- {
		if s.notifications[i].AccountID == accountID {
			clone := *s.notifications[i]
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (s *MemoryNotificationStore) CountUnread(_ context.Context, accountID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if n.AccountID == accountID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) MarkRead(_ context.Context, accountID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id && n.AccountID == accountID {
			n.IsRead = true
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MemoryNotificationStore) MarkAllRead(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.AccountID == accountID {
			n.IsRead = true
		}
	}
	return nil
}

// MemoryIdempotencyStore is a thread-safe in-memory IdempotencyStore
type MemoryIdempotencyStore struct {
	mu   sync.RWMutex
	keys map[string]*models.IdempotencyKey
}

// NewMemoryIdempotencyStore creates an empty MemoryIdempotencyStore
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: make(map[string]*models.IdempotencyKey)}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key, requestPath string) (*models.IdempotencyKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.keys[key+"|"+requestPath]
	if !ok {
		return nil, nil
	}
	clone := *stored
	return &clone, nil
}

func (s *MemoryIdempotencyStore) Store(_ context.Context, idemKey *models.IdempotencyKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mapKey := idemKey.Key + "|" + idemKey.RequestPath
	if _, exists := s.keys[mapKey]; exists {
		return nil
	}
	clone := *idemKey
	s.keys[mapKey] = &clone
	return nil
}

// Interface conformance checks
var (
	_ AccountStore      = (*MemoryAccountStore)(nil)
	_ LedgerStore       = (*MemoryLedgerStore)(nil)
	_ WithdrawalStore   = (*MemoryWithdrawalStore)(nil)
	_ InvestmentStore   = (*MemoryInvestmentStore)(nil)
	_ NotificationStore = (*MemoryNotificationStore)(nil)
	_ IdempotencyStore  = (*MemoryIdempotencyStore)(nil)
)
