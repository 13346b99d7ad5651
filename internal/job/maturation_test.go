package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/service"
)

type maturationFixture struct {
	job           *MaturationJob
	store         *repository.MemoryInvestmentStore
	ledger        *service.LedgerService
	notifications *repository.MemoryNotificationStore
	clock         *fakeClock
}

func newMaturationFixture(t *testing.T) *maturationFixture {
	t.Helper()

	store := repository.NewMemoryInvestmentStore()
	ledger := service.NewLedgerService(repository.NewMemoryLedgerStore(), testLogger())
	notifications := repository.NewMemoryNotificationStore()
	notifier := service.NewNotificationService(notifications, testLogger())
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	return &maturationFixture{
		job:           NewMaturationJob(store, ledger, notifier, clock, testLogger(), time.Minute),
		store:         store,
		ledger:        ledger,
		notifications: notifications,
		clock:         clock,
	}
}

func (f *maturationFixture) addInvestment(t *testing.T, accountID uuid.UUID, endsAt time.Time) *models.Investment {
	t.Helper()
	inv := &models.Investment{
		ID:         uuid.New(),
		AccountID:  accountID,
		PlanID:     models.FreePlanID,
		PlanTitle:  "Free Starter ($2000)",
		Amount:     decimal.RequireFromString("2000"),
		ROIPercent: decimal.RequireFromString("1.5"),
		StartDate:  endsAt.Add(-time.Hour),
		EndDate:    endsAt,
		Status:     models.InvestmentStatusActive,
		IsFree:     true,
	}
	require.NoError(t, f.store.Create(context.Background(), inv))
	return inv
}

func (f *maturationFixture) usdtBalance(t *testing.T, accountID uuid.UUID) decimal.Decimal {
	t.Helper()
	balances, err := f.ledger.GetBalances(context.Background(), accountID)
	require.NoError(t, err)
	return balances[models.CurrencyUSDT]
}

func TestMaturation_CreditsPayoutOnce(t *testing.T) {
	f := newMaturationFixture(t)
	accountID := uuid.New()
	ctx := context.Background()

	f.addInvestment(t, accountID, f.clock.now.Add(-time.Second))
	f.job.RunOnce(ctx)

	// Seed 50000 + payout 30 (2000 * 1.5%).
	assert.True(t, f.usdtBalance(t, accountID).Equal(decimal.RequireFromString("50030")))

	list, err := f.store.FindByAccount(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.InvestmentStatusCompleted, list[0].Status)
	require.NotNil(t, list[0].CompletedAt)
	assert.Equal(t, f.clock.now, *list[0].CompletedAt)

	notes, err := f.notifications.FindByAccount(ctx, accountID, 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationPlanCompleted, notes[0].Type)

	// A later sweep must not pay again.
	f.clock.now = f.clock.now.Add(time.Minute)
	f.job.RunOnce(ctx)
	assert.True(t, f.usdtBalance(t, accountID).Equal(decimal.RequireFromString("50030")))
}

func TestMaturation_NotYetMaturedUntouched(t *testing.T) {
	f := newMaturationFixture(t)
	accountID := uuid.New()
	ctx := context.Background()

	f.addInvestment(t, accountID, f.clock.now.Add(time.Minute))
	f.job.RunOnce(ctx)

	list, err := f.store.FindByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusActive, list[0].Status)
}

func TestMaturation_EndDateEqualNowMatures(t *testing.T) {
	f := newMaturationFixture(t)
	accountID := uuid.New()
	ctx := context.Background()

	f.addInvestment(t, accountID, f.clock.now)
	f.job.RunOnce(ctx)

	list, err := f.store.FindByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusCompleted, list[0].Status)
}

func TestMaturation_ConcurrentSweepsPayOnce(t *testing.T) {
	f := newMaturationFixture(t)
	accountID := uuid.New()
	ctx := context.Background()

	f.addInvestment(t, accountID, f.clock.now.Add(-time.Second))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.job.RunOnce(ctx)
		}()
	}
	wg.Wait()

	assert.True(t, f.usdtBalance(t, accountID).Equal(decimal.RequireFromString("50030")),
		"overlapping sweeps must credit exactly one payout")
}

// failingLedgerStore makes every call fail so a payout cannot be credited.
type failingLedgerStore struct{}

func (failingLedgerStore) Get(context.Context, uuid.UUID) (*models.WalletBalance, error) {
	return nil, errors.New("ledger unavailable")
}

func (failingLedgerStore) Create(context.Context, *models.WalletBalance) error {
	return errors.New("ledger unavailable")
}

func (failingLedgerStore) ApplyDelta(context.Context, uuid.UUID, models.Currency, decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("ledger unavailable")
}

func TestMaturation_ReleasesClaimWhenCreditFails(t *testing.T) {
	f := newMaturationFixture(t)
	accountID := uuid.New()
	ctx := context.Background()

	brokenLedger := service.NewLedgerService(failingLedgerStore{}, testLogger())
	notifier := service.NewNotificationService(f.notifications, testLogger())
	broken := NewMaturationJob(f.store, brokenLedger, notifier, f.clock, testLogger(), time.Minute)

	f.addInvestment(t, accountID, f.clock.now.Add(-time.Second))
	broken.RunOnce(ctx)

	list, err := f.store.FindByAccount(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.InvestmentStatusActive, list[0].Status,
		"claim must be released so the next sweep can retry")
	assert.Nil(t, list[0].CompletedAt)

	notes, err := f.notifications.FindByAccount(ctx, accountID, 10)
	require.NoError(t, err)
	assert.Empty(t, notes, "no completion notification without a payout")

	// Once the ledger recovers, the payout goes through.
	f.job.RunOnce(ctx)
	assert.True(t, f.usdtBalance(t, accountID).Equal(decimal.RequireFromString("50030")))
}
