package job

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// fakeClock is a settable Clock for boundary testing.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingWithdrawal(t *testing.T, store *repository.MemoryWithdrawalStore, createdAt time.Time) *models.WithdrawalRequest {
	t.Helper()
	w := &models.WithdrawalRequest{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Coin:      models.CurrencyUSDT,
		Network:   "TRC20",
		Address:   "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		Amount:    decimal.RequireFromString("50"),
		Fee:       decimal.RequireFromString("1"),
		NetAmount: decimal.RequireFromString("50"),
		Status:    models.WithdrawalStatusPending,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.Create(context.Background(), w))
	return w
}

func findWithdrawal(t *testing.T, store *repository.MemoryWithdrawalStore, accountID uuid.UUID) *models.WithdrawalRequest {
	t.Helper()
	list, err := store.FindByAccount(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	return list[0]
}

func TestAutoApprove_CompletesAfterThreshold(t *testing.T) {
	store := repository.NewMemoryWithdrawalStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: created.Add(2*time.Minute + time.Second)}
	jobUnderTest := NewAutoApproveJob(store, clock, testLogger(), 30*time.Second, 2*time.Minute)

	w := pendingWithdrawal(t, store, created)
	jobUnderTest.RunOnce(context.Background())

	got := findWithdrawal(t, store, w.AccountID)
	assert.Equal(t, models.WithdrawalStatusCompleted, got.Status)
	assert.Regexp(t, "^0x[0-9a-f]{64}$", got.TxHash)
}

func TestAutoApprove_ExactlyAtThresholdStaysPending(t *testing.T) {
	store := repository.NewMemoryWithdrawalStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: created.Add(2 * time.Minute)}
	jobUnderTest := NewAutoApproveJob(store, clock, testLogger(), 30*time.Second, 2*time.Minute)

	w := pendingWithdrawal(t, store, created)
	jobUnderTest.RunOnce(context.Background())

	got := findWithdrawal(t, store, w.AccountID)
	assert.Equal(t, models.WithdrawalStatusPending, got.Status,
		"age must exceed the threshold strictly")
	assert.Empty(t, got.TxHash)
}

func TestAutoApprove_YoungRequestsUntouched(t *testing.T) {
	store := repository.NewMemoryWithdrawalStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: created.Add(10 * time.Second)}
	jobUnderTest := NewAutoApproveJob(store, clock, testLogger(), 30*time.Second, 2*time.Minute)

	w := pendingWithdrawal(t, store, created)
	jobUnderTest.RunOnce(context.Background())

	got := findWithdrawal(t, store, w.AccountID)
	assert.Equal(t, models.WithdrawalStatusPending, got.Status)
}

func TestAutoApprove_SecondSweepIsNoOp(t *testing.T) {
	store := repository.NewMemoryWithdrawalStore()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: created.Add(3 * time.Minute)}
	jobUnderTest := NewAutoApproveJob(store, clock, testLogger(), 30*time.Second, 2*time.Minute)

	w := pendingWithdrawal(t, store, created)
	jobUnderTest.RunOnce(context.Background())
	first := findWithdrawal(t, store, w.AccountID)

	clock.now = clock.now.Add(time.Minute)
	jobUnderTest.RunOnce(context.Background())
	second := findWithdrawal(t, store, w.AccountID)

	assert.Equal(t, first.TxHash, second.TxHash, "completed requests keep their tx hash")
}

func TestAutoApprove_StartStopsOnContextCancel(t *testing.T) {
	store := repository.NewMemoryWithdrawalStore()
	jobUnderTest := NewAutoApproveJob(store, SystemClock(), testLogger(), time.Millisecond, 2*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		jobUnderTest.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop after context cancellation")
	}
}
