package job

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// AutoApproveJob completes pending withdrawals after a fixed delay.
//
// This is a simulation stand-in for an external settlement oracle: there
// is no on-chain confirmation behind the transition, only elapsed time.
type AutoApproveJob struct {
	store     repository.WithdrawalStore
	clock     Clock
	logger    *slog.Logger
	interval  time.Duration
	threshold time.Duration
}

// NewAutoApproveJob creates an AutoApproveJob with the given sweep
// interval and completion threshold.
func NewAutoApproveJob(store repository.WithdrawalStore, clock Clock, logger *slog.Logger, interval, threshold time.Duration) *AutoApproveJob {
	return &AutoApproveJob{
		store:     store,
		clock:     clock,
		logger:    logger,
		interval:  interval,
		threshold: threshold,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (j *AutoApproveJob) Start(ctx context.Context) {
	j.logger.Info("withdrawal auto-approval job started",
		"interval", j.interval,
		"threshold", j.threshold,
	)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("withdrawal auto-approval job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep over pending withdrawals. Errors on one
// record do not abort the scan for the rest.
func (j *AutoApproveJob) RunOnce(ctx context.Context) {
	pending, err := j.store.FindByStatus(ctx, models.WithdrawalStatusPending)
	if err != nil {
		j.logger.Error("failed to list pending withdrawals", "error", err)
		return
	}

	now := j.clock.Now()
	for _, w := range pending {
		if now.Sub(w.CreatedAt) <= j.threshold {
			continue
		}

		txHash, err := synthesizeTxHash()
		if err != nil {
			j.logger.Error("failed to synthesize tx hash", "error", err, "withdrawal_id", w.ID)
			continue
		}

		if err := j.store.MarkCompleted(ctx, w.ID, txHash); err != nil {
			j.logger.Error("failed to complete withdrawal", "error", err, "withdrawal_id", w.ID)
			continue
		}

		j.logger.Info("auto-approved withdrawal",
			"withdrawal_id", w.ID,
			"account_id", w.AccountID,
			"coin", w.Coin,
			"amount", w.Amount.String(),
		)
	}
}

// synthesizeTxHash fabricates a 32-byte transaction reference.
func synthesizeTxHash() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(buf), nil
}
