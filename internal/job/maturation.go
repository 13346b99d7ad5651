package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/service"
)

// MaturationJob completes time-boxed investments whose term has elapsed,
// crediting the payout to the settlement currency.
//
// Exactly-once payout is guaranteed by claiming the record first: the
// status flips active -> completed before any money moves, so an
// overlapping sweep loses the claim and skips the record. A failed credit
// releases the claim for the next pass.
type MaturationJob struct {
	store    repository.InvestmentStore
	ledger   *service.LedgerService
	notifier service.Notifier
	clock    Clock
	logger   *slog.Logger
	interval time.Duration
}

// NewMaturationJob creates a MaturationJob with the given sweep interval.
func NewMaturationJob(
	store repository.InvestmentStore,
	ledger *service.LedgerService,
	notifier service.Notifier,
	clock Clock,
	logger *slog.Logger,
	interval time.Duration,
) *MaturationJob {
	return &MaturationJob{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (j *MaturationJob) Start(ctx context.Context) {
	j.logger.Info("investment maturation job started", "interval", j.interval)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("investment maturation job stopped")
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep over matured investments. Errors on one
// record do not abort the scan for the rest.
func (j *MaturationJob) RunOnce(ctx context.Context) {
	now := j.clock.Now()

	matured, err := j.store.FindMatured(ctx, now)
	if err != nil {
		j.logger.Error("failed to list matured investments", "error", err)
		return
	}

	for _, inv := range matured {
		j.mature(ctx, inv, now)
	}
}

func (j *MaturationJob) mature(ctx context.Context, inv *models.Investment, now time.Time) {
	claimed, err := j.store.Claim(ctx, inv.ID, now)
	if err != nil {
		j.logger.Error("failed to claim investment", "error", err, "investment_id", inv.ID)
		return
	}
	if !claimed {
		// Another sweep owns this record.
		return
	}

	payout := inv.Payout()
	if _, err := j.ledger.ApplyDelta(ctx, inv.AccountID, models.SettlementCurrency, payout); err != nil {
		j.logger.Error("failed to credit investment payout, releasing claim",
			"error", err,
			"investment_id", inv.ID,
			"payout", payout.String(),
		)
		if releaseErr := j.store.Release(ctx, inv.ID); releaseErr != nil {
			j.logger.Error("failed to release investment claim", "error", releaseErr, "investment_id", inv.ID)
		}
		return
	}

	j.notifier.Emit(ctx, inv.AccountID, models.NotificationPlanCompleted,
		fmt.Sprintf("%s completed! You earned $%s.", inv.PlanTitle, payout.String()))

	j.logger.Info("investment matured",
		"investment_id", inv.ID,
		"account_id", inv.AccountID,
		"payout", payout.String(),
	)
}
