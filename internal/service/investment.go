package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// defaultTermDays applies to paid plans without an explicit term.
const defaultTermDays = 30

// InvestmentService creates investments and serves the plan catalogue
type InvestmentService struct {
	store    repository.InvestmentStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewInvestmentService creates a new InvestmentService
func NewInvestmentService(store repository.InvestmentStore, notifier Notifier, logger *slog.Logger) *InvestmentService {
	return &InvestmentService{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Plans returns the fixed plan catalogue.
func (s *InvestmentService) Plans() []models.Plan {
	return models.Plans
}

// Invest records a paid investment after the caller's payment was
// confirmed. On-chain verification of txHash is simulated, not performed.
func (s *InvestmentService) Invest(ctx context.Context, accountID uuid.UUID, planID string, amount decimal.Decimal, txHash string) (*models.Investment, error) {
	if planID == "" || !amount.IsPositive() {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "invalid payment data",
		}
	}

	plan, ok := models.FindPlan(planID)
	if !ok {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "invalid plan",
		}
	}

	if amount.LessThan(plan.Price) {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: fmt.Sprintf("invalid amount, required: %s", plan.Price.String()),
		}
	}

	termDays := plan.TermDays
	if termDays == 0 {
		termDays = defaultTermDays
	}

	now := s.now()
	inv := &models.Investment{
		ID:         uuid.New(),
		AccountID:  accountID,
		PlanID:     plan.ID,
		PlanTitle:  plan.Title,
		Amount:     amount,
		ROIPercent: plan.ROIPercent,
		StartDate:  now,
		EndDate:    now.Add(time.Duration(termDays) * 24 * time.Hour),
		Status:     models.InvestmentStatusActive,
		TxHash:     txHash,
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to create investment",
			Err:     err,
		}
	}

	s.logger.Info("investment created",
		"investment_id", inv.ID,
		"account_id", accountID,
		"plan_id", plan.ID,
		"amount", amount.String(),
	)
	return inv, nil
}

// ActivateFreeTrial starts the time-boxed free-trial plan. Each account
// may activate it at most models.MaxFreePlans times.
func (s *InvestmentService) ActivateFreeTrial(ctx context.Context, accountID uuid.UUID) (*models.Investment, error) {
	count, err := s.store.CountByPlan(ctx, accountID, models.FreePlanID)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to count free plans",
			Err:     err,
		}
	}
	if count >= models.MaxFreePlans {
		return nil, &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: fmt.Sprintf("free plan limit reached (max %d)", models.MaxFreePlans),
		}
	}

	plan, _ := models.FindPlan(models.FreePlanID)
	now := s.now()
	inv := &models.Investment{
		ID:         uuid.New(),
		AccountID:  accountID,
		PlanID:     plan.ID,
		PlanTitle:  plan.Title,
		Amount:     plan.Amount,
		ROIPercent: plan.ROIPercent,
		StartDate:  now,
		EndDate:    now.Add(time.Duration(plan.TermHours) * time.Hour),
		Status:     models.InvestmentStatusActive,
		IsFree:     true,
	}

	if err := s.store.Create(ctx, inv); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to activate free plan",
			Err:     err,
		}
	}

	s.notifier.Emit(ctx, accountID, models.NotificationFreePlanActivated,
		fmt.Sprintf("Free Plan activated! $%s invested for %d hour(s).", plan.Amount.String(), plan.TermHours))

	s.logger.Info("free trial activated", "investment_id", inv.ID, "account_id", accountID)
	return inv, nil
}

// ListByAccount returns the account's investments, newest first.
func (s *InvestmentService) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.Investment, error) {
	investments, err := s.store.FindByAccount(ctx, accountID)
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to fetch investments",
			Err:     err,
		}
	}
	return investments, nil
}
