package handlers

import (
	"log/slog"

	"github.com/simplecrypto/server/internal/config"
	"github.com/simplecrypto/server/internal/service"
)

// Handler holds the services behind the HTTP API
type Handler struct {
	accounts      *service.AccountService
	ledger        *service.LedgerService
	withdrawals   *service.WithdrawalService
	twoFactor     *service.TwoFactorService
	investments   *service.InvestmentService
	deposits      *service.DepositService
	notifications *service.NotificationService
	upload        config.UploadConfig
	tokenTTL      int // seconds, for the session cookie Max-Age
	logger        *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(
	accounts *service.AccountService,
	ledger *service.LedgerService,
	withdrawals *service.WithdrawalService,
	twoFactor *service.TwoFactorService,
	investments *service.InvestmentService,
	deposits *service.DepositService,
	notifications *service.NotificationService,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		accounts:      accounts,
		ledger:        ledger,
		withdrawals:   withdrawals,
		twoFactor:     twoFactor,
		investments:   investments,
		deposits:      deposits,
		notifications: notifications,
		upload:        cfg.Upload,
		tokenTTL:      int(cfg.Auth.TokenTTL.Seconds()),
		logger:        logger,
	}
}
