package handlers

import (
	"log/slog"
	"net/http"

	"github.com/simplecrypto/server/internal/auth"
	"github.com/simplecrypto/server/internal/config"
	"github.com/simplecrypto/server/internal/middleware"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/secrets"
	"github.com/simplecrypto/server/internal/service"
)

// Services bundles the constructed business services so background jobs
// can share the exact instances behind the HTTP surface.
type Services struct {
	Accounts      *service.AccountService
	Ledger        *service.LedgerService
	Withdrawals   *service.WithdrawalService
	TwoFactor     *service.TwoFactorService
	Investments   *service.InvestmentService
	Deposits      *service.DepositService
	Notifications *service.NotificationService
}

// NewServices wires the service layer on top of the stores.
func NewServices(stores *repository.Stores, tokens *auth.TokenManager, box *secrets.Box, cfg *config.Config, logger *slog.Logger) *Services {
	notifications := service.NewNotificationService(stores.Notifications, logger)
	ledger := service.NewLedgerService(stores.Ledger, logger)
	twoFactor := service.NewTwoFactorService(stores.Accounts, box, cfg.App.TwoFactorIssuer, logger)

	return &Services{
		Accounts:      service.NewAccountService(stores.Accounts, tokens, notifications, logger),
		Ledger:        ledger,
		Withdrawals:   service.NewWithdrawalService(ledger, twoFactor, stores.Withdrawals, notifications, logger),
		TwoFactor:     twoFactor,
		Investments:   service.NewInvestmentService(stores.Investments, notifications, logger),
		Deposits:      service.NewDepositService(),
		Notifications: notifications,
	}
}

// NewRouter builds the HTTP handler tree with all middleware applied.
func NewRouter(svcs *Services, stores *repository.Stores, tokens *auth.TokenManager, cfg *config.Config, logger *slog.Logger) http.Handler {
	h := NewHandler(
		svcs.Accounts,
		svcs.Ledger,
		svcs.Withdrawals,
		svcs.TwoFactor,
		svcs.Investments,
		svcs.Deposits,
		svcs.Notifications,
		cfg,
		logger,
	)

	requireAuth := middleware.RequireAuth(tokens)
	// Mounted inside requireAuth so cache entries are scoped to the
	// verified account, never to the bare header value.
	idempotent := middleware.Idempotency(stores.Idempotency, logger)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/signup", h.Signup)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)

	mux.Handle("GET /api/me", requireAuth(http.HandlerFunc(h.Me)))
	mux.Handle("PUT /api/profile", requireAuth(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("POST /api/profile/avatar", requireAuth(http.HandlerFunc(h.UploadAvatar)))

	mux.Handle("GET /api/balance", requireAuth(http.HandlerFunc(h.Balance)))

	mux.Handle("POST /api/withdraw", requireAuth(idempotent(http.HandlerFunc(h.Withdraw))))
	mux.Handle("GET /api/withdrawals", requireAuth(http.HandlerFunc(h.WithdrawalHistory)))

	mux.Handle("GET /api/2fa/status", requireAuth(http.HandlerFunc(h.TwoFactorStatus)))
	mux.Handle("POST /api/2fa/setup", requireAuth(http.HandlerFunc(h.TwoFactorSetup)))
	mux.Handle("POST /api/2fa/verify", requireAuth(http.HandlerFunc(h.TwoFactorVerify)))
	mux.Handle("POST /api/2fa/disable", requireAuth(http.HandlerFunc(h.TwoFactorDisable)))

	mux.HandleFunc("GET /api/plans", h.Plans)
	mux.Handle("POST /api/invest/payment/verify", requireAuth(idempotent(http.HandlerFunc(h.VerifyPayment))))
	mux.Handle("POST /api/invest/activate-free", requireAuth(http.HandlerFunc(h.ActivateFreePlan)))
	mux.Handle("GET /api/investments", requireAuth(http.HandlerFunc(h.Investments)))

	mux.HandleFunc("GET /api/deposit/options", h.DepositOptions)
	mux.Handle("GET /api/deposit/address", requireAuth(http.HandlerFunc(h.DepositAddress)))

	mux.Handle("GET /api/notifications", requireAuth(http.HandlerFunc(h.Notifications)))
	mux.Handle("POST /api/notifications/read", requireAuth(http.HandlerFunc(h.MarkAllNotificationsRead)))
	mux.Handle("POST /api/notifications/{id}/read", requireAuth(http.HandlerFunc(h.MarkNotificationRead)))

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Upload.Dir))))

	rateLimiter := middleware.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)

	return rateLimiter.Middleware(mux)
}
