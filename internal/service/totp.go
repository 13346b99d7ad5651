package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/secrets"
)

const (
	totpPeriod     = 30
	totpSecretSize = 20
	// totpSkew accepts one step of clock drift either side, so three codes
	// are valid at any instant: previous, current, next.
	totpSkew = 1
)

// Enrollment carries the material returned by BeginSetup: the base32
// secret for manual entry and the otpauth URI for QR enrollment.
type Enrollment struct {
	Secret     string
	OTPAuthURL string
}

// TwoFactorService owns the per-account TOTP secret lifecycle:
// Disabled -> PendingSetup -> Enabled -> Disabled. Secrets never leave
// the store unencrypted.
type TwoFactorService struct {
	accounts repository.AccountStore
	box      *secrets.Box
	issuer   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewTwoFactorService creates a new TwoFactorService
func NewTwoFactorService(accounts repository.AccountStore, box *secrets.Box, issuer string, logger *slog.Logger) *TwoFactorService {
	return &TwoFactorService{
		accounts: accounts,
		box:      box,
		issuer:   issuer,
		logger:   logger,
		now:      time.Now,
	}
}

// BeginSetup generates a fresh secret and stores it encrypted as the
// pending secret. Fails with already_enabled when 2FA is active.
func (s *TwoFactorService) BeginSetup(ctx context.Context, accountID uuid.UUID) (*Enrollment, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.TwoFactor.Enabled {
		return nil, &ServiceError{
			Code:    ErrCodeAlreadyEnabled,
			Message: "two-factor authentication is already enabled",
		}
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account.Email,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
	})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to generate secret",
			Err:     err,
		}
	}

	sealed, err := s.box.Seal(key.Secret())
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to encrypt secret",
			Err:     err,
		}
	}

	account.TwoFactor.TempSecret = sealed
	account.TwoFactor.Enabled = false
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to persist pending secret",
			Err:     err,
		}
	}

	return &Enrollment{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// ConfirmSetup promotes the pending secret once the caller proves
// possession with a valid code.
func (s *TwoFactorService) ConfirmSetup(ctx context.Context, accountID uuid.UUID, code string) error {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if account.TwoFactor.TempSecret == "" {
		return &ServiceError{
			Code:    ErrCodeNoPendingSetup,
			Message: "two-factor setup was not initiated",
		}
	}

	ok, err := s.validate(account.TwoFactor.TempSecret, code)
	if err != nil {
		return err
	}
	if !ok {
		return &ServiceError{
			Code:    ErrCodeInvalidTwoFactorCode,
			Message: "invalid authentication code",
		}
	}

	now := s.now()
	account.TwoFactor.Secret = account.TwoFactor.TempSecret
	account.TwoFactor.TempSecret = ""
	account.TwoFactor.Enabled = true
	account.TwoFactor.VerifiedAt = &now

	if err := s.accounts.Update(ctx, account); err != nil {
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to enable two-factor authentication",
			Err:     err,
		}
	}

	s.logger.Info("two-factor authentication enabled", "account_id", accountID)
	return nil
}

// Disable turns 2FA off after a valid code against the active secret.
func (s *TwoFactorService) Disable(ctx context.Context, accountID uuid.UUID, code string) error {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !account.TwoFactor.Enabled {
		return &ServiceError{
			Code:    ErrCodeNotEnabled,
			Message: "two-factor authentication is not enabled",
		}
	}

	ok, err := s.validate(account.TwoFactor.Secret, code)
	if err != nil {
		return err
	}
	if !ok {
		return &ServiceError{
			Code:    ErrCodeInvalidTwoFactorCode,
			Message: "invalid authentication code",
		}
	}

	account.TwoFactor.Enabled = false
	account.TwoFactor.Secret = ""
	account.TwoFactor.VerifiedAt = nil

	if err := s.accounts.Update(ctx, account); err != nil {
		return &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to disable two-factor authentication",
			Err:     err,
		}
	}

	s.logger.Info("two-factor authentication disabled", "account_id", accountID)
	return nil
}

// Enabled reports whether the account has 2FA active.
func (s *TwoFactorService) Enabled(ctx context.Context, accountID uuid.UUID) (bool, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	return account.TwoFactor.Enabled, nil
}

// Verify checks a code against the account's active secret. Returns false
// when 2FA is not enabled.
func (s *TwoFactorService) Verify(ctx context.Context, accountID uuid.UUID, code string) (bool, error) {
	account, err := s.getAccount(ctx, accountID)
	if err != nil {
		return false, err
	}
	if !account.TwoFactor.Enabled || account.TwoFactor.Secret == "" {
		return false, nil
	}
	return s.validate(account.TwoFactor.Secret, code)
}

func (s *TwoFactorService) validate(sealedSecret, code string) (bool, error) {
	secret, err := s.box.Open(sealedSecret)
	if err != nil {
		return false, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to decrypt secret",
			Err:     err,
		}
	}

	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (s *TwoFactorService) getAccount(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeNotFound,
			Message: "account not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to load account",
			Err:     err,
		}
	}
	return account, nil
}
