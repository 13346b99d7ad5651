package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/auth"
	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
)

// AccountService handles signup, login and profile management
type AccountService struct {
	store    repository.AccountStore
	tokens   *auth.TokenManager
	notifier Notifier
	logger   *slog.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(store repository.AccountStore, tokens *auth.TokenManager, notifier Notifier, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger,
	}
}

// Signup registers an account and returns it with a session token.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*models.Account, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, "", &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "all fields are required",
		}
	}
	if !strings.Contains(email, "@") {
		return nil, "", &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "invalid email address",
		}
	}
	if len(password) < auth.MinPasswordLength {
		return nil, "", &ServiceError{
			Code:    ErrCodeInvalidRequest,
			Message: "password too short",
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to hash password",
			Err:     err,
		}
	}

	account := &models.Account{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	if err := s.store.Create(ctx, account); err != nil {
		if errors.Is(err, models.ErrDuplicateEmail) {
			return nil, "", &ServiceError{
				Code:    ErrCodeDuplicateEmail,
				Message: "email already exists",
			}
		}
		return nil, "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to create account",
			Err:     err,
		}
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to issue session token",
			Err:     err,
		}
	}

	s.logger.Info("account created", "account_id", account.ID, "email", account.Email)
	return account, token, nil
}

// Login authenticates by email and password and returns a session token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.store.GetByEmail(ctx, email)
	if err != nil || !auth.CheckPassword(password, account.PasswordHash) {
		// Same answer for unknown email and wrong password.
		s.logger.Info("failed login attempt", "email", email)
		return nil, "", &ServiceError{
			Code:    ErrCodeInvalidCredentials,
			Message: "invalid credentials",
		}
	}

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, "", &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to issue session token",
			Err:     err,
		}
	}

	s.notifier.Emit(ctx, account.ID, models.NotificationLogin, "New login detected on your account")
	return account, token, nil
}

// Get loads an account by id.
func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.store.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{Code: ErrCodeNotFound, Message: "account not found"}
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

// ProfileUpdate carries optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Avatar   *string
}

// UpdateProfile applies a partial profile update and returns the account.
func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.Account, error) {
	account, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		account.FullName = *update.FullName
		account.Name = *update.FullName
	}
	if update.Phone != nil {
		account.Phone = *update.Phone
	}
	if update.Avatar != nil {
		account.Avatar = *update.Avatar
	}

	if err := s.store.Update(ctx, account); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: "failed to update profile",
			Err:     err,
		}
	}
	return account, nil
}
