package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/simplecrypto/server/internal/db"
	"github.com/simplecrypto/server/internal/models"
)

const pqUniqueViolation = "23505"

// accountRepository implements AccountStore on Postgres
type accountRepository struct {
	db *db.DB
}

// NewAccountRepository creates a new Postgres-backed AccountStore
func NewAccountRepository(database *db.DB) AccountStore {
	return &accountRepository{db: database}
}

const accountColumns = `
	id, name, email, password_hash, full_name, phone, avatar,
	twofa_enabled, twofa_secret, twofa_temp_secret, twofa_verified_at,
	created_at, updated_at
`

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, name, email, password_hash, full_name, phone, avatar,
		                      twofa_enabled, twofa_secret, twofa_temp_secret, twofa_verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.FullName,
		account.Phone,
		account.Avatar,
		account.TwoFactor.Enabled,
		account.TwoFactor.Secret,
		account.TwoFactor.TempSecret,
		account.TwoFactor.VerifiedAt,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return models.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.scanAccount(r.db.QueryRowContext(ctx, query, email))
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, full_name = $3, phone = $4, avatar = $5,
		    twofa_enabled = $6, twofa_secret = $7, twofa_temp_secret = $8,
		    twofa_verified_at = $9, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		account.FullName,
		account.Phone,
		account.Avatar,
		account.TwoFactor.Enabled,
		account.TwoFactor.Secret,
		account.TwoFactor.TempSecret,
		account.TwoFactor.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *accountRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.FullName,
		&account.Phone,
		&account.Avatar,
		&account.TwoFactor.Enabled,
		&account.TwoFactor.Secret,
		&account.TwoFactor.TempSecret,
		&account.TwoFactor.VerifiedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &account, nil
}
