package models

import (
	"time"

	"github.com/google/uuid"
)

// TwoFactorState holds the TOTP enrollment state embedded in an account.
//
// At most one of Secret and TempSecret is meaningful: TempSecret is set
// while enrollment is pending confirmation, Secret once it is enabled.
// Both are stored encrypted (see internal/secrets).
type TwoFactorState struct {
	VerifiedAt *time.Time `db:"twofa_verified_at"`
	Secret     string     `db:"twofa_secret"`
	TempSecret string     `db:"twofa_temp_secret"`
	Enabled    bool       `db:"twofa_enabled"`
}

// PendingSetup reports whether enrollment was started but not yet confirmed.
func (s TwoFactorState) PendingSetup() bool {
	return !s.Enabled && s.TempSecret != ""
}

// Account represents a registered user of the platform
type Account struct {
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	FullName     string    `db:"full_name"`
	Phone        string    `db:"phone"`
	Avatar       string    `db:"avatar"`
	TwoFactor    TwoFactorState
	ID           uuid.UUID `db:"id"`
}
