package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/secrets"
)

const testBoxKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestBox(t *testing.T) *secrets.Box {
	t.Helper()
	box, err := secrets.NewBox(testBoxKey)
	require.NoError(t, err)
	return box
}

func newTwoFactorFixture(t *testing.T) (*TwoFactorService, *repository.MemoryAccountStore, *models.Account) {
	t.Helper()

	accounts := repository.NewMemoryAccountStore()
	account := &models.Account{
		ID:    uuid.New(),
		Name:  "Test User",
		Email: "user@example.com",
	}
	require.NoError(t, accounts.Create(context.Background(), account))

	svc := NewTwoFactorService(accounts, newTestBox(t), "SimpleCrypto", testLogger())
	return svc, accounts, account
}

// enroll walks an account through setup and confirmation, returning the
// plaintext secret for code generation.
func enroll(t *testing.T, svc *TwoFactorService, accountID uuid.UUID) string {
	t.Helper()
	ctx := context.Background()

	enrollment, err := svc.BeginSetup(ctx, accountID)
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, svc.now())
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmSetup(ctx, accountID, code))

	return enrollment.Secret
}

func TestBeginSetup_StoresEncryptedPendingSecret(t *testing.T) {
	svc, accounts, account := newTwoFactorFixture(t)
	ctx := context.Background()

	enrollment, err := svc.BeginSetup(ctx, account.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.Secret)
	assert.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")
	assert.Contains(t, enrollment.OTPAuthURL, "SimpleCrypto")

	stored, err := accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, stored.TwoFactor.PendingSetup())
	assert.False(t, stored.TwoFactor.Enabled)
	assert.NotEqual(t, enrollment.Secret, stored.TwoFactor.TempSecret,
		"secret must not be stored in plaintext")

	opened, err := newTestBox(t).Open(stored.TwoFactor.TempSecret)
	require.NoError(t, err)
	assert.Equal(t, enrollment.Secret, opened)
}

func TestBeginSetup_AlreadyEnabled(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)
	enroll(t, svc, account.ID)

	_, err := svc.BeginSetup(context.Background(), account.ID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeAlreadyEnabled, svcErr.Code)
}

func TestBeginSetup_RestartReplacesPendingSecret(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)
	ctx := context.Background()

	first, err := svc.BeginSetup(ctx, account.ID)
	require.NoError(t, err)
	second, err := svc.BeginSetup(ctx, account.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Secret, second.Secret)

	// Only the latest secret confirms.
	staleCode, err := totp.GenerateCode(first.Secret, svc.now())
	require.NoError(t, err)
	err = svc.ConfirmSetup(ctx, account.ID, staleCode)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeInvalidTwoFactorCode, svcErr.Code)

	code, err := totp.GenerateCode(second.Secret, svc.now())
	require.NoError(t, err)
	assert.NoError(t, svc.ConfirmSetup(ctx, account.ID, code))
}

func TestConfirmSetup_WithoutPendingSetup(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)

	err := svc.ConfirmSetup(context.Background(), account.ID, "123456")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeNoPendingSetup, svcErr.Code)
}

func TestConfirmSetup_PromotesSecret(t *testing.T) {
	svc, accounts, account := newTwoFactorFixture(t)
	enroll(t, svc, account.ID)

	stored, err := accounts.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, stored.TwoFactor.Enabled)
	assert.Empty(t, stored.TwoFactor.TempSecret)
	assert.NotEmpty(t, stored.TwoFactor.Secret)
	require.NotNil(t, stored.TwoFactor.VerifiedAt)
}

func TestVerify_AcceptsAdjacentSteps(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)

	base := time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)
	svc.now = func() time.Time { return base }
	secret := enroll(t, svc, account.ID)
	ctx := context.Background()

	cases := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"current step", 0, true},
		{"previous step", -30 * time.Second, true},
		{"next step", 30 * time.Second, true},
		{"two steps behind", -90 * time.Second, false},
		{"two steps ahead", 90 * time.Second, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, err := totp.GenerateCode(secret, base.Add(tc.offset))
			require.NoError(t, err)

			ok, err := svc.Verify(ctx, account.ID, code)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestVerify_NotEnabledReturnsFalse(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)

	ok, err := svc.Verify(context.Background(), account.ID, "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedCodeIsJustInvalid(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)
	enroll(t, svc, account.ID)

	ok, err := svc.Verify(context.Background(), account.ID, "not-a-code")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisable_RequiresValidCode(t *testing.T) {
	svc, accounts, account := newTwoFactorFixture(t)
	secret := enroll(t, svc, account.ID)
	ctx := context.Background()

	err := svc.Disable(ctx, account.ID, "000000")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeInvalidTwoFactorCode, svcErr.Code)

	code, err := totp.GenerateCode(secret, svc.now())
	require.NoError(t, err)
	require.NoError(t, svc.Disable(ctx, account.ID, code))

	stored, err := accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, stored.TwoFactor.Enabled)
	assert.Empty(t, stored.TwoFactor.Secret)
	assert.Nil(t, stored.TwoFactor.VerifiedAt)
}

func TestDisable_NotEnabled(t *testing.T) {
	svc, _, account := newTwoFactorFixture(t)

	err := svc.Disable(context.Background(), account.ID, "123456")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, ErrCodeNotEnabled, svcErr.Code)
}
