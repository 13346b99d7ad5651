package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplecrypto/server/internal/auth"
	"github.com/simplecrypto/server/internal/config"
	"github.com/simplecrypto/server/internal/repository"
	"github.com/simplecrypto/server/internal/secrets"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type apiFixture struct {
	server *httptest.Server
	client *http.Client
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:         "test-secret",
			TOTPEncryptionKey: testEncryptionKey,
			TokenTTL:          time.Hour,
			RateLimitRPS:      1000,
			RateLimitBurst:    1000,
		},
		Upload: config.UploadConfig{Dir: t.TempDir(), MaxBytes: 5 << 20},
		App:    config.AppConfig{TwoFactorIssuer: "SimpleCrypto"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	box, err := secrets.NewBox(cfg.Auth.TOTPEncryptionKey)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	require.NoError(t, err)

	stores := repository.NewMemoryStores()
	svcs := NewServices(stores, tokens, box, cfg, logger)
	router := NewRouter(svcs, stores, tokens, cfg, logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &apiFixture{
		server: server,
		client: &http.Client{Jar: jar},
	}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

// asNewClient returns a fixture for a second browser session against the
// same server, with its own cookie jar.
func (f *apiFixture) asNewClient(t *testing.T) *apiFixture {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiFixture{server: f.server, client: &http.Client{Jar: jar}}
}

func (f *apiFixture) signup(t *testing.T, email string) {
	t.Helper()
	resp, _ := f.do(t, http.MethodPost, "/api/signup", map[string]string{
		"name":     "Test User",
		"email":    email,
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

// enable2FA walks the enrollment flow and returns the plaintext secret.
func (f *apiFixture) enable2FA(t *testing.T) string {
	t.Helper()

	resp, body := f.do(t, http.MethodPost, "/api/2fa/setup", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	secret, _ := body["secret"].(string)
	require.NotEmpty(t, secret)
	assert.Contains(t, body["qrCode"], "data:image/png;base64,")

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	resp, _ = f.do(t, http.MethodPost, "/api/2fa/verify", map[string]string{"code": code}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	return secret
}

func TestAPI_SignupLoginLogout(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodGet, "/api/me", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, false, body["twoFactorEnabled"])

	resp, _ = f.do(t, http.MethodPost, "/api/logout", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": "correct horse battery",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/me", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_LoginWrongPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodPost, "/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": "totally wrong pass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid_credentials", body["code"])
}

func TestAPI_BalanceSeededOnFirstAccess(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodGet, "/api/balance", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	balances := body["balances"].(map[string]any)
	assert.Equal(t, "1.5", balances["BTC"])
	assert.Equal(t, "50000", balances["USDT"])
}

func TestAPI_WithdrawRequiresTwoFactor(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     "123456",
		"amount":  "50",
	}, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "two_factor_required", body["code"])
	assert.Equal(t, "security.html", body["redirect"])

	// No debit happened.
	resp, body = f.do(t, http.MethodGet, "/api/balance", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "50000", body["balances"].(map[string]any)["USDT"])
}

func TestAPI_WithdrawalFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")
	secret := f.enable2FA(t)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "50",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %v", body)

	withdrawal := body["withdrawal"].(map[string]any)
	assert.Equal(t, "50", withdrawal["amount"])
	assert.Equal(t, "1", withdrawal["fee"])
	assert.Equal(t, "50", withdrawal["netAmount"])
	assert.Equal(t, "pending", withdrawal["status"])

	resp, body = f.do(t, http.MethodGet, "/api/balance", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "49949", body["balances"].(map[string]any)["USDT"])

	resp, body = f.do(t, http.MethodGet, "/api/withdrawals", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["withdrawals"].([]any), 1)

	// The submission also produced a notification.
	resp, body = f.do(t, http.MethodGet, "/api/notifications", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	types := []string{}
	for _, n := range body["notifications"].([]any) {
		types = append(types, n.(map[string]any)["type"].(string))
	}
	assert.Contains(t, types, "withdrawal_submitted")
}

func TestAPI_WithdrawIdempotencyReplay(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")
	secret := f.enable2FA(t)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	payload := map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "50",
	}
	headers := map[string]string{"Idempotency-Key": "retry-1"}

	resp, first := f.do(t, http.MethodPost, "/api/withdraw", payload, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, second := f.do(t, http.MethodPost, "/api/withdraw", payload, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get("X-Idempotent-Replayed"))
	assert.Equal(t,
		first["withdrawal"].(map[string]any)["id"],
		second["withdrawal"].(map[string]any)["id"],
		"replay returns the original record")

	// Exactly one debit.
	resp, body := f.do(t, http.MethodGet, "/api/balance", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "49949", body["balances"].(map[string]any)["USDT"])
}

func TestAPI_WithdrawIdempotencyKeyIsPerUser(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")
	aliceSecret := f.enable2FA(t)

	g := f.asNewClient(t)
	g.signup(t, "bob@example.com")
	bobSecret := g.enable2FA(t)

	headers := map[string]string{"Idempotency-Key": "shared-key"}

	code, err := totp.GenerateCode(aliceSecret, time.Now())
	require.NoError(t, err)
	resp, alice := f.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "50",
	}, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Bob reusing Alice's key must get his own withdrawal, not a replay
	// of Alice's cached response.
	code, err = totp.GenerateCode(bobSecret, time.Now())
	require.NoError(t, err)
	resp, bob := g.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "25",
	}, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Idempotent-Replayed"))
	assert.NotEqual(t,
		alice["withdrawal"].(map[string]any)["id"],
		bob["withdrawal"].(map[string]any)["id"])
	assert.Equal(t, "25", bob["withdrawal"].(map[string]any)["amount"])

	// Bob's own debit happened: 50000 - 25 - 1 fee.
	resp, body := g.do(t, http.MethodGet, "/api/balance", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "49974", body["balances"].(map[string]any)["USDT"])
}

func TestAPI_WithdrawIdempotencyKeyWithoutSession(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")
	secret := f.enable2FA(t)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	headers := map[string]string{"Idempotency-Key": "retry-1"}
	resp, _ := f.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "50",
	}, headers)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The same key without a session cookie must be rejected outright,
	// never answered from the cache.
	anon := f.asNewClient(t)
	resp, _ = anon.do(t, http.MethodPost, "/api/withdraw", map[string]string{}, headers)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Idempotent-Replayed"))
}

func TestAPI_InsufficientFunds(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")
	secret := f.enable2FA(t)

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)

	resp, body := f.do(t, http.MethodPost, "/api/withdraw", map[string]string{
		"coin":    "USDT",
		"network": "TRC20",
		"address": "TD1ZoiURnDSdfpnG366US66xNwFELC5UDT",
		"otp":     code,
		"amount":  "50000",
	}, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "insufficient_funds", body["code"])
}

func TestAPI_FreePlanActivation(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodPost, "/api/invest/activate-free", map[string]string{}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inv := body["investment"].(map[string]any)
	assert.Equal(t, "free-starter", inv["planId"])
	assert.Equal(t, true, inv["isFree"])
	assert.Equal(t, "active", inv["status"])

	resp, body = f.do(t, http.MethodGet, "/api/investments", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["investments"].([]any), 1)
}

func TestAPI_PlansAndDepositsArePublic(t *testing.T) {
	f := newAPIFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/plans", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["plans"])

	resp, body = f.do(t, http.MethodGet, "/api/deposit/options", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["options"])
}

func TestAPI_DepositAddressRequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/deposit/address?coin=BTC&network=Bitcoin", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	f.signup(t, "alice@example.com")
	resp, body := f.do(t, http.MethodGet, "/api/deposit/address?coin=BTC&network=Bitcoin", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bc1q7s06893t08vjzmvlpdd02s75kyhtgg7hd8t936", body["address"])
	assert.Contains(t, body["qrCode"], "data:image/png;base64,")
}

func TestAPI_DuplicateSignup(t *testing.T) {
	f := newAPIFixture(t)
	f.signup(t, "alice@example.com")

	resp, body := f.do(t, http.MethodPost, "/api/signup", map[string]string{
		"name":     "Other",
		"email":    "alice@example.com",
		"password": "another long password",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "duplicate_email", body["code"])
}
