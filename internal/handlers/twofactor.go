package handlers

import (
	"encoding/base64"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/simplecrypto/server/internal/middleware"
)

// qrSize is the pixel size of the enrollment QR code PNG.
const qrSize = 256

// TwoFactorStatus handles GET /api/2fa/status
func (h *Handler) TwoFactorStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	enabled, err := h.twoFactor.Enabled(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// TwoFactorSetup handles POST /api/2fa/setup. It returns the base32
// secret for manual entry and a data-URI QR code for scanning.
func (h *Handler) TwoFactorSetup(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	enrollment, err := h.twoFactor.BeginSetup(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	png, err := qrcode.Encode(enrollment.OTPAuthURL, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("failed to render enrollment QR code", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to generate QR code")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"secret": enrollment.Secret,
		"qrCode": "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

type twoFactorCodeRequest struct {
	Code string `json:"code"`
}

// TwoFactorVerify handles POST /api/2fa/verify, confirming enrollment.
func (h *Handler) TwoFactorVerify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req twoFactorCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.twoFactor.ConfirmSetup(r.Context(), claims.ID, req.Code); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "two-factor authentication enabled"})
}

// TwoFactorDisable handles POST /api/2fa/disable
func (h *Handler) TwoFactorDisable(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req twoFactorCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.twoFactor.Disable(r.Context(), claims.ID, req.Code); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "two-factor authentication disabled"})
}
