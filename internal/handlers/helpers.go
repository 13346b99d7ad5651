// Package handlers implements the HTTP API surface.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/simplecrypto/server/internal/service"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		//nolint:errcheck // Best effort response writing
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps business error codes onto HTTP status codes.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		h.logger.Error("unexpected error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := http.StatusBadRequest
	body := map[string]any{"error": svcErr.Message, "code": svcErr.Code}

	switch svcErr.Code {
	case service.ErrCodeInvalidCredentials:
		status = http.StatusUnauthorized
	case service.ErrCodeTwoFactorRequired:
		status = http.StatusForbidden
		body["redirect"] = "security.html"
	case service.ErrCodeInsufficientFunds:
		status = http.StatusPaymentRequired
	case service.ErrCodeDuplicateEmail:
		status = http.StatusConflict
	case service.ErrCodeNotFound:
		status = http.StatusNotFound
	case service.ErrCodeInternalError:
		status = http.StatusInternalServerError
		h.logger.Error("internal service error", "error", svcErr)
		body["error"] = "internal server error"
	}

	respondJSON(w, status, body)
}

// decodeJSON decodes a request body, rejecting unknown garbage politely.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close() //nolint:errcheck // Nothing useful to do with the error
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}
