package handlers

import (
	"net/http"

	"github.com/simplecrypto/server/internal/middleware"
)

// Balance handles GET /api/balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	balances, err := h.ledger.GetBalances(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make(map[string]string, len(balances))
	for currency, amount := range balances {
		payload[string(currency)] = amount.String()
	}
	respondJSON(w, http.StatusOK, map[string]any{"balances": payload})
}
