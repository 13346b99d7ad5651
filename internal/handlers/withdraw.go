package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/middleware"
	"github.com/simplecrypto/server/internal/models"
	"github.com/simplecrypto/server/internal/service"
)

type withdrawRequest struct {
	Coin    string `json:"coin"`
	Network string `json:"network"`
	Address string `json:"address"`
	OTP     string `json:"otp"`
	Amount  string `json:"amount"`
}

type withdrawalResponse struct {
	ID        string    `json:"id"`
	Coin      string    `json:"coin"`
	Network   string    `json:"network"`
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	Fee       string    `json:"fee"`
	NetAmount string    `json:"netAmount"`
	Status    string    `json:"status"`
	TxHash    string    `json:"txHash,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toWithdrawalResponse(wd *models.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:        wd.ID.String(),
		Coin:      string(wd.Coin),
		Network:   wd.Network,
		Address:   wd.Address,
		Amount:    wd.Amount.String(),
		Fee:       wd.Fee.String(),
		NetAmount: wd.NetAmount.String(),
		Status:    string(wd.Status),
		TxHash:    wd.TxHash,
		CreatedAt: wd.CreatedAt,
	}
}

// Withdraw handles POST /api/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req withdrawRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	withdrawal, err := h.withdrawals.Submit(r.Context(), claims.ID, service.SubmitWithdrawalRequest{
		Coin:    models.Currency(req.Coin),
		Network: req.Network,
		Address: req.Address,
		OTP:     req.OTP,
		Amount:  amount,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "withdrawal request submitted",
		"withdrawal": toWithdrawalResponse(withdrawal),
	})
}

// WithdrawalHistory handles GET /api/withdrawals
func (h *Handler) WithdrawalHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	history, err := h.withdrawals.History(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]withdrawalResponse, 0, len(history))
	for _, wd := range history {
		payload = append(payload, toWithdrawalResponse(wd))
	}
	respondJSON(w, http.StatusOK, map[string]any{"withdrawals": payload})
}
