package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simplecrypto/server/internal/middleware"
	"github.com/simplecrypto/server/internal/models"
)

// Plans handles GET /api/plans
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"plans": h.investments.Plans()})
}

type verifyPaymentRequest struct {
	PlanID string `json:"planId"`
	Amount string `json:"amount"`
	TxHash string `json:"txHash"`
}

type investmentResponse struct {
	ID         string     `json:"id"`
	PlanID     string     `json:"planId"`
	PlanTitle  string     `json:"planTitle"`
	Amount     string     `json:"amount"`
	ROIPercent string     `json:"roiPercent"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Status     string     `json:"status"`
	IsFree     bool       `json:"isFree"`
	Completed  *time.Time `json:"completedAt,omitempty"`
}

func toInvestmentResponse(inv *models.Investment) investmentResponse {
	return investmentResponse{
		ID:         inv.ID.String(),
		PlanID:     inv.PlanID,
		PlanTitle:  inv.PlanTitle,
		Amount:     inv.Amount.String(),
		ROIPercent: inv.ROIPercent.String(),
		StartDate:  inv.StartDate,
		EndDate:    inv.EndDate,
		Status:     string(inv.Status),
		IsFree:     inv.IsFree,
		Completed:  inv.CompletedAt,
	}
}

// VerifyPayment handles POST /api/invest/payment/verify
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	inv, err := h.investments.Invest(r.Context(), claims.ID, req.PlanID, amount, req.TxHash)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "investment activated",
		"investment": toInvestmentResponse(inv),
	})
}

// ActivateFreePlan handles POST /api/invest/activate-free
func (h *Handler) ActivateFreePlan(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	inv, err := h.investments.ActivateFreeTrial(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":    "free plan activated",
		"investment": toInvestmentResponse(inv),
	})
}

// Investments handles GET /api/investments
func (h *Handler) Investments(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.investments.ListByAccount(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]investmentResponse, 0, len(list))
	for _, inv := range list {
		payload = append(payload, toInvestmentResponse(inv))
	}
	respondJSON(w, http.StatusOK, map[string]any{"investments": payload})
}
