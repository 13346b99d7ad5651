package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/simplecrypto/server/internal/models"
)

// DepositOptions handles GET /api/deposit/options
func (h *Handler) DepositOptions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"options": h.deposits.Options()})
}

// DepositAddress handles GET /api/deposit/address?coin=BTC&network=Bitcoin
func (h *Handler) DepositAddress(w http.ResponseWriter, r *http.Request) {
	coin := models.Currency(r.URL.Query().Get("coin"))
	network := r.URL.Query().Get("network")
	if coin == "" || network == "" {
		respondError(w, http.StatusBadRequest, "coin and network are required")
		return
	}

	addr, err := h.deposits.Address(coin, network)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"coin":    string(addr.Coin),
		"network": addr.Network,
		"address": addr.Address,
		"qrCode":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(addr.QRCode),
	})
}
