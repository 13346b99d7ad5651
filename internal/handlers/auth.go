package handlers

import (
	"net/http"

	"github.com/simplecrypto/server/internal/models"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:       a.ID.String(),
		Name:     a.Name,
		Email:    a.Email,
		FullName: a.FullName,
		Phone:    a.Phone,
		Avatar:   a.Avatar,
	}
}

// Signup handles POST /api/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, token, err := h.accounts.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	respondJSON(w, http.StatusCreated, map[string]any{
		"message": "account created",
		"user":    toAccountResponse(account),
	})
}

// Login handles POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"user":    toAccountResponse(account),
	})
}

// Logout handles POST /api/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   h.tokenTTL,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
