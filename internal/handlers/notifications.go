package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/middleware"
	"github.com/simplecrypto/server/internal/models"
)

type notificationResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

func toNotificationResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// Notifications handles GET /api/notifications
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.notifications.List(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	unread, err := h.notifications.UnreadCount(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	payload := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		payload = append(payload, toNotificationResponse(n))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"notifications": payload,
		"unreadCount":   unread,
	})
}

// MarkNotificationRead handles POST /api/notifications/{id}/read
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), claims.ID, id); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "notification marked read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), claims.ID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "all notifications marked read"})
}
