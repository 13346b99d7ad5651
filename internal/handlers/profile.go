package handlers

import (
	"fmt"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/simplecrypto/server/internal/middleware"
	"github.com/simplecrypto/server/internal/service"
)

// avatarSize is the square pixel size avatars are normalized to.
const avatarSize = 300

// Me handles GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	account, err := h.accounts.Get(r.Context(), claims.ID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	resp := map[string]any{
		"user":             toAccountResponse(account),
		"twoFactorEnabled": account.TwoFactor.Enabled,
	}
	respondJSON(w, http.StatusOK, resp)
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Phone    *string `json:"phone"`
}

// UpdateProfile handles PUT /api/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), claims.ID, service.ProfileUpdate{
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "profile updated",
		"user":    toAccountResponse(account),
	})
}

// UploadAvatar handles POST /api/profile/avatar. The image is re-encoded
// to a fixed-size JPEG, which also strips anything that is not an image.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
		respondError(w, http.StatusBadRequest, "file too large or malformed upload")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close() //nolint:errcheck // Nothing useful to do with the error

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	thumb := imaging.Fill(img, avatarSize, avatarSize, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(h.upload.Dir, 0o755); err != nil {
		h.logger.Error("failed to create upload directory", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	filename := fmt.Sprintf("avatar-%s-%s.jpg", claims.ID, uuid.NewString()[:8])
	path := filepath.Join(h.upload.Dir, filename)
	if err := imaging.Save(thumb, path, imaging.JPEGQuality(jpeg.DefaultQuality)); err != nil {
		h.logger.Error("failed to save avatar", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	avatarURL := "/uploads/" + filename
	account, err := h.accounts.UpdateProfile(r.Context(), claims.ID, service.ProfileUpdate{
		Avatar: &avatarURL,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "avatar updated",
		"avatar":  account.Avatar,
	})
}
