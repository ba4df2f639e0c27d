package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"server/internal/domain"
	"server/internal/middleware"
)

// maxUploadBytes caps source photo uploads.
const maxUploadBytes = 10 << 20

type uploadResponse struct {
	UploadID   string `json:"upload_id"`
	StorageKey string `json:"storage_key"`
	Nonce      string `json:"nonce,omitempty"`
}

// UploadsCreate accepts raw photo bytes. Anonymous callers get back an
// ownership nonce they can present after signing up.
func (a *App) UploadsCreate(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}
	if len(data) > maxUploadBytes {
		a.error(w, http.StatusRequestEntityTooLarge, "too_large", "upload exceeds size limit")
		return
	}

	result, err := a.Uploads.Register(r.Context(), data, a.currentUserID(r))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Msg("api: upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}
	a.Sink.RequestSeen(r.Context(), middleware.CountryFromContext(r.Context()))

	a.json(w, http.StatusCreated, uploadResponse{
		UploadID:   result.ID,
		StorageKey: result.StorageKey,
		Nonce:      result.Nonce,
	})
}

type claimRequest struct {
	Nonce string `json:"nonce"`
}

// UploadsClaim associates an anonymous upload with the authenticated caller.
// A wrong or already-used nonce is a conflict, not a retryable error.
func (a *App) UploadsClaim(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	storageKey, err := a.Uploads.Claim(r.Context(), req.Nonce, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrOwnershipConflict):
			a.error(w, http.StatusConflict, "ownership_conflict", "upload cannot be claimed")
		case errors.Is(err, domain.ErrValidation):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Msg("api: claim failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to claim upload")
		}
		return
	}

	a.json(w, http.StatusOK, map[string]string{"storage_key": storageKey})
}
