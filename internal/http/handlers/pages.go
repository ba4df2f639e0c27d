package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/queue"
)

type pageCreateRequest struct {
	SceneText       string                `json:"scene_text"`
	Style           string                `json:"style"`
	Difficulty      int                   `json:"difficulty"`
	SourceUploadKey string                `json:"source_upload_key"`
	Orientation     string                `json:"orientation"`
	Priority        int                   `json:"priority"`
	Analysis        *domain.PhotoAnalysis `json:"analysis,omitempty"`
}

type pageCreateResponse struct {
	PageID string `json:"page_id"`
	Status string `json:"status"`
}

// failureMessages are the display-ready strings shown for failed pages,
// keyed by the locales the middleware can detect.
var failureMessages = map[string]string{
	"en": "Failed to generate your coloring page. Please try again.",
	"es": "No pudimos generar tu página para colorear. Inténtalo de nuevo.",
}

// PagesCreate validates the request, creates the page record, and enqueues
// the generation job.
func (a *App) PagesCreate(w http.ResponseWriter, r *http.Request) {
	var req pageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	style, err := domain.ParseStyle(req.Style)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.SourceUploadKey) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "source_upload_key is required")
		return
	}

	userID := a.currentUserID(r)
	page := &domain.Page{
		ID:         uuid.NewString(),
		UserID:     userID,
		SceneText:  req.SceneText,
		Style:      style,
		Difficulty: difficulty,
		SourceKey:  req.SourceUploadKey,
	}
	if err := a.Pages.Create(r.Context(), page); err != nil {
		a.Logger.Error().Err(err).Msg("api: create page failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create page")
		return
	}

	_, err = a.Queue.Enqueue(r.Context(), queue.EnqueueParams{
		PageID:  page.ID,
		OwnerID: userID,
		Payload: domain.JobPayload{
			SceneText:       req.SceneText,
			Style:           style,
			Difficulty:      difficulty,
			SourceUploadKey: req.SourceUploadKey,
			Orientation:     req.Orientation,
			Analysis:        req.Analysis,
		},
		Priority:    req.Priority,
		MaxAttempts: a.MaxAttempts,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.Logger.Error().Err(err).Str("page_id", page.ID).Msg("api: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue generation")
		return
	}
	a.Sink.PageQueued(r.Context())

	a.json(w, http.StatusAccepted, pageCreateResponse{PageID: page.ID, Status: string(domain.PageStatusQueued)})
}

// PageGet reports the unified generation status for a page. The status chain
// prefers the live queue row and falls back to the page record for jobs whose
// queue rows have been purged.
func (a *App) PageGet(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "id")
	if pageID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "page id required")
		return
	}

	page, err := a.Pages.GetByID(r.Context(), pageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "page not found")
			return
		}
		a.Logger.Error().Err(err).Str("page_id", pageID).Msg("api: load page failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load page")
		return
	}

	status, err := a.Status.Status(r.Context(), pageID)
	if err != nil {
		status = string(page.Status)
	}

	resp := map[string]any{
		"id":         page.ID,
		"status":     status,
		"style":      page.Style,
		"difficulty": page.Difficulty,
		"created_at": page.CreatedAt,
		"updated_at": page.UpdatedAt,
	}
	if page.Status == domain.PageStatusCompleted && page.StorageKey != "" {
		if page.UserID != nil {
			resp["output_url"] = a.URLs.SignedURL(page.StorageKey, 24*time.Hour)
		} else {
			resp["output_url"] = a.URLs.PublicURL(page.StorageKey)
		}
	}
	if page.Status == domain.PageStatusFailed {
		locale := middleware.LocaleFromContext(r.Context())
		msg, ok := failureMessages[locale]
		if !ok {
			msg = failureMessages["en"]
		}
		resp["error_message"] = msg
	}
	a.json(w, http.StatusOK, resp)
}
