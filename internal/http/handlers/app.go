package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/queue"
	"server/internal/storage"
	"server/internal/telemetry"
	"server/internal/uploads"
)

// App is the handler container; dependencies are injected once at startup.
type App struct {
	Queue       *queue.Queue
	Status      queue.StatusChain
	Pages       *repo.PageRepository
	Uploads     *uploads.Service
	Analytics   *repo.AnalyticsRepository
	Sink        *telemetry.Sink
	URLs        *storage.URLBuilder
	Logger      infra.Logger
	MaxAttempts int
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

func (a *App) currentUserID(r *http.Request) *string {
	if id := middleware.UserIDFromContext(r.Context()); id != "" {
		return &id
	}
	return nil
}
