package handlers

import (
	"errors"
	"net/http"

	"server/internal/domain"
)

// DailyStats returns the most recent analytics rollup.
func (a *App) DailyStats(w http.ResponseWriter, r *http.Request) {
	summary, err := a.Analytics.Latest(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.json(w, http.StatusOK, map[string]any{})
			return
		}
		a.Logger.Error().Err(err).Msg("api: load stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	payload := map[string]any{
		"day":               summary.Day,
		"requests":          summary.Requests,
		"pages_queued":      summary.PagesQueued,
		"pages_completed":   summary.PagesCompleted,
		"pages_failed":      summary.PagesFailed,
		"fallback_analyses": summary.FallbackAnalyses,
	}
	countries, err := a.Analytics.CountryBreakdown(r.Context(), summary.Day)
	if err != nil {
		// The headline numbers still stand on their own.
		a.Logger.Warn().Err(err).Msg("api: country breakdown unavailable")
	} else if len(countries) > 0 {
		byCountry := make(map[string]int, len(countries))
		for _, c := range countries {
			byCountry[c.Country] = c.Requests
		}
		payload["countries"] = byCountry
	}
	a.json(w, http.StatusOK, payload)
}
