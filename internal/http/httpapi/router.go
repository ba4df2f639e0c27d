package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options configures the router's middleware stack.
type Options struct {
	Logger          zerolog.Logger
	JWTSecret       string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.Locale("en", opts.CountryLookup))
	r.Use(middleware.OptionalAuth(opts.JWTSecret))

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/stats/daily", app.DailyStats)

	r.Route("/v1/uploads", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.UploadsCreate)
		r.With(middleware.RequireAuth).Post("/claim", app.UploadsClaim)
	})

	r.Route("/v1/pages", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.PagesCreate)
		r.Get("/{id}", app.PageGet)
	})

	if opts.StaticDir != "" {
		// User-prefixed assets demand the signed-url pair; see App.StaticFile.
		r.Get("/static/*", app.StaticFile(opts.StaticDir))
	}

	return r
}
