package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/imranraza-AI/Clothing-brand-website/internal/http/handlers"
	"github.com/imranraza-AI/Clothing-brand-website/internal/infra/geoip"
	"github.com/imranraza-AI/Clothing-brand-website/internal/metrics"
	"github.com/imranraza-AI/Clothing-brand-website/internal/middleware"
)

// Options carries the cross-cutting pieces the router wires around the app.
type Options struct {
	Locales geoip.LocaleHinter
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*app.Logger, metrics.ObserveHTTP),
		chimw.Recoverer,
		middleware.CORS(app.Config.CORSAllowedOrigins),
		middleware.I18N("en", opts.Locales),
	)

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", metrics.Handler())

	// Only submissions are rate limited; snapshot polling is not.
	limited := middleware.RateLimit(app.Config.RateLimitPerMin)
	r.Route("/v1/studio", func(r chi.Router) {
		r.Get("/credential", app.CredentialStatus)
		r.With(limited).Post("/credential", app.SelectCredential)

		r.Get("/chat", app.StylistGreeting)
		r.With(limited).Post("/chat", app.Chat)
		r.With(limited).Post("/style-tip", app.StyleTip)

		r.With(limited).Post("/sessions", app.CreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.CloseSession)
			r.Put("/tab", app.SetTab)
			r.With(limited).Post("/edits", app.SubmitEdit)
			r.With(limited).Post("/videos", app.SubmitVideo)
			r.Get("/archive", app.Archive)
			r.Get("/jobs", app.ListJobs)
		})
	})

	return r
}
