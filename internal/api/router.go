package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts the JSON API. requestTimeout bounds every route except
// analysis, which carries its own deadline.
func NewRouter(app *App, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(app.log()))
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/detect-deepfake", app.DetectHandler)

		r.Group(func(r chi.Router) {
			if requestTimeout > 0 {
				r.Use(middleware.Timeout(requestTimeout))
			}

			r.Get("/detect-deepfake", app.HealthHandler)
			r.Get("/history", app.HistoryHandler)
			r.Head("/history", app.HistoryProbeHandler)
			r.Get("/reports/{reportID}", app.GetReportHandler)
			r.Get("/reports/{reportID}/pdf", app.StoredReportPDFHandler)
			r.Post("/generate-pdf", app.GeneratePDFHandler)
			r.Get("/evidence/{name}", app.EvidenceHandler)
		})
	})

	return r
}
