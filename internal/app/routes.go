package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phumzea/reports/internal/handler"
	"github.com/phumzea/reports/internal/middleware"
)

func (app App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)

	r.Get("/api/health", handler.Health(app.transport))

	reportHandler := handler.NewReportHandler(app.logger, app.submitter, app.config.MaxUploadSizeMB)
	r.Group(func(r chi.Router) {
		limit := app.config.RateLimitPerMinute
		r.Use(middleware.RateLimit(middleware.PerMinute(limit), limit))

		r.Post("/api/report", reportHandler.Submit)
		r.Post("/api/report/validate", reportHandler.Validate)
	})
	return r
}
