package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tianputao/data-pipeline-agent/internal/http/handlers"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/middleware"
)

func NewRouter(app *handlers.App, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Locale,
		middleware.Logger(logger),
	)

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/plan", app.PlanJob)
		r.Post("/submit", app.SubmitJob)
		r.Get("/", app.ListPlans)
		r.Get("/{id}", app.GetPlan)
	})
	r.Get("/v1/runs/{id}", app.RunStatus)

	return r
}
