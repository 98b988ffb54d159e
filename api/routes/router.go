package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hourbid/api/controllers"
	"github.com/angelmondragon/hourbid/api/middleware"
	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

// RouterParams wires the worker's operational endpoints.
type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Metrics http.Handler
	Deps    map[string]controllers.Pinger
	History controllers.HistoryReader
}

func NewRouter(params RouterParams) http.Handler {
	cfg, logg := params.Config, params.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Deps))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics)
	}

	if params.History != nil {
		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.Logging(logg))
			r.Get("/runs/{runId}/adjustments", controllers.RunAdjustments(params.History, logg))
			r.Get("/campaigns/{campaignId}/adjustments", controllers.CampaignAdjustments(params.History, logg, nil))
		})
	}

	return r
}
