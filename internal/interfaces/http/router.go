// Package http assembles the gin route tree and the HTTP server lifecycle.
package http

import (
	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScenarioIQ/internal/interfaces/http/handlers"
	"github.com/turtacn/ScenarioIQ/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies for the
// full route tree.
type RouterConfig struct {
	RecommendHandler *handlers.RecommendHandler
	DedupHandler     *handlers.DedupHandler
	CatalogHandler   *handlers.CatalogHandler
	HealthHandler    *handlers.HealthHandler

	Metrics  *prometheus.Metrics
	Registry *promclient.Registry
	Logger   logging.Logger
	Mode     string
}

// NewRouter constructs the route tree: public probes, the metrics endpoint,
// and the v1 API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	if cfg.RecommendHandler != nil {
		api.POST("/recommendations", cfg.RecommendHandler.Recommend)
		api.POST("/recommendations/:scenario_id/selection", cfg.RecommendHandler.RecordSelection)
	}
	if cfg.CatalogHandler != nil {
		api.POST("/scenarios", cfg.CatalogHandler.CreateScenario)
		api.PUT("/scenarios/:scenario_id/description", cfg.CatalogHandler.UpdateDescription)
	}
	if cfg.DedupHandler != nil {
		api.POST("/duplicates", cfg.DedupHandler.Detect)
		api.GET("/duplicates/pairs", cfg.DedupHandler.Pairs)
		api.POST("/duplicates/pairs", cfg.DedupHandler.Pairs)
	}

	return r
}
