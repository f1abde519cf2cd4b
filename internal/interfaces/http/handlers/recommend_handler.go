package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ScenarioIQ/internal/application/recommend"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// RecommendHandler serves recommendation queries and selection feedback.
type RecommendHandler struct {
	svc     recommend.Service
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewRecommendHandler constructs the handler.  metrics may be nil.
func NewRecommendHandler(svc recommend.Service, metrics *prometheus.Metrics, logger logging.Logger) *RecommendHandler {
	return &RecommendHandler{svc: svc, metrics: metrics, logger: logger.Named("recommend_handler")}
}

// RecommendResponse is the recommendation endpoint's body.
type RecommendResponse struct {
	Recommendations []rectypes.Recommendation `json:"recommendations"`
	Count           int                       `json:"count"`
}

// Recommend handles POST /api/v1/recommendations.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var q rectypes.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	start := time.Now()
	recs, err := h.svc.Recommend(c.Request.Context(), q)
	if err != nil {
		h.observe("error", nil, time.Since(start))
		respondError(c, err)
		return
	}
	h.observe("ok", recs, time.Since(start))

	respondOK(c, RecommendResponse{Recommendations: recs, Count: len(recs)})
}

// RecordSelection handles POST /api/v1/recommendations/:scenario_id/selection.
func (h *RecommendHandler) RecordSelection(c *gin.Context) {
	scenarioID := c.Param("scenario_id")
	if scenarioID == "" {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "scenario_id is required"))
		return
	}
	if err := h.svc.RecordSelection(c.Request.Context(), scenarioID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"scenario_id": scenarioID, "recorded": true})
}

func (h *RecommendHandler) observe(status string, recs []rectypes.Recommendation, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecommendationsTotal.WithLabelValues(status).Inc()
	h.metrics.RecommendationDuration.Observe(elapsed.Seconds())

	seen := map[rectypes.Signal]bool{}
	for _, r := range recs {
		for _, sig := range r.UnavailableSignals {
			if !seen[sig] {
				seen[sig] = true
				h.metrics.SignalUnavailableTotal.WithLabelValues(string(sig)).Inc()
			}
		}
	}
}
