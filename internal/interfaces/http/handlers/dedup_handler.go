package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ScenarioIQ/internal/application/dedup"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
	rectypes "github.com/turtacn/ScenarioIQ/pkg/types/recommend"
)

// DedupHandler serves duplicate-detection endpoints.
type DedupHandler struct {
	svc     dedup.Service
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewDedupHandler constructs the handler.  metrics may be nil.
func NewDedupHandler(svc dedup.Service, metrics *prometheus.Metrics, logger logging.Logger) *DedupHandler {
	return &DedupHandler{svc: svc, metrics: metrics, logger: logger.Named("dedup_handler")}
}

// DedupResponse is the duplicate-detection endpoint's body.
type DedupResponse struct {
	Groups []rectypes.DuplicateGroup `json:"groups"`
	Count  int                       `json:"count"`
}

// PairsResponse is the similar-pairs endpoint's body.
type PairsResponse struct {
	Pairs []rectypes.SimilarPair `json:"pairs"`
	Count int                    `json:"count"`
}

// Detect handles POST /api/v1/duplicates.
func (h *DedupHandler) Detect(c *gin.Context) {
	var req rectypes.DedupRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	start := time.Now()
	groups, err := h.svc.DetectDuplicates(c.Request.Context(), req)
	if err != nil {
		h.observe("error", 0, time.Since(start))
		respondError(c, err)
		return
	}
	h.observe("ok", len(groups), time.Since(start))

	respondOK(c, DedupResponse{Groups: groups, Count: len(groups)})
}

// Pairs handles the similar-pairs endpoint.  The threshold comes from the
// "threshold" query parameter or, on POST, an optional JSON body.
func (h *DedupHandler) Pairs(c *gin.Context) {
	var threshold float64
	if raw := c.Query("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, errors.New(errors.ErrCodeDedupThresholdInvalid, "threshold must be a number"))
			return
		}
		threshold = parsed
	} else if c.Request.ContentLength > 0 {
		var req rectypes.DedupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
			return
		}
		threshold = req.Threshold
	}

	pairs, err := h.svc.FindSimilarPairs(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, PairsResponse{Pairs: pairs, Count: len(pairs)})
}

func (h *DedupHandler) observe(status string, groups int, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	h.metrics.DedupRunsTotal.WithLabelValues(status).Inc()
	h.metrics.DedupRunDuration.Observe(elapsed.Seconds())
	if status == "ok" {
		h.metrics.DedupGroupsFound.Set(float64(groups))
	}
}
