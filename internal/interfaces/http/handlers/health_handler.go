package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/types/common"
)

// Checker reports one dependency's health.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers []Checker
	logger   logging.Logger
}

// NewHealthHandler constructs the handler.  Readiness fails when any checker
// does.
func NewHealthHandler(logger logging.Logger, checkers ...Checker) *HealthHandler {
	return &HealthHandler{checkers: checkers, logger: logger.Named("health_handler")}
}

// Liveness handles GET /healthz.  It succeeds as long as the process serves
// requests.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": common.HealthUp})
}

// Readiness handles GET /readyz, probing every wired dependency.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := common.HealthUp
	components := make([]common.ComponentHealth, 0, len(h.checkers))
	for _, checker := range h.checkers {
		start := time.Now()
		err := checker.Check(ctx)
		component := common.ComponentHealth{
			Name:    checker.Name,
			Status:  common.HealthUp,
			Latency: time.Since(start),
		}
		if err != nil {
			component.Status = common.HealthDown
			component.Message = err.Error()
			overall = common.HealthDown
			h.logger.Warn("readiness check failed",
				logging.String("component", checker.Name), logging.Err(err))
		}
		components = append(components, component)
	}

	status := http.StatusOK
	if overall != common.HealthUp {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": overall, "components": components})
}
