package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ScenarioIQ/internal/application/catalog"
	"github.com/turtacn/ScenarioIQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScenarioIQ/pkg/errors"
)

// CatalogHandler serves scenario ingestion and maintenance.
type CatalogHandler struct {
	svc    catalog.Service
	logger logging.Logger
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(svc catalog.Service, logger logging.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger.Named("catalog_handler")}
}

// CreateScenario handles POST /api/v1/scenarios.
func (h *CatalogHandler) CreateScenario(c *gin.Context) {
	var in catalog.ScenarioInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	sc, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

// UpdateDescriptionRequest is the body of the description update endpoint.
type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

// UpdateDescription handles PUT /api/v1/scenarios/:scenario_id/description.
func (h *CatalogHandler) UpdateDescription(c *gin.Context) {
	scenarioID := c.Param("scenario_id")
	if scenarioID == "" {
		respondError(c, errors.New(errors.ErrCodeBadRequest, "scenario_id is required"))
		return
	}
	var req UpdateDescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
		return
	}

	sc, err := h.svc.UpdateDescription(c.Request.Context(), scenarioID, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, sc)
}
