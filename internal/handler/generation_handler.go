package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type generationService interface {
	Run(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	State(ctx context.Context, ownerID string) (*dto.TimetableStateResponse, error)
	Allocation(ctx context.Context, schoolLevel string) (*dto.AllocationResponse, error)
}

// GenerationHandler exposes generation runs and the timetable read model.
type GenerationHandler struct {
	service generationService
}

// NewGenerationHandler creates a generation handler.
func NewGenerationHandler(service generationService) *GenerationHandler {
	return &GenerationHandler{service: service}
}

// Generate starts or resumes a generation run.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// State returns the owner's current schedule, statuses and publication state.
func (h *GenerationHandler) State(c *gin.Context) {
	ownerID := c.Query("ownerId")

	result, err := h.service.State(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Allocation previews the period grid for a school level.
func (h *GenerationHandler) Allocation(c *gin.Context) {
	schoolLevel := c.Query("schoolLevel")

	result, err := h.service.Allocation(c.Request.Context(), schoolLevel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
