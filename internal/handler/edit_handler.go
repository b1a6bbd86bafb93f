package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type editService interface {
	Move(ctx context.Context, req dto.MoveAssignmentRequest) (*dto.EditResult, error)
	Add(ctx context.Context, req dto.AddAssignmentRequest) (*dto.EditResult, error)
	Undo(ctx context.Context, req dto.UndoRequest) (*dto.EditResult, error)
}

// EditHandler exposes the interactive edit operations.
type EditHandler struct {
	service editService
}

// NewEditHandler creates an edit handler.
func NewEditHandler(service editService) *EditHandler {
	return &EditHandler{service: service}
}

// Move relocates or swaps a lesson between two cells.
func (h *EditHandler) Move(c *gin.Context) {
	var req dto.MoveAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Move(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Add places a subject into an empty cell.
func (h *EditHandler) Add(c *gin.Context) {
	var req dto.AddAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Undo rolls back the most recent committed edit.
func (h *EditHandler) Undo(c *gin.Context) {
	var req dto.UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Undo(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
