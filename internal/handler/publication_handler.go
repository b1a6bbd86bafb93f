package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type publicationService interface {
	Publish(ctx context.Context, req dto.PublishRequest, channel models.PublicationChannel) (*dto.PublishResult, error)
}

type resetService interface {
	Reset(ctx context.Context, req dto.ResetRequest) error
}

// PublicationHandler exposes channel publishing and the full reset.
type PublicationHandler struct {
	publications publicationService
	resets       resetService
}

// NewPublicationHandler creates a publication handler.
func NewPublicationHandler(publications publicationService, resets resetService) *PublicationHandler {
	return &PublicationHandler{publications: publications, resets: resets}
}

// PublishStaff pushes the working schedule to the staff channel.
func (h *PublicationHandler) PublishStaff(c *gin.Context) {
	h.publish(c, models.ChannelStaff)
}

// PublishStudent pushes the working schedule to the student channel.
func (h *PublicationHandler) PublishStudent(c *gin.Context) {
	h.publish(c, models.ChannelStudent)
}

func (h *PublicationHandler) publish(c *gin.Context, channel models.PublicationChannel) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.publications.Publish(c.Request.Context(), req, channel)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Reset clears the in-memory and persisted schedule state.
func (h *PublicationHandler) Reset(c *gin.Context) {
	var req dto.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	if err := h.resets.Reset(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
