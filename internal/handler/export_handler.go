package handler

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type exportService interface {
	Request(ctx context.Context, req dto.ExportRequest) (*dto.ExportResult, error)
	Resolve(token string) (string, error)
}

// ExportHandler exposes the export render queue and signed downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler creates an export handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Export queues a render of the owner's schedule and returns the download
// token.
func (h *ExportHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}

	result, err := h.service.Request(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result)
}

// Download streams a rendered export file for a valid token.
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}

	path, err := h.service.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
