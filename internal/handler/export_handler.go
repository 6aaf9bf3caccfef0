package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-portal-api/internal/middleware"
	"github.com/noah-isme/course-portal-api/internal/service"
	"github.com/noah-isme/course-portal-api/pkg/response"
)

// ExportHandler serves roster downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Students godoc
// @Summary Export the student roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /exports/students [get]
func (h *ExportHandler) Students(c *gin.Context) {
	file, err := h.exports.Students(c.Request.Context(), c.Query("format"), middleware.CurrentIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
