package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// ExportHandler streams CSV and PDF downloads for a class.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// MarksCSV godoc
// @Summary Export class marks as CSV
// @Tags Exports
// @Produce text/csv
// @Param classId path string true "Class ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/marks/export [get]
func (h *ExportHandler) MarksCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.service.MarksCSV(c.Request.Context(), c.Param("classId"), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, file)
}

// PerformancePDF godoc
// @Summary Export class performance report as PDF
// @Tags Exports
// @Produce application/pdf
// @Param classId path string true "Class ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/performance-report [get]
func (h *ExportHandler) PerformancePDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	file, err := h.service.PerformancePDF(c.Request.Context(), c.Param("classId"), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeDownload(c, file)
}

func writeDownload(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(200, file.ContentType, file.Data)
}
