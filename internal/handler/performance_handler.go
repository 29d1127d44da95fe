package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// PerformanceHandler exposes the class performance dashboard endpoint.
type PerformanceHandler struct {
	service *service.PerformanceService
}

// NewPerformanceHandler constructs a performance handler.
func NewPerformanceHandler(svc *service.PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{service: svc}
}

// Summary godoc
// @Summary Class performance summary
// @Description Averages, grades, distribution, attendance rate and weekly trend
// @Tags Performance
// @Produce json
// @Param classId path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/performance-summary [get]
func (h *PerformanceHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, cached, err := h.service.Summary(c.Request.Context(), c.Param("classId"), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cache_hit": cached})
}
