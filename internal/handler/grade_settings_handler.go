package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// GradeSettingsHandler exposes the teacher's grading scale endpoints.
type GradeSettingsHandler struct {
	service *service.GradeScaleService
}

// NewGradeSettingsHandler constructs a grade settings handler.
func NewGradeSettingsHandler(svc *service.GradeScaleService) *GradeSettingsHandler {
	return &GradeSettingsHandler{service: svc}
}

// Get godoc
// @Summary Get grading scale
// @Description The teacher's scale, seeded with KCSE defaults on first access
// @Tags Grade Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grade-settings [get]
func (h *GradeSettingsHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	scale, err := h.service.Get(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}

// Update godoc
// @Summary Update grading scale
// @Description Thresholds must strictly decrease from A to D-
// @Tags Grade Settings
// @Accept json
// @Produce json
// @Param payload body service.UpdateGradeScaleRequest true "Scale payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grade-settings [put]
func (h *GradeSettingsHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateGradeScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	scale, err := h.service.Update(c.Request.Context(), claims.TeacherID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, scale, nil)
}
