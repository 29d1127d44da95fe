package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// ExamTypeHandler exposes per-teacher assessment category endpoints.
type ExamTypeHandler struct {
	service *service.ExamTypeService
}

// NewExamTypeHandler constructs an exam type handler.
func NewExamTypeHandler(svc *service.ExamTypeService) *ExamTypeHandler {
	return &ExamTypeHandler{service: svc}
}

// List godoc
// @Summary List exam types
// @Description List the teacher's exam types, seeding defaults on first use
// @Tags Exam Types
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /exam-types [get]
func (h *ExamTypeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	types, err := h.service.List(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Create godoc
// @Summary Create exam type
// @Tags Exam Types
// @Accept json
// @Produce json
// @Param payload body service.CreateExamTypeRequest true "Exam type payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /exam-types [post]
func (h *ExamTypeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateExamTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	examType, err := h.service.Create(c.Request.Context(), claims.TeacherID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, examType)
}

// Delete godoc
// @Summary Delete exam type
// @Description Delete an exam type that has no recorded marks
// @Tags Exam Types
// @Produce json
// @Param id path string true "Exam type ID"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /exam-types/{id} [delete]
func (h *ExamTypeHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claims.TeacherID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
