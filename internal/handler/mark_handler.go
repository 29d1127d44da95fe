package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// MarkHandler exposes marks sheet endpoints nested under a class.
type MarkHandler struct {
	service *service.MarkService
}

// NewMarkHandler constructs a mark handler.
func NewMarkHandler(svc *service.MarkService) *MarkHandler {
	return &MarkHandler{service: svc}
}

// Sheet godoc
// @Summary Get a marks sheet
// @Description Marks for one (subject, exam type, term) combination
// @Tags Marks
// @Produce json
// @Param classId path string true "Class ID"
// @Param subject_id query string true "Subject ID"
// @Param exam_type_id query string true "Exam type ID"
// @Param term query int true "Term (1-3)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/marks [get]
func (h *MarkHandler) Sheet(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	subjectID := c.Query("subject_id")
	examTypeID := c.Query("exam_type_id")
	if subjectID == "" || examTypeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subject_id and exam_type_id are required"))
		return
	}
	term, err := strconv.Atoi(c.DefaultQuery("term", "1"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "term must be a number"))
		return
	}

	marks, err := h.service.Sheet(c.Request.Context(), c.Param("classId"), claims.TeacherID, subjectID, examTypeID, term)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks, nil)
}

// Save godoc
// @Summary Save a marks sheet
// @Description Upsert scores for one sheet; re-saving overwrites
// @Tags Marks
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body service.SaveMarksRequest true "Marks payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{classId}/marks [post]
func (h *MarkHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SaveMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.Save(c.Request.Context(), c.Param("classId"), claims.TeacherID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
