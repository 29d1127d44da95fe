package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwalimu-app/mwalimu-api/internal/models"
	"github.com/mwalimu-app/mwalimu-api/internal/service"
	appErrors "github.com/mwalimu-app/mwalimu-api/pkg/errors"
	"github.com/mwalimu-app/mwalimu-api/pkg/response"
)

// AttendanceHandler exposes daily register endpoints nested under a class.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Register godoc
// @Summary Get register for a date
// @Description Class roster merged with the records already saved for the date
// @Tags Attendance
// @Produce json
// @Param classId path string true "Class ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{classId}/attendance [get]
func (h *AttendanceHandler) Register(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}
	records, err := h.service.Register(c.Request.Context(), c.Param("classId"), claims.TeacherID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Save godoc
// @Summary Save register for a date
// @Description Upsert the full register; re-saving a date overwrites
// @Tags Attendance
// @Accept json
// @Produce json
// @Param classId path string true "Class ID"
// @Param payload body service.SaveAttendanceRequest true "Register payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes/{classId}/attendance [post]
func (h *AttendanceHandler) Save(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SaveAttendanceRequest
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

// History godoc
// @Summary List attendance history
// @Description Per-day present and absent counts, newest first
// @Tags Attendance
// @Produce json
// @Param classId path string true "Class ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes/{classId}/attendance/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.AttendanceHistoryFilter{ClassID: c.Param("classId")}
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &parsed
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "30")); err == nil {
		filter.PageSize = size
	}

	summaries, total, err := h.service.History(c.Request.Context(), claims.TeacherID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, models.NewPagination(filter.Page, filter.PageSize, total))
}
