package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	engine     *authz.Engine
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, engine *authz.Engine) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, engine: engine}
}

// Upsert godoc
// @Summary Set attendance counters for a student
// @Tags Attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.UpsertAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/attendance [put]
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	courseID := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindAttendance, CourseID: courseID}) {
		return
	}

	claims := claimsFromContext(c)
	var req models.UpsertAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	view, err := h.attendance.Upsert(c.Request.Context(), courseID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// ByCourse godoc
// @Summary List attendance for a course
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/attendance [get]
func (h *AttendanceHandler) ByCourse(c *gin.Context) {
	courseID := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindAttendance, CourseID: courseID}) {
		return
	}

	// Students only see their own record of the course.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		view, err := h.attendance.Of(c.Request.Context(), courseID, claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, []models.AttendanceView{*view})
		return
	}

	views, err := h.attendance.ByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views)
}

// Mine godoc
// @Summary List the caller's attendance across courses
// @Tags Attendance
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/mine [get]
func (h *AttendanceHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	views, err := h.attendance.ByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views)
}
