package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// CourseHandler exposes course and roster endpoints.
type CourseHandler struct {
	courses *service.CourseService
	engine  *authz.Engine
}

// NewCourseHandler constructs CourseHandler.
func NewCourseHandler(courses *service.CourseService, engine *authz.Engine) *CourseHandler {
	return &CourseHandler{courses: courses, engine: engine}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param search query string false "Search by code or name"
// @Param instructorId query string false "Filter by instructor"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	var filter models.CourseFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.InstructorID = c.Query("instructorId")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	course, err := h.courses.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindCourse}) {
		return
	}

	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	course, err := h.courses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	var req models.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	course, err := h.courses.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags Courses
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionDelete, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	if err := h.courses.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enroll godoc
// @Summary Enroll a student into a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.EnrollRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/enrollments [post]
func (h *CourseHandler) Enroll(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	var req models.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	enrollment, err := h.courses.Enroll(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// SetMembership godoc
// @Summary Change a student's roster status
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Param status query string true "ACTIVE, DROPPED or COMPLETED"
// @Success 204
// @Router /courses/{id}/enrollments/{studentId} [put]
func (h *CourseHandler) SetMembership(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	status := models.EnrollmentStatus(c.Query("status"))
	if err := h.courses.SetMembership(c.Request.Context(), id, c.Param("studentId"), status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Enrollments godoc
// @Summary List a course roster
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *CourseHandler) Enrollments(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindCourse, ID: id}) {
		return
	}

	rows, err := h.courses.Enrollments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// MyCourses godoc
// @Summary List the caller's active course memberships
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/mine [get]
func (h *CourseHandler) MyCourses(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	if claims.Role == models.RoleFaculty {
		courses, pagination, err := h.courses.List(c.Request.Context(), models.CourseFilter{
			InstructorID: claims.UserID,
			Page:         1,
			PageSize:     100,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, courses, pagination)
		return
	}

	rows, err := h.courses.ActiveCoursesOf(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
