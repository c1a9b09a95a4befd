package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// MarksHandler exposes graded-record endpoints.
type MarksHandler struct {
	marks  *service.MarksService
	engine *authz.Engine
}

// NewMarksHandler constructs MarksHandler.
func NewMarksHandler(marks *service.MarksService, engine *authz.Engine) *MarksHandler {
	return &MarksHandler{marks: marks, engine: engine}
}

// Record godoc
// @Summary Record component scores for a student
// @Tags Marks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.UpsertMarksRequest true "Marks payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/marks [post]
func (h *MarksHandler) Record(c *gin.Context) {
	courseID := c.Param("id")
	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindMarks, CourseID: courseID}) {
		return
	}

	claims := claimsFromContext(c)
	var req models.UpsertMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	marks, err := h.marks.Record(c.Request.Context(), courseID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, marks)
}

// Finalize godoc
// @Summary Finalize a graded record
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Marks ID"
// @Success 200 {object} response.Envelope
// @Router /marks/{id}/finalize [post]
func (h *MarksHandler) Finalize(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindMarks, ID: id}) {
		return
	}

	marks, err := h.marks.Finalize(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, marks)
}

// Get godoc
// @Summary Get one graded record
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Marks ID"
// @Success 200 {object} response.Envelope
// @Router /marks/{id} [get]
func (h *MarksHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindMarks, ID: id}) {
		return
	}

	marks, err := h.marks.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, marks)
}

// ListByCourse godoc
// @Summary List graded records of a course
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/marks [get]
func (h *MarksHandler) ListByCourse(c *gin.Context) {
	courseID := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindMarks, CourseID: courseID}) {
		return
	}

	filter := models.MarksFilter{CourseID: courseID}
	// Students only ever see their own rows of the course.
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		filter.StudentID = claims.UserID
	}

	records, err := h.marks.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// Mine godoc
// @Summary List the caller's own graded records
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /marks/mine [get]
func (h *MarksHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	records, err := h.marks.List(c.Request.Context(), models.MarksFilter{StudentID: claims.UserID})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// CGPA godoc
// @Summary Get a student's CGPA
// @Tags Marks
// @Security BearerAuth
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/cgpa [get]
func (h *MarksHandler) CGPA(c *gin.Context) {
	studentID := c.Param("studentId")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindUserRecord, ID: studentID}) {
		return
	}

	view, err := h.marks.CGPA(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
