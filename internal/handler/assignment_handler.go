package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// AssignmentHandler exposes assignment and submission endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
	engine      *authz.Engine
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments *service.AssignmentService, engine *authz.Engine) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, engine: engine}
}

// Create godoc
// @Summary Publish an assignment
// @Tags Assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req models.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindAssignment, CourseID: req.CourseID}) {
		return
	}

	claims := claimsFromContext(c)
	assignment, err := h.assignments.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Get godoc
// @Summary Get one assignment
// @Tags Assignments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindAssignment, ID: id}) {
		return
	}

	assignment, err := h.assignments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// ListByCourse godoc
// @Summary List assignments of a course
// @Tags Assignments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [get]
func (h *AssignmentHandler) ListByCourse(c *gin.Context) {
	courseID := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindAssignment, CourseID: courseID}) {
		return
	}

	assignments, err := h.assignments.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignments)
}

// UpdateDeadline godoc
// @Summary Move an assignment deadline
// @Tags Assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body models.UpdateDeadlineRequest true "New deadline"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/deadline [put]
func (h *AssignmentHandler) UpdateDeadline(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindAssignment, ID: id}) {
		return
	}

	var req models.UpdateDeadlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	assignment, err := h.assignments.UpdateDeadline(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, assignment)
}

// Delete godoc
// @Summary Delete an assignment
// @Tags Assignments
// @Security BearerAuth
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionDelete, authz.ResourceDescriptor{Kind: authz.KindAssignment, ID: id}) {
		return
	}

	if err := h.assignments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Submit godoc
// @Summary Submit work for an assignment
// @Tags Submissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body models.CreateSubmissionRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Router /assignments/{id}/submissions [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	id := c.Param("id")

	// The course linkage comes from the stored assignment, not the caller.
	assignment, err := h.assignments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindSubmission, CourseID: assignment.CourseID}) {
		return
	}

	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims := claimsFromContext(c)
	created, err := h.assignments.Submit(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Submissions godoc
// @Summary List submissions of an assignment
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindAssignment, ID: id}) {
		return
	}

	// Students only see their own attempts.
	studentID := ""
	if claims := claimsFromContext(c); claims != nil && claims.Role == models.RoleStudent {
		studentID = claims.UserID
	}

	subs, err := h.assignments.Submissions(c.Request.Context(), id, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, subs)
}

// GetSubmission godoc
// @Summary Get one submission
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id} [get]
func (h *AssignmentHandler) GetSubmission(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindSubmission, ID: id}) {
		return
	}

	sub, err := h.assignments.GetSubmission(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}
