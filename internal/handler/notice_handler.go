package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// NoticeHandler exposes announcement endpoints.
type NoticeHandler struct {
	notices *service.NoticeService
	engine  *authz.Engine
}

// NewNoticeHandler constructs NoticeHandler.
func NewNoticeHandler(notices *service.NoticeService, engine *authz.Engine) *NoticeHandler {
	return &NoticeHandler{notices: notices, engine: engine}
}

// Create godoc
// @Summary Publish a notice
// @Tags Notices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateNoticeRequest true "Notice payload"
// @Success 201 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	var req models.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims := claimsFromContext(c)
	// Global notices are reserved to administrators; faculty must target one
	// of their own courses.
	if claims != nil && claims.Role == models.RoleFaculty && req.CourseID == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course_id is required for faculty notices"))
		return
	}

	courseID := ""
	if req.CourseID != nil {
		courseID = *req.CourseID
	}
	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindNotice, CourseID: courseID}) {
		return
	}

	notice, err := h.notices.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// List godoc
// @Summary List notices visible to the caller
// @Tags Notices
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	notices, err := h.notices.VisibleTo(c.Request.Context(), claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, notices)
}

// Get godoc
// @Summary Get one notice
// @Tags Notices
// @Security BearerAuth
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [get]
func (h *NoticeHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindNotice, ID: id}) {
		return
	}

	notice, err := h.notices.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, notice)
}

// Update godoc
// @Summary Edit a notice
// @Tags Notices
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Notice ID"
// @Param payload body models.CreateNoticeRequest true "Notice payload"
// @Success 200 {object} response.Envelope
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if !h.guardGlobal(c, id) {
		return
	}
	if !authorize(c, h.engine, authz.ActionUpdate, authz.ResourceDescriptor{Kind: authz.KindNotice, ID: id}) {
		return
	}

	var req models.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	notice, err := h.notices.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, notice)
}

// Delete godoc
// @Summary Delete a notice
// @Tags Notices
// @Security BearerAuth
// @Param id path string true "Notice ID"
// @Success 204
// @Router /notices/{id} [delete]
func (h *NoticeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if !h.guardGlobal(c, id) {
		return
	}
	if !authorize(c, h.engine, authz.ActionDelete, authz.ResourceDescriptor{Kind: authz.KindNotice, ID: id}) {
		return
	}

	if err := h.notices.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// guardGlobal blocks non-admin mutation of global notices. Course-scoped
// notices fall through to the policy engine's ownership gate.
func (h *NoticeHandler) guardGlobal(c *gin.Context, id string) bool {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role == models.RoleAdmin {
		return true
	}

	notice, err := h.notices.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return false
	}
	if notice.CourseID == nil {
		response.Error(c, appErrors.ErrInsufficientPerms)
		return false
	}
	return true
}
