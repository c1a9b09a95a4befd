package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/models"
	"github.com/campuskit/arp-api/internal/service"
	appErrors "github.com/campuskit/arp-api/pkg/errors"
	"github.com/campuskit/arp-api/pkg/response"
)

// LeaveHandler exposes leave request endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
	engine *authz.Engine
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService, engine *authz.Engine) *LeaveHandler {
	return &LeaveHandler{leaves: leaves, engine: engine}
}

// File godoc
// @Summary File a leave request
// @Tags Leaves
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) File(c *gin.Context) {
	if !authorize(c, h.engine, authz.ActionCreate, authz.ResourceDescriptor{Kind: authz.KindLeave}) {
		return
	}

	var req models.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims := claimsFromContext(c)
	leave, err := h.leaves.File(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Get godoc
// @Summary Get one leave request
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Param id path string true "Leave ID"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id} [get]
func (h *LeaveHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindLeave, ID: id}) {
		return
	}

	leave, err := h.leaves.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, leave)
}

// Mine godoc
// @Summary List the caller's leave requests
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/mine [get]
func (h *LeaveHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	leaves, err := h.leaves.ByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, leaves)
}

// Pending godoc
// @Summary List leave requests awaiting review
// @Tags Leaves
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/pending [get]
func (h *LeaveHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}
	if claims.Role == models.RoleStudent {
		response.Error(c, appErrors.ErrInsufficientPerms)
		return
	}

	leaves, err := h.leaves.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, leaves)
}

// Review godoc
// @Summary Approve or reject a leave request
// @Tags Leaves
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body models.ReviewLeaveRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /leaves/{id}/review [post]
func (h *LeaveHandler) Review(c *gin.Context) {
	id := c.Param("id")
	if !authorize(c, h.engine, authz.ActionApprove, authz.ResourceDescriptor{Kind: authz.KindLeave, ID: id}) {
		return
	}

	var req models.ReviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	claims := claimsFromContext(c)
	leave, err := h.leaves.Review(c.Request.Context(), id, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, leave)
}
