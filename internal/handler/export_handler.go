package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/arp-api/internal/authz"
	"github.com/campuskit/arp-api/internal/service"
	"github.com/campuskit/arp-api/pkg/response"
)

// ExportHandler exposes report card downloads.
type ExportHandler struct {
	exports *service.ExportService
	engine  *authz.Engine
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService, engine *authz.Engine) *ExportHandler {
	return &ExportHandler{exports: exports, engine: engine}
}

// ReportCard godoc
// @Summary Download a student's report card
// @Tags Exports
// @Security BearerAuth
// @Produce octet-stream
// @Param studentId path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /students/{studentId}/report-card [get]
func (h *ExportHandler) ReportCard(c *gin.Context) {
	studentID := c.Param("studentId")
	if !authorize(c, h.engine, authz.ActionRead, authz.ResourceDescriptor{Kind: authz.KindUserRecord, ID: studentID}) {
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ReportCard(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.FileName)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
