package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/services"
)

type ReportHandler struct {
	service services.ReportService
}

func NewReportHandler(service services.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// POST /workspaces/:id/reports { "day": "2025-03-14", "content": "..." }
func (h *ReportHandler) Submit(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		Day     string `json:"day" binding:"required"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID := getUserID(c)
	report, err := h.service.Submit(c.Request.Context(), userID, workspaceID, req.Day, req.Content)
	if err != nil {
		logging.L.Printf("[report][submit][err] ws=%d user=%d day=%s: %v", workspaceID, userID, req.Day, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[report][submit][ok] ws=%d user=%d day=%s", workspaceID, userID, req.Day)
	c.JSON(http.StatusCreated, report)
}

// GET /workspaces/:id/reports?day=2025-03-14
func (h *ReportHandler) List(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var day *string
	if v := c.Query("day"); v != "" {
		day = &v
	}
	reports, err := h.service.List(c.Request.Context(), getUserID(c), workspaceID, day)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GET /workspaces/:id/reports/pdf?day=2025-03-14
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	day := c.Query("day")
	if day == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day query parameter is required"})
		return
	}
	path, err := h.service.ExportPDF(c.Request.Context(), getUserID(c), workspaceID, day)
	if err != nil {
		logging.L.Printf("[report][pdf][err] ws=%d day=%s: %v", workspaceID, day, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[report][pdf][ok] ws=%d day=%s path=%s", workspaceID, day, path)
	c.FileAttachment(path, "daily_reports_"+day+".pdf")
}

// POST /workspaces/:id/reports/digest { "day": "2025-03-14", "email": "boss@x.io" }
func (h *ReportHandler) EmailDigest(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		Day   string `json:"day" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.EmailDigest(c.Request.Context(), getUserID(c), workspaceID, req.Day, req.Email); err != nil {
		logging.L.Printf("[report][digest][err] ws=%d day=%s: %v", workspaceID, req.Day, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[report][digest][ok] ws=%d day=%s to=%s", workspaceID, req.Day, req.Email)
	c.Status(http.StatusNoContent)
}
