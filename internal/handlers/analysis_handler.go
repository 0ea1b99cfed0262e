package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/services"
)

type AnalysisHandler struct {
	service services.AnalysisService
}

func NewAnalysisHandler(service services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// POST /workspaces/:id/analyze runs the workload analysis over the
// workspace's open tasks and returns the model's summary.
func (h *AnalysisHandler) AnalyzeWorkspace(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	actor := getUserID(c)
	summary, err := h.service.AnalyzeWorkspace(c.Request.Context(), actor, workspaceID)
	if err != nil {
		logging.L.Printf("[analysis][err] ws=%d by=%d: %v", workspaceID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[analysis][ok] ws=%d by=%d", workspaceID, actor)
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
