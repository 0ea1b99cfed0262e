package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type ProjectHandler struct {
	service   services.ProjectService
	hierarchy services.HierarchyService
}

func NewProjectHandler(service services.ProjectService, hierarchy services.HierarchyService) *ProjectHandler {
	return &ProjectHandler{service: service, hierarchy: hierarchy}
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req struct {
		WorkspaceID int64  `json:"workspace_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		LeaderID    *int64 `json:"leader_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getUserID(c)
	project := &models.Project{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    req.LeaderID,
	}
	created, err := h.service.Create(c.Request.Context(), actor, project)
	if err != nil {
		logging.L.Printf("[project][create][err] ws=%d by=%d: %v", req.WorkspaceID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[project][create][ok] id=%d ws=%d", created.ID, created.WorkspaceID)
	c.JSON(http.StatusCreated, created)
}

// GET /projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	project, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load project"})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, project)
}

// GET /workspaces/:id/projects
func (h *ProjectHandler) ListByWorkspace(c *gin.Context) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	projects, err := h.service.ListByWorkspace(c.Request.Context(), getUserID(c), workspaceID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// PUT /projects/:id/leader { "leader_id": 7 } (null clears)
func (h *ProjectHandler) SetLeader(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		LeaderID *int64 `json:"leader_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.SetLeader(c.Request.Context(), getUserID(c), id, req.LeaderID); err != nil {
		respondErr(c, err)
		return
	}
	logging.L.Printf("[project][leader][ok] project=%d", id)
	c.Status(http.StatusNoContent)
}

// PUT /projects/:id/reporting { "subordinate_ids": [2,3], "manager_id": 5 }
// A null manager_id detaches the listed subordinates from their managers.
func (h *ProjectHandler) SetReportingRelation(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		SubordinateIDs []int64 `json:"subordinate_ids"`
		ManagerID      *int64  `json:"manager_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getUserID(c)
	if err := h.hierarchy.SetReportingRelation(c.Request.Context(), actor, id, req.SubordinateIDs, req.ManagerID); err != nil {
		logging.L.Printf("[project][reporting][err] project=%d by=%d: %v", id, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[project][reporting][ok] project=%d subordinates=%d", id, len(req.SubordinateIDs))
	c.Status(http.StatusNoContent)
}

// GET /projects/:id/subordinates returns the transitive closure under the caller.
func (h *ProjectHandler) Subordinates(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	closure, err := h.hierarchy.Subordinates(c.Request.Context(), getUserID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	ids := make([]int64, 0, len(closure))
	for userID := range closure {
		ids = append(ids, userID)
	}
	c.JSON(http.StatusOK, gin.H{"subordinate_ids": ids})
}
