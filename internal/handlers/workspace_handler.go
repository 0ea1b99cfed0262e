package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type WorkspaceHandler struct {
	service     services.WorkspaceService
	permissions services.PermissionService
}

func NewWorkspaceHandler(service services.WorkspaceService, permissions services.PermissionService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service, permissions: permissions}
}

// POST /workspaces
func (h *WorkspaceHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	w, err := h.service.Create(c.Request.Context(), userID, req.Name)
	if err != nil {
		logging.L.Printf("[workspace][create][err] owner=%d: %v", userID, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[workspace][create][ok] id=%d owner=%d", w.ID, userID)
	c.JSON(http.StatusCreated, w)
}

// GET /workspaces
func (h *WorkspaceHandler) List(c *gin.Context) {
	userID := getUserID(c)
	workspaces, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		logging.L.Printf("[workspace][list][err] user=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list workspaces"})
		return
	}
	c.JSON(http.StatusOK, workspaces)
}

// GET /workspaces/:id
func (h *WorkspaceHandler) GetByID(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	w, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load workspace"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

// GET /workspaces/:id/members
func (h *WorkspaceHandler) ListMembers(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	members, err := h.service.ListMembers(c.Request.Context(), getUserID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// POST /workspaces/:id/members { "user_id": 2, "role": "member" }
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID int64       `json:"user_id" binding:"required"`
		Role   models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getUserID(c)
	if err := h.service.AddMember(c.Request.Context(), actor, id, req.UserID, req.Role); err != nil {
		logging.L.Printf("[workspace][member][add][err] ws=%d user=%d by=%d: %v", id, req.UserID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[workspace][member][add][ok] ws=%d user=%d role=%s", id, req.UserID, req.Role)
	c.Status(http.StatusCreated)
}

// PUT /workspaces/:id/members/:userId/role { "role": "manager" }
func (h *WorkspaceHandler) UpdateMemberRole(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	userID, ok := paramInt64(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.UpdateMemberRole(c.Request.Context(), getUserID(c), id, userID, req.Role); err != nil {
		respondErr(c, err)
		return
	}
	logging.L.Printf("[workspace][member][role][ok] ws=%d user=%d role=%s", id, userID, req.Role)
	c.Status(http.StatusNoContent)
}

// DELETE /workspaces/:id/members/:userId
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	userID, ok := paramInt64(c, "userId")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), getUserID(c), id, userID); err != nil {
		respondErr(c, err)
		return
	}
	logging.L.Printf("[workspace][member][remove][ok] ws=%d user=%d", id, userID)
	c.Status(http.StatusNoContent)
}

// GET /workspaces/:id/permissions
func (h *WorkspaceHandler) MyPermissions(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	view, err := h.permissions.MyPermissions(c.Request.Context(), getUserID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PUT /workspaces/:id/members/:userId/permissions { "permissions": ["CREATE_TASKS", ...] }
func (h *WorkspaceHandler) UpdateMemberPermissions(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	userID, ok := paramInt64(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Permissions []models.Capability `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getUserID(c)
	if err := h.permissions.UpdateUserPermissions(c.Request.Context(), actor, userID, id, req.Permissions); err != nil {
		logging.L.Printf("[workspace][permissions][err] ws=%d target=%d by=%d: %v", id, userID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[workspace][permissions][ok] ws=%d target=%d count=%d", id, userID, len(req.Permissions))
	c.Status(http.StatusNoContent)
}
