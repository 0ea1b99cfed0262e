package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/models"
	"taskhub/internal/services"
)

type TaskHandler struct {
	service services.TaskService
	batch   services.BatchService
}

func NewTaskHandler(service services.TaskService, batch services.BatchService) *TaskHandler {
	return &TaskHandler{service: service, batch: batch}
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		ProjectID   int64               `json:"project_id" binding:"required"`
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		AssigneeID  *int64              `json:"assignee_id"`
		ParentID    *int64              `json:"parent_id"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actor := getUserID(c)
	task := &models.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		ParentID:    req.ParentID,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}
	created, err := h.service.Create(c.Request.Context(), actor, task)
	if err != nil {
		logging.L.Printf("[task][create][err] project=%d by=%d: %v", req.ProjectID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[task][create][ok] id=%d project=%d", created.ID, created.ProjectID)
	c.JSON(http.StatusCreated, created)
}

// GET /tasks?project_id=&assignee_id=&status=&parent_id=&subordinates_only=
func (h *TaskHandler) List(c *gin.Context) {
	var filter models.TaskFilter
	if v := c.Query("project_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return
		}
		filter.ProjectID = &id
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id"})
			return
		}
		filter.AssigneeID = &id
	}
	if v := c.Query("parent_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
			return
		}
		filter.ParentID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !models.IsValidTaskStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &status
	}
	subordinatesOnly := c.Query("subordinates_only") == "true"

	tasks, err := h.service.GetAll(c.Request.Context(), getUserID(c), filter, subordinatesOnly)
	if err != nil {
		logging.L.Printf("[task][list][err] %v", err)
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	task, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// PUT /tasks/:id updates descriptive fields; status moves only through the
// transition endpoints below.
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req models.Task
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.Update(c.Request.Context(), getUserID(c), id, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /tasks/:id deletes the task and all its subtasks.
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	actor := getUserID(c)
	subtaskCount, err := h.service.Delete(c.Request.Context(), actor, id)
	if err != nil {
		logging.L.Printf("[task][delete][err] id=%d by=%d: %v", id, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[task][delete][ok] id=%d subtasks=%d", id, subtaskCount)
	c.JSON(http.StatusOK, gin.H{"subtask_count": subtaskCount})
}

// GET /tasks/:id/events
func (h *TaskHandler) ListEvents(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	events, err := h.service.ListEvents(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *TaskHandler) transition(c *gin.Context, tag string, fn func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error)) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	actor := getUserID(c)
	task, err := fn(c, actor, id)
	if err != nil {
		logging.L.Printf("[task][%s][err] id=%d by=%d: %v", tag, id, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[task][%s][ok] id=%d by=%d status=%s", tag, id, actor, task.Status)
	c.JSON(http.StatusOK, task)
}

// POST /tasks/:id/start
func (h *TaskHandler) Start(c *gin.Context) {
	h.transition(c, "start", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.Start(ctx.Request.Context(), actorID, taskID)
	})
}

// POST /tasks/:id/submit-review
func (h *TaskHandler) SubmitForReview(c *gin.Context) {
	h.transition(c, "submit-review", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.SubmitForReview(ctx.Request.Context(), actorID, taskID)
	})
}

// POST /tasks/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	h.transition(c, "approve", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.Approve(ctx.Request.Context(), actorID, taskID)
	})
}

// POST /tasks/:id/reject { "reason": "..." }
func (h *TaskHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, "reject", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.Reject(ctx.Request.Context(), actorID, taskID, req.Reason)
	})
}

// POST /tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	h.transition(c, "complete", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.Complete(ctx.Request.Context(), actorID, taskID)
	})
}

// POST /tasks/:id/reopen
func (h *TaskHandler) Reopen(c *gin.Context) {
	h.transition(c, "reopen", func(ctx *gin.Context, actorID, taskID int64) (*models.Task, error) {
		return h.service.Reopen(ctx.Request.Context(), actorID, taskID)
	})
}

// POST /workspaces/:id/tasks/batch-complete { "task_ids": [1,2,3] }
func (h *TaskHandler) BatchComplete(c *gin.Context) {
	h.runBatch(c, "batch-complete", h.batch.Complete)
}

// POST /workspaces/:id/tasks/batch-delete { "task_ids": [1,2,3] }
func (h *TaskHandler) BatchDelete(c *gin.Context) {
	h.runBatch(c, "batch-delete", h.batch.Delete)
}

func (h *TaskHandler) runBatch(c *gin.Context, tag string, fn func(ctx context.Context, actorID, workspaceID int64, taskIDs []int64) (*services.BatchResult, error)) {
	workspaceID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	var req struct {
		TaskIDs []int64 `json:"task_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.TaskIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task_ids must not be empty"})
		return
	}
	actor := getUserID(c)
	result, err := fn(c.Request.Context(), actor, workspaceID, req.TaskIDs)
	if err != nil {
		logging.L.Printf("[task][%s][err] ws=%d by=%d: %v", tag, workspaceID, actor, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[task][%s][ok] ws=%d total=%d success=%d failed=%d",
		tag, workspaceID, len(req.TaskIDs), len(result.Success), len(result.Failed))
	c.JSON(http.StatusOK, result)
}
