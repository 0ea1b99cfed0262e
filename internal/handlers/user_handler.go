package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhub/internal/logging"
	"taskhub/internal/services"
)

type UserHandler struct {
	service services.UserService
}

func NewUserHandler(service services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	userID := getUserID(c)
	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		logging.L.Printf("[user][me][err] id=%d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /users?limit=&offset=
func (h *UserHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		logging.L.Printf("[user][list][err] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// POST /users/me/telegram { "chat_id": 123, "enable": true }
func (h *UserHandler) LinkTelegram(c *gin.Context) {
	userID := getUserID(c)
	var req struct {
		ChatID int64 `json:"chat_id" binding:"required"`
		Enable bool  `json:"enable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.LinkTelegram(c.Request.Context(), userID, req.ChatID, req.Enable); err != nil {
		logging.L.Printf("[user][telegram][err] id=%d: %v", userID, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[user][telegram][ok] id=%d chat=%d enable=%v", userID, req.ChatID, req.Enable)
	c.Status(http.StatusNoContent)
}
