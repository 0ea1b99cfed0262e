package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"taskhub/internal/config"
	"taskhub/internal/logging"
	"taskhub/internal/middleware"
	"taskhub/internal/models"
	"taskhub/internal/services"
	"taskhub/internal/utils"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
	jwtCfg      config.JWTConfig
}

func NewAuthHandler(userService services.UserService, authService services.AuthService, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService, jwtCfg: jwtCfg}
}

// @Summary      Register
// @Description  Creates a user account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.L.Printf("[auth][register][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		logging.L.Printf("[auth][register][err] email=%q: %v", req.Email, err)
		respondErr(c, err)
		return
	}
	logging.L.Printf("[auth][register][ok] id=%d email=%q", user.ID, user.Email)
	c.JSON(http.StatusCreated, user)
}

// @Summary      Login
// @Description  Authenticates a user and returns access + refresh tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logging.L.Printf("[auth][login][bind][err] %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.TrimSpace(req.Email)
	logging.L.Printf("[auth][login] attempt email=%q", email)

	user, err := h.userService.GetByEmail(c.Request.Context(), email)
	if err != nil || user == nil {
		logging.L.Printf("[auth][login][deny] email=%q err=%v", email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !h.authService.CheckPassword(user.PasswordHash, strings.TrimSpace(req.Password)) {
		logging.L.Printf("[auth][login][deny] bcrypt mismatch userID=%d", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	accessToken, err := h.issueAccessToken(user.ID)
	if err != nil {
		logging.L.Printf("[auth][login][err] sign access token userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	// opaque refresh, stored server-side
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		logging.L.Printf("[auth][login][err] new refresh token userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}
	rtExp := time.Now().Add(h.jwtCfg.RefreshTTL)
	if err := h.userService.UpdateRefresh(c.Request.Context(), user.ID, rt, rtExp); err != nil {
		logging.L.Printf("[auth][login][err] store refresh token userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	logging.L.Printf("[auth][login][ok] userID=%d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  accessToken,
		"refresh_token": rt,
	})
}

// @Summary      Refresh tokens
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Router       /refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.GetByRefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil || user == nil {
		logging.L.Printf("[auth][refresh][deny] unknown token err=%v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if user.RefreshExpiresAt == nil || user.RefreshExpiresAt.Before(time.Now()) {
		logging.L.Printf("[auth][refresh][deny] expired userID=%d", user.ID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token expired"})
		return
	}

	accessToken, err := h.issueAccessToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate access token"})
		return
	}

	// rotate
	rt, err := utils.NewRefreshToken(32)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}
	rtExp := time.Now().Add(h.jwtCfg.RefreshTTL)
	if err := h.userService.UpdateRefresh(c.Request.Context(), user.ID, rt, rtExp); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store refresh token"})
		return
	}

	logging.L.Printf("[auth][refresh][ok] userID=%d", user.ID)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": rt,
	})
}

func (h *AuthHandler) issueAccessToken(userID int64) (string, error) {
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(h.jwtCfg.AccessTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(middleware.SigningKey())
}
