package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projectpulse/config"
	"projectpulse/internal/auth"
)

type AuthHandler struct {
	cfg    config.AuthConfig
	logger *zap.Logger
}

func NewAuthHandler(cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, logger: logger}
}

type loginRequest struct {
	Password string `json:"password"`
}

// Login exchanges the shared dashboard password for a session token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "password is required"})
		return
	}

	if !auth.CheckPassword(req.Password, h.cfg.PasswordHash) {
		h.logger.Warn("Login: invalid credentials", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.cfg.JWTSecret)
	if err != nil {
		h.logger.Error("Login: failed to sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}
