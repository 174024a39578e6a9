package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"divehouse-backend/internal/config"
	"divehouse-backend/internal/services"
)

type AuthHandler struct {
	jwtService *services.JWTService
	engine     *services.Engine
	cfg        *config.Config
}

func NewAuthHandler(jwtService *services.JWTService, engine *services.Engine, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		engine:     engine,
		cfg:        cfg,
	}
}

type LoginRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// Login issues a token for the given user and seeds their wallet on first
// login. Identity verification against the launching platform happens
// upstream; this service trusts its ingress.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	token, err := h.jwtService.GenerateToken(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	balance, err := h.engine.EnsureWallet(req.UserID, h.cfg.StarterBalance)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user_id": req.UserID,
		"balance": balance,
	})
}
