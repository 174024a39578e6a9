package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"divehouse-backend/internal/game"
	"divehouse-backend/internal/services"
)

type AdminHandler struct {
	engine         *services.Engine
	sessionTimeout time.Duration
}

func NewAdminHandler(engine *services.Engine, sessionTimeout time.Duration) *AdminHandler {
	return &AdminHandler{engine: engine, sessionTimeout: sessionTimeout}
}

func (h *AdminHandler) InitConfig(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var params game.ConfigParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	cfg, err := h.engine.InitConfig(userID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var params game.ConfigParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	cfg, err := h.engine.UpdateConfig(userID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

func (h *AdminHandler) OpenVault(c *gin.Context) {
	userID := c.GetInt64("user_id")

	vault, err := h.engine.OpenVault(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"vault":   vault,
		"address": game.VaultAddr(vault.Authority),
	})
}

type VaultRequest struct {
	Vault string `json:"vault" binding:"required"`
}

type VaultAmountRequest struct {
	Vault  string `json:"vault" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

func (h *AdminHandler) ToggleLock(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req VaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	vault, err := h.engine.ToggleLock(userID, req.Vault)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vault": vault})
}

func (h *AdminHandler) Deposit(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req VaultAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.engine.DepositHouse(userID, req.Vault, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) Withdraw(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req VaultAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.engine.WithdrawHouse(userID, req.Vault, req.Amount); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) ResetReserved(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req VaultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.engine.ResetVaultReserved(userID, req.Vault); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AdminHandler) VaultStatus(c *gin.Context) {
	status, err := h.engine.VaultStatus(c.Param("addr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// CleanSessions runs an on-demand sweep of expired sessions, the same pass
// the background sweeper runs on its interval.
func (h *AdminHandler) CleanSessions(c *gin.Context) {
	cleaned, err := h.engine.CleanupExpiredSessions(h.sessionTimeout)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleaned": cleaned})
}
