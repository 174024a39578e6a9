package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"divehouse-backend/internal/game"
)

// respondError maps domain errors onto HTTP statuses. Unknown errors become
// opaque 500s so internals never leak to clients.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, game.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, game.ErrHouseLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "House is locked"})
	case errors.Is(err, game.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, game.ErrInsufficientVaultBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Vault cannot cover the payout"})
	case errors.Is(err, game.ErrInsufficientTreasure):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to cash out yet"})
	case errors.Is(err, game.ErrInvalidBetAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bet amount out of bounds"})
	case errors.Is(err, game.ErrInvalidConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid config parameters"})
	case errors.Is(err, game.ErrInvalidSessionStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session is not active"})
	case errors.Is(err, game.ErrRoundMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Round number mismatch"})
	case errors.Is(err, game.ErrMaxRoundsReached):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum rounds reached"})
	case errors.Is(err, game.ErrVaultHasReservedFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vault still has reserved funds"})
	case errors.Is(err, game.ErrSessionNotExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session has not expired"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
