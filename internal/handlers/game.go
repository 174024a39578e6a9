package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"divehouse-backend/internal/game"
	"divehouse-backend/internal/services"
)

type GameHandler struct {
	engine *services.Engine
}

func NewGameHandler(engine *services.Engine) *GameHandler {
	return &GameHandler{engine: engine}
}

type StartDiveRequest struct {
	Vault        string `json:"vault" binding:"required"`
	SessionIndex uint64 `json:"session_index"`
	Amount       uint64 `json:"amount" binding:"required"`
}

type RoundRequest struct {
	Session       string `json:"session" binding:"required"`
	ExpectedRound uint16 `json:"expected_round"`
}

type SessionRequest struct {
	Session string `json:"session" binding:"required"`
}

func (h *GameHandler) StartDive(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req StartDiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, err := h.engine.StartSession(userID, req.Vault, req.SessionIndex, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sessionJSON(session),
	})
}

func (h *GameHandler) PlayRound(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req RoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.ResolveRound(userID, req.Session, req.ExpectedRound)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"survived": result.Outcome.Survived,
		"finished": result.Finished,
		"outcome": gin.H{
			"roll":         result.Outcome.Roll,
			"threshold":    result.Outcome.Threshold,
			"new_treasure": result.Outcome.NewTreasure,
		},
		"session": sessionJSON(result.Session),
	})
}

func (h *GameHandler) Cashout(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	payout, err := h.engine.CashOut(userID, req.Session)
	if err != nil {
		respondError(c, err)
		return
	}

	balance, err := h.engine.Balance(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payout":  payout,
		"balance": balance,
	})
}

func (h *GameHandler) Forfeit(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if err := h.engine.LoseSession(userID, req.Session); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *GameHandler) GetSession(c *gin.Context) {
	userID := c.GetInt64("user_id")

	session, err := h.engine.Session(userID, c.Param("addr"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": sessionJSON(session)})
}

func (h *GameHandler) ActiveSessions(c *gin.Context) {
	userID := c.GetInt64("user_id")

	sessions, err := h.engine.ActiveSessions(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *GameHandler) History(c *gin.Context) {
	userID := c.GetInt64("user_id")

	history, err := h.engine.History(userID, 50)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *GameHandler) Balance(c *gin.Context) {
	userID := c.GetInt64("user_id")

	balance, err := h.engine.Balance(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *GameHandler) GetConfig(c *gin.Context) {
	cfg, err := h.engine.Config()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"config": cfg})
}

// sessionJSON is the wire shape of a session. The seed stays server-side
// until the session ends so clients cannot predict rolls.
func sessionJSON(s *game.DiveSession) gin.H {
	out := gin.H{
		"address":          s.Addr(),
		"player":           s.Player,
		"vault":            s.Vault,
		"session_index":    s.SessionIndex,
		"status":           s.Status,
		"bet_amount":       s.BetAmount,
		"current_treasure": s.CurrentTreasure,
		"max_payout":       s.MaxPayout,
		"round_number":     s.RoundNumber,
		"created_at":       s.CreatedAt,
		"last_active_at":   s.LastActiveAt,
	}
	if s.Status != game.StatusActive {
		out["seed"] = s.Seed.String()
	}
	return out
}
