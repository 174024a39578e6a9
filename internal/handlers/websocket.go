package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"divehouse-backend/internal/game"
	"divehouse-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler owns the connection hub and doubles as the engine's event
// broadcaster: lifecycle events fan out to the session owner's connection.
type WebSocketHandler struct {
	engine *services.Engine
	hub    *WebSocketHub
}

type WebSocketHub struct {
	clients    map[int64]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	UserID int64
	Conn   *websocket.Conn
}

type Message struct {
	Type   string      `json:"type"`
	UserID int64       `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWebSocketHandler(engine *services.Engine) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[int64]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		engine: engine,
		hub:    hub,
	}
}

// SetEngine breaks the construction cycle: the hub is the engine's
// broadcaster, so it exists before the engine does. Call before serving.
func (h *WebSocketHandler) SetEngine(engine *services.Engine) {
	h.engine = engine
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetInt64("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "GET_BALANCE":
		h.sendBalance(client)
	}
}

func (h *WebSocketHandler) sendBalance(client *Client) {
	balance, err := h.engine.Balance(client.UserID)
	if err != nil {
		log.Printf("Failed to get balance for WS: %v", err)
		return
	}

	client.Conn.WriteJSON(Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": balance},
	})
}

func (h *WebSocketHandler) sendPong(client *Client) {
	client.Conn.WriteJSON(Message{
		Type: "PONG",
		Data: gin.H{"timestamp": time.Now().Unix()},
	})
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			log.Printf("Client registered: %d", client.UserID)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				log.Printf("Client unregistered: %d", client.UserID)
			}

		case message := <-hub.broadcast:
			hub.send(message)
		}
	}
}

func (hub *WebSocketHub) send(message *Message) {
	if message.UserID != 0 {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
		return
	}
	for _, conn := range hub.clients {
		conn.WriteJSON(message)
	}
}

func (h *WebSocketHandler) push(userID int64, msgType string, data gin.H) {
	select {
	case h.hub.broadcast <- &Message{Type: msgType, UserID: userID, Data: data}:
	default:
		// Hub backlog full; the client can refetch state over HTTP.
	}
}

// The methods below implement services.Broadcaster.

func (h *WebSocketHandler) SessionStarted(s *game.DiveSession) {
	h.push(s.Player, "SESSION_STARTED", gin.H{
		"session":    s.Addr(),
		"bet_amount": s.BetAmount,
		"max_payout": s.MaxPayout,
	})
}

func (h *WebSocketHandler) RoundPlayed(s *game.DiveSession, out game.Outcome) {
	h.push(s.Player, "ROUND_PLAYED", gin.H{
		"session":          s.Addr(),
		"roll":             out.Roll,
		"threshold":        out.Threshold,
		"current_treasure": s.CurrentTreasure,
		"round_number":     s.RoundNumber,
	})
}

func (h *WebSocketHandler) SessionLost(s *game.DiveSession, finalRound uint16) {
	h.push(s.Player, "SESSION_LOST", gin.H{
		"session":     s.Addr(),
		"final_round": finalRound,
		"bet_amount":  s.BetAmount,
	})
}

func (h *WebSocketHandler) SessionCashedOut(s *game.DiveSession, payout uint64) {
	h.push(s.Player, "SESSION_CASHED_OUT", gin.H{
		"session": s.Addr(),
		"payout":  payout,
	})
}

func (h *WebSocketHandler) SessionCleaned(s *game.DiveSession, released uint64) {
	h.push(s.Player, "SESSION_CLEANED", gin.H{
		"session":  s.Addr(),
		"released": released,
	})
}
