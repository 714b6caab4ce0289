package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/avolkov/gemrush/backend/internal/domain"
	"github.com/avolkov/gemrush/backend/internal/engine"
	"github.com/avolkov/gemrush/backend/internal/game"
	"github.com/avolkov/gemrush/backend/pkg/uid"
)

// Handler owns a websocket endpoint's dependencies.
type Handler struct {
	Conns     *ConnectionManager
	Directory *game.Directory
	Upgrader  websocket.Upgrader
}

func NewHandler(cm *ConnectionManager, d *game.Directory) *Handler {
	return &Handler{
		Conns:     cm,
		Directory: d,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// HandleWebSocket upgrades the HTTP request and hands the socket to
// the connection loop.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}
	h.handleConnection(conn)
}

// handleConnection manages the lifecycle of a single player socket:
// one joinGame handshake, then a move loop until disconnect.
func (h *Handler) handleConnection(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))

	// Keep-alive pinger
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// WriteControl is safe alongside the broadcast writes
				// going through the ConnectionManager's write lock.
				deadline := time.Now().Add(10 * time.Second)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// 1. Handshake: the first message must be joinGame
	_, data, err := conn.ReadMessage()
	if err != nil {
		log.Printf("[WS] Read error during join: %v", err)
		conn.Close()
		return
	}

	var joinMsg domain.ClientMessage
	if err := json.Unmarshal(data, &joinMsg); err != nil {
		log.Printf("[WS] Invalid JSON during join: %v", err)
		conn.Close()
		return
	}

	playerName := strings.TrimSpace(joinMsg.PlayerName)
	if joinMsg.Type != "joinGame" || playerName == "" {
		conn.WriteJSON(domain.ServerMessage{Type: "error", Message: "expected joinGame with a player name"})
		conn.Close()
		return
	}

	playerID := uid.NewPlayerID()
	h.Conns.Add(playerID, conn)

	room, err := h.Directory.Assign(&game.Player{ID: playerID, Name: playerName})
	if err != nil {
		log.Printf("[WS] Failed to assign %s to a room: %v", playerName, err)
		h.Conns.Send(playerID, domain.ServerMessage{Type: "error", Message: "failed to join a game"})
		h.Conns.RemoveIfMatching(playerID, conn)
		conn.Close()
		return
	}

	log.Printf("[WS] %s (id %s) connected and joined room %s", playerName, playerID, room.ID)
	h.Conns.Send(playerID, domain.ServerMessage{Type: "roomJoined", RoomID: room.ID})

	// 2. Cleanup on exit
	defer func() {
		log.Printf("[WS] Connection closed for %s (id %s)", playerName, playerID)
		h.Directory.Leave(playerID)
		h.Conns.RemoveIfMatching(playerID, conn)
	}()

	// 3. Main message loop
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] %s disconnected unexpectedly: %v", playerName, err)
			}
			return
		}

		var msg domain.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] Invalid message format from %s: %v", playerName, err)
			continue
		}

		h.processMessage(playerID, msg)
	}
}

// processMessage routes one in-game message.
func (h *Handler) processMessage(playerID string, msg domain.ClientMessage) {
	switch msg.Type {
	case "move":
		if msg.From == nil || msg.To == nil {
			h.Conns.Send(playerID, domain.ServerMessage{Type: "error", Message: "move needs from and to"})
			return
		}

		room, exists := h.Directory.Lookup(playerID)
		if !exists {
			h.Conns.Send(playerID, domain.ServerMessage{Type: "error", Message: domain.ErrUnknownRoom.Error()})
			return
		}

		_, err := room.SubmitMove(playerID, engine.Move{From: *msg.From, To: *msg.To})
		if err != nil {
			h.Conns.Send(playerID, domain.ServerMessage{Type: "error", Message: err.Error()})
		}
		// A reverted no-match swap is a normal outcome: the playerMove
		// echo already went out and the client animates the swap-back.

	case "scoreUpdate":
		// Legacy clients self-report points. Scores are computed
		// server-side from the cascade, so the value is dropped.
		log.Printf("[WS] Ignoring client-reported score from %s", playerID)

	default:
		log.Printf("[WS] Unknown message type %q from %s", msg.Type, playerID)
	}
}
