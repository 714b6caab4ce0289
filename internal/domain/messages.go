package domain

import "github.com/avolkov/gemrush/backend/internal/engine"

// ClientMessage is the envelope for everything a browser sends over
// the socket. Type selects which of the remaining fields are set.
type ClientMessage struct {
	Type       string           `json:"type"`
	PlayerName string           `json:"playerName,omitempty"`
	From       *engine.Position `json:"from,omitempty"`
	To         *engine.Position `json:"to,omitempty"`
	// Points is the legacy client-reported score delta. The server
	// computes scores itself and never reads this field.
	Points int `json:"points,omitempty"`
}

// PlayerInfo is the roster/standings entry shared by gameStart,
// and gameEnd.
type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ServerMessage is the envelope for everything sent to a browser. The
// field names are the wire contract and must not change.
type ServerMessage struct {
	Type     string           `json:"type"`
	RoomID   string           `json:"roomId,omitempty"`
	Players  []PlayerInfo     `json:"players,omitempty"`
	EndTime  int64            `json:"endTime,omitempty"` // epoch millis
	Grid     engine.Grid      `json:"grid,omitempty"`
	PlayerID string           `json:"playerId,omitempty"`
	From     *engine.Position `json:"from,omitempty"`
	To       *engine.Position `json:"to,omitempty"`
	Score    int              `json:"score,omitempty"`
	Scores   []PlayerInfo     `json:"scores,omitempty"`
	Message  string           `json:"message,omitempty"`
}
