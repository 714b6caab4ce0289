package game

import "github.com/avolkov/gemrush/backend/internal/engine"

// Player is one member of a room. Each player owns a private board;
// scores land on the room's shared leaderboard. The room's mutex
// guards every field, including the grid.
type Player struct {
	ID    string
	Name  string
	Score int
	Grid  engine.Grid
}
