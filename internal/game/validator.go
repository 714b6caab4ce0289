package game

import (
	"github.com/avolkov/gemrush/backend/internal/domain"
	"github.com/avolkov/gemrush/backend/internal/engine"
)

// ValidateMove checks turn legality for a swap on the given board:
// the round must be running, both cells on the board, and the cells
// Manhattan-adjacent. Grid operations are serialized by the room's
// mutex, so a second move for the same board can never interleave with
// a cascade in flight. Whether the swap actually produces a match is
// decided later by the engine; a matchless swap is legal to attempt
// and gets reverted.
func ValidateMove(state State, grid engine.Grid, mv engine.Move) error {
	if state != StateActive {
		return domain.ErrRoomNotActive
	}
	if !grid.InBounds(mv.From) || !grid.InBounds(mv.To) {
		return domain.ErrOutOfBounds
	}
	if !mv.From.Adjacent(mv.To) {
		return domain.ErrNotAdjacent
	}
	return nil
}
