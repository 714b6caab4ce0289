package domain

// Error is a comparable string error, so callers can match on the
// reason with errors.Is.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrRoomNotActive Error = "game is not active"
	ErrRoomFull      Error = "room is full"
	ErrOutOfBounds   Error = "position out of bounds"
	ErrNotAdjacent   Error = "cells are not adjacent"
	ErrUnknownPlayer Error = "player not found"
	ErrUnknownRoom   Error = "room not found"
)
