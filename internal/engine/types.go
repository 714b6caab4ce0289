package engine

import "encoding/json"

// Cell is one square of the board. The zero value means the cell is
// empty (mid-cascade only; settled boards never contain Empty).
type Cell uint8

const (
	Empty Cell = iota
	Red
	Blue
	Green
	Yellow
	Purple
	Orange
)

var gemNames = [...]string{"", "red", "blue", "green", "yellow", "purple", "orange"}

// DefaultGems is the palette the browser client renders.
var DefaultGems = []Cell{Red, Blue, Green, Yellow, Purple, Orange}

const (
	// DefaultSize is the side length of a standard board.
	DefaultSize = 8

	// MinMatchLength is the shortest run that counts as a match.
	MinMatchLength = 3

	// PointsPerCell is awarded for every cell of a match.
	PointsPerCell = 10
)

func (c Cell) String() string {
	if int(c) < len(gemNames) {
		return gemNames[c]
	}
	return "unknown"
}

// MarshalJSON emits the color name the client expects, or null for an
// empty cell.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c == Empty {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

// Position is a zero-based (row, col) pair, row 0 at the top.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Adjacent reports whether q is exactly one step away along one axis.
func (p Position) Adjacent(q Position) bool {
	dr := p.Row - q.Row
	if dr < 0 {
		dr = -dr
	}
	dc := p.Col - q.Col
	if dc < 0 {
		dc = -dc
	}
	return (dr == 1 && dc == 0) || (dr == 0 && dc == 1)
}

// Move is a requested swap of two cells.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Match is a maximal straight run of at least MinMatchLength cells of
// one gem type. Positions are ordered along the run's axis.
type Match struct {
	Gem       Cell
	Positions []Position
}

// Score is the points this match alone is worth.
func (m Match) Score() int {
	return len(m.Positions) * PointsPerCell
}

type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidConfiguration Error = "gem palette needs at least two distinct types"
	ErrCascadeOverflow      Error = "cascade failed to settle"
)
