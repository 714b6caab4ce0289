package engine

import "math/rand"

// Grid is a square board of cells. Row 0 is the top row.
type Grid [][]Cell

// maxGenerateRestarts bounds the (rare) case where a two-color palette
// paints itself into a corner and the row-major fill has to start over.
const maxGenerateRestarts = 100

// NewGrid fills a size×size board with uniformly random gems from the
// palette, resampling any gem that would complete a run of three with
// the two already-filled neighbors above or to the left. Filling is
// row-major, so those are the only neighbors that can extend a run;
// the finished board therefore contains no match and no empty cell.
func NewGrid(size int, gems []Cell, rng *rand.Rand) (Grid, error) {
	if countDistinct(gems) < 2 {
		return nil, ErrInvalidConfiguration
	}

	for attempt := 0; attempt < maxGenerateRestarts; attempt++ {
		g := make(Grid, size)
		for r := range g {
			g[r] = make([]Cell, size)
		}
		if fill(g, gems, rng) {
			return g, nil
		}
	}
	return nil, ErrInvalidConfiguration
}

// fill attempts one row-major pass. It fails only when every palette
// gem would complete a run at some cell, which needs a two-color
// palette and an unlucky prefix.
func fill(g Grid, gems []Cell, rng *rand.Rand) bool {
	for r := range g {
		for c := range g[r] {
			allowed := g.allowedAt(r, c, gems)
			if len(allowed) == 0 {
				return false
			}
			g[r][c] = allowed[rng.Intn(len(allowed))]
		}
	}
	return true
}

// allowedAt returns the palette gems that do not complete a run of
// three with the two filled neighbors above or to the left of (r, c).
func (g Grid) allowedAt(r, c int, gems []Cell) []Cell {
	var blockedLeft, blockedUp Cell
	if c >= 2 && g[r][c-1] == g[r][c-2] {
		blockedLeft = g[r][c-1]
	}
	if r >= 2 && g[r-1][c] == g[r-2][c] {
		blockedUp = g[r-1][c]
	}

	allowed := make([]Cell, 0, len(gems))
	for _, gem := range gems {
		if gem != Empty && gem != blockedLeft && gem != blockedUp {
			allowed = append(allowed, gem)
		}
	}
	return allowed
}

func countDistinct(gems []Cell) int {
	seen := make(map[Cell]struct{}, len(gems))
	for _, gem := range gems {
		if gem != Empty {
			seen[gem] = struct{}{}
		}
	}
	return len(seen)
}

// Size returns the side length of the board.
func (g Grid) Size() int {
	return len(g)
}

// InBounds reports whether p addresses a cell of this board.
func (g Grid) InBounds(p Position) bool {
	return p.Row >= 0 && p.Row < len(g) && p.Col >= 0 && p.Col < len(g)
}

// Swap exchanges the cells at a and b. It performs no legality checks;
// move validation is the caller's responsibility.
func (g Grid) Swap(a, b Position) {
	g[a.Row][a.Col], g[b.Row][b.Col] = g[b.Row][b.Col], g[a.Row][a.Col]
}

// Clone returns a deep copy of the board.
func (g Grid) Clone() Grid {
	dup := make(Grid, len(g))
	for r := range g {
		dup[r] = make([]Cell, len(g[r]))
		copy(dup[r], g[r])
	}
	return dup
}

// Equal reports whether two boards hold identical cells.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for r := range g {
		if len(g[r]) != len(other[r]) {
			return false
		}
		for c := range g[r] {
			if g[r][c] != other[r][c] {
				return false
			}
		}
	}
	return true
}
