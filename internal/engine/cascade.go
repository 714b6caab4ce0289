package engine

import "math/rand"

// Report summarizes one fully-settled cascade.
type Report struct {
	// Score is the total points across all cycles: every match is worth
	// 10 per cell, and a cell shared by a horizontal and a vertical
	// match counts toward both.
	Score int
	// Cycles is the number of clear/drop/refill rounds that ran. Zero
	// means the board had no match to begin with.
	Cycles int
}

// maxCascadeCycles caps the clear/drop/refill loop. Refills can
// incidentally create new matches, but a board that has not settled
// after this many rounds indicates a broken invariant, not a long
// cascade.
const maxCascadeCycles = 1000

// Resolve repeatedly clears all current matches, compacts each column
// downward and refills the vacated cells from the palette, until a
// scan finds no match. Unlike initial generation, refills do not avoid
// creating runs; the next cycle picks those up. The grid is mutated in
// place and is fully settled (no match, no empty cell) on return.
func Resolve(g Grid, gems []Cell, rng *rand.Rand) (Report, error) {
	var report Report
	for {
		matches := FindMatches(g)
		if len(matches) == 0 {
			return report, nil
		}
		if report.Cycles >= maxCascadeCycles {
			return report, ErrCascadeOverflow
		}

		for _, m := range matches {
			report.Score += m.Score()
			for _, p := range m.Positions {
				g[p.Row][p.Col] = Empty
			}
		}
		collapse(g)
		refill(g, gems, rng)
		report.Cycles++
	}
}

// collapse slides the surviving cells of every column to the bottom,
// preserving their relative order, leaving the empties on top.
func collapse(g Grid) {
	size := g.Size()
	for c := 0; c < size; c++ {
		write := size - 1
		for r := size - 1; r >= 0; r-- {
			if g[r][c] == Empty {
				continue
			}
			g[write][c] = g[r][c]
			write--
		}
		for r := write; r >= 0; r-- {
			g[r][c] = Empty
		}
	}
}

// refill replaces every empty cell with a uniformly random palette gem.
func refill(g Grid, gems []Cell, rng *rand.Rand) {
	for r := range g {
		for c := range g[r] {
			if g[r][c] == Empty {
				g[r][c] = gems[rng.Intn(len(gems))]
			}
		}
	}
}
