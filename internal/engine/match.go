package engine

// FindMatches scans the board for maximal straight runs of at least
// MinMatchLength identical gems. Horizontal runs are reported first in
// row-major order, then vertical runs in column-major order, so the
// result is deterministic for a given board. A cell sitting at the
// crossing of a horizontal and a vertical run appears in both matches.
// Empty cells never match.
func FindMatches(g Grid) []Match {
	var matches []Match
	size := g.Size()

	for r := 0; r < size; r++ {
		for c := 0; c < size; {
			run := runLength(g, r, c, 0, 1)
			if g[r][c] != Empty && run >= MinMatchLength {
				matches = append(matches, makeMatch(g, r, c, 0, 1, run))
			}
			c += run
		}
	}

	for c := 0; c < size; c++ {
		for r := 0; r < size; {
			run := runLength(g, r, c, 1, 0)
			if g[r][c] != Empty && run >= MinMatchLength {
				matches = append(matches, makeMatch(g, r, c, 1, 0, run))
			}
			r += run
		}
	}

	return matches
}

// runLength counts consecutive cells equal to g[r][c] walking in the
// (dr, dc) direction, including the starting cell.
func runLength(g Grid, r, c, dr, dc int) int {
	gem := g[r][c]
	size := g.Size()
	n := 1
	for {
		nr, nc := r+n*dr, c+n*dc
		if nr >= size || nc >= size || g[nr][nc] != gem {
			return n
		}
		n++
	}
}

func makeMatch(g Grid, r, c, dr, dc, run int) Match {
	positions := make([]Position, run)
	for i := 0; i < run; i++ {
		positions[i] = Position{Row: r + i*dr, Col: c + i*dc}
	}
	return Match{Gem: g[r][c], Positions: positions}
}
