package geospatial

import (
	"strings"

	"github.com/samirrijal/streamgeo/internal/core/domain"
)

// StridedMask is a sparse boolean matrix in which every row holds exactly
// one run of set cells [Start[r], End[r]], and both Start and End are
// non-decreasing from row to row. It is the search window shape used by
// windowed DTW.
//
//	  0 1 2 3 4 5
//	0 * * * . . .
//	1 . * * * . .
//	2 . * * * . .
//	3 . . * * * *
type StridedMask struct {
	Rows, Cols int
	Start, End []int
}

// FullMask returns a mask with every cell set.
func FullMask(rows, cols int) *StridedMask {
	m := &StridedMask{Rows: rows, Cols: cols, Start: make([]int, rows), End: make([]int, rows)}
	for r := range m.End {
		m.End[r] = cols - 1
	}
	return m
}

// PathMask converts a monotone warp path into the strided mask covering it.
func PathMask(path []domain.IndexPair, rows, cols int) *StridedMask {
	m := &StridedMask{Rows: rows, Cols: cols, Start: make([]int, rows), End: make([]int, rows)}
	for r := range m.Start {
		m.Start[r] = -1
	}
	for _, p := range path {
		if m.Start[p.I] < 0 || p.J < m.Start[p.I] {
			m.Start[p.I] = p.J
		}
		if p.J > m.End[p.I] {
			m.End[p.I] = p.J
		}
	}
	return m
}

// Contains reports whether cell (r, c) is set.
func (m *StridedMask) Contains(r, c int) bool {
	if r < 0 || r >= m.Rows || c < 0 {
		return false
	}
	return m.Start[r] <= c && c <= m.End[r]
}

// Cells returns the number of set cells.
func (m *StridedMask) Cells() int {
	total := 0
	for r := 0; r < m.Rows; r++ {
		total += m.End[r] - m.Start[r] + 1
	}
	return total
}

// Pairs lists every set cell in row-major order. For a path mask this is the
// warp path itself.
func (m *StridedMask) Pairs() []domain.IndexPair {
	out := make([]domain.IndexPair, 0, m.Cells())
	for r := 0; r < m.Rows; r++ {
		for c := m.Start[r]; c <= m.End[r]; c++ {
			out = append(out, domain.IndexPair{I: r, J: c})
		}
	}
	return out
}

// Expand projects a mask computed on half-resolution streams back onto full
// resolution. Each cell is first upsampled to a 2x2 block; an odd row (or
// column) count on the full-resolution side adds one trailing row (or
// column) via rowParity (colParity). The result is then dilated by a square
// of the given radius and clipped to the matrix.
func (m *StridedMask) Expand(rowParity, colParity, radius int) *StridedMask {
	rows := 2*m.Rows + rowParity
	cols := 2*m.Cols + colParity

	upStart := make([]int, 0, rows)
	upEnd := make([]int, 0, rows)
	for r := 0; r < m.Rows; r++ {
		s, e := 2*m.Start[r], 2*m.End[r]+1
		if colParity == 1 && m.End[r] == m.Cols-1 {
			e++
		}
		upStart = append(upStart, s, s)
		upEnd = append(upEnd, e, e)
	}
	if rowParity == 1 && m.Rows > 0 {
		upStart = append(upStart, upStart[len(upStart)-1])
		upEnd = append(upEnd, upEnd[len(upEnd)-1])
	}

	out := &StridedMask{Rows: rows, Cols: cols, Start: make([]int, rows), End: make([]int, rows)}
	for r := 0; r < rows; r++ {
		lo, hi := max(0, r-radius), min(rows-1, r+radius)
		// Starts and ends are monotone, so the window extremes sit at its edges.
		out.Start[r] = max(0, upStart[lo]-radius)
		out.End[r] = min(cols-1, upEnd[hi]+radius)
	}
	return out
}

// String renders the mask one row per line, "*" for set cells and "." for
// unset ones.
func (m *StridedMask) String() string {
	var b strings.Builder
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			if m.Contains(r, c) {
				b.WriteByte('*')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
