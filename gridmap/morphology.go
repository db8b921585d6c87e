package gridmap

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Connectivity selects which neighbors of a cell count as adjacent.
type Connectivity int

const (
	// Four uses the edge-sharing neighbors.
	Four Connectivity = 4
	// Eight adds the diagonal neighbors.
	Eight Connectivity = 8
)

var (
	fourOffsets  = []Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	eightOffsets = []Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

// ConnectivityFromInt validates a 4 or 8 neighborhood size.
func ConnectivityFromInt(n int) (Connectivity, error) {
	switch Connectivity(n) {
	case Four, Eight:
		return Connectivity(n), nil
	default:
		return 0, errors.Errorf("connectivity must be 4 or 8, got %d", n)
	}
}

func (c Connectivity) String() string {
	return fmt.Sprintf("%d-connected", int(c))
}

// Offsets returns the neighbor offsets for this connectivity.
func (c Connectivity) Offsets() []Cell {
	if c == Four {
		return fourOffsets
	}
	return eightOffsets
}

// Neighbors returns the in-bounds neighbors of a cell.
func (m *Mask) Neighbors(c Cell, conn Connectivity) []Cell {
	offsets := conn.Offsets()
	out := make([]Cell, 0, len(offsets))
	for _, o := range offsets {
		n := Cell{Row: c.Row + o.Row, Col: c.Col + o.Col}
		if m.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// diskOffsets returns every offset within a Euclidean radius of cells.
func diskOffsets(radius int) []Cell {
	var out []Cell
	for dr := -radius; dr <= radius; dr++ {
		for dc := -radius; dc <= radius; dc++ {
			if dr*dr+dc*dc <= radius*radius {
				out = append(out, Cell{Row: dr, Col: dc})
			}
		}
	}
	return out
}

// Dilate grows the set cells by a disk of the given radius in cells. A radius of zero returns a copy.
func (m *Mask) Dilate(radius int) *Mask {
	if radius <= 0 {
		return m.Clone()
	}
	return m.dilateWith(diskOffsets(radius))
}

// DilateConnected grows the set cells by one step of the given neighborhood.
func (m *Mask) DilateConnected(conn Connectivity) *Mask {
	return m.dilateWith(append([]Cell{{0, 0}}, conn.Offsets()...))
}

func (m *Mask) dilateWith(offsets []Cell) *Mask {
	out := NewMask(m.rows, m.cols)
	for i, v := range m.data {
		if !v {
			continue
		}
		r, c := i/m.cols, i%m.cols
		for _, o := range offsets {
			out.Set(Cell{Row: r + o.Row, Col: c + o.Col}, true)
		}
	}
	return out
}

// Erode shrinks the set cells by a disk of the given radius; cells near the border erode as if the
// outside were unset.
func (m *Mask) Erode(radius int) *Mask {
	return m.Not().Dilate(radius).Not()
}

// Adjacent returns the cells of m that have at least one neighbor set in other under the given
// connectivity. Neighbors outside the grid do not count.
func (m *Mask) Adjacent(other *Mask, conn Connectivity) (*Mask, error) {
	if err := m.checkShape(other); err != nil {
		return nil, err
	}
	out := NewMask(m.rows, m.cols)
	for i, v := range m.data {
		if !v {
			continue
		}
		r, c := i/m.cols, i%m.cols
		for _, n := range m.Neighbors(Cell{Row: r, Col: c}, conn) {
			if other.Get(n) {
				out.data[i] = true
				break
			}
		}
	}
	return out, nil
}

// String renders the mask as rows of '#' and '.' for debugging.
func (m *Mask) String() string {
	var sb strings.Builder
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.data[r*m.cols+c] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FromStrings builds a mask from rows of '#' (set) and any other rune (unset). Rows must have
// equal length.
func FromStrings(rows ...string) (*Mask, error) {
	if len(rows) == 0 {
		return NewMask(0, 0), nil
	}
	cols := len(rows[0])
	m := NewMask(len(rows), cols)
	for r, line := range rows {
		if len(line) != cols {
			return nil, errors.Errorf("row %d has length %d, expected %d", r, len(line), cols)
		}
		for c := 0; c < cols; c++ {
			m.data[r*cols+c] = line[c] == '#'
		}
	}
	return m, nil
}
