package gridmap

import (
	"github.com/pkg/errors"
)

// Mask is a dense boolean raster.
type Mask struct {
	rows, cols int
	data       []bool
}

// NewMask returns an all-false mask.
func NewMask(rows, cols int) *Mask {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Mask{rows: rows, cols: cols, data: make([]bool, rows*cols)}
}

// Rows returns the number of rows.
func (m *Mask) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Mask) Cols() int { return m.cols }

// InBounds reports whether the cell indexes into the mask.
func (m *Mask) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < m.rows && c.Col >= 0 && c.Col < m.cols
}

// Get returns the value at the cell; out-of-range cells read as false.
func (m *Mask) Get(c Cell) bool {
	if !m.InBounds(c) {
		return false
	}
	return m.data[c.Row*m.cols+c.Col]
}

// Set assigns the value at the cell; out-of-range cells are ignored.
func (m *Mask) Set(c Cell, v bool) {
	if !m.InBounds(c) {
		return
	}
	m.data[c.Row*m.cols+c.Col] = v
}

// Count returns the number of set cells.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.data {
		if v {
			n++
		}
	}
	return n
}

// Any reports whether at least one cell is set.
func (m *Mask) Any() bool {
	for _, v := range m.data {
		if v {
			return true
		}
	}
	return false
}

// Cells returns the set cells in row-major order.
func (m *Mask) Cells() []Cell {
	var out []Cell
	for i, v := range m.data {
		if v {
			out = append(out, Cell{Row: i / m.cols, Col: i % m.cols})
		}
	}
	return out
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	out := &Mask{rows: m.rows, cols: m.cols, data: make([]bool, len(m.data))}
	copy(out.data, m.data)
	return out
}

// Equal reports whether both masks have the same shape and contents.
func (m *Mask) Equal(other *Mask) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

func (m *Mask) checkShape(other *Mask) error {
	if m.rows != other.rows || m.cols != other.cols {
		return errors.Errorf("mask shapes differ: %dx%d vs %dx%d", m.rows, m.cols, other.rows, other.cols)
	}
	return nil
}

func (m *Mask) combine(other *Mask, op func(a, b bool) bool) (*Mask, error) {
	if err := m.checkShape(other); err != nil {
		return nil, err
	}
	out := NewMask(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = op(m.data[i], other.data[i])
	}
	return out, nil
}

// And returns the cellwise conjunction.
func (m *Mask) And(other *Mask) (*Mask, error) {
	return m.combine(other, func(a, b bool) bool { return a && b })
}

// Or returns the cellwise disjunction.
func (m *Mask) Or(other *Mask) (*Mask, error) {
	return m.combine(other, func(a, b bool) bool { return a || b })
}

// AndNot returns cells set in m but not in other.
func (m *Mask) AndNot(other *Mask) (*Mask, error) {
	return m.combine(other, func(a, b bool) bool { return a && !b })
}

// Not returns the complement.
func (m *Mask) Not() *Mask {
	out := NewMask(m.rows, m.cols)
	for i, v := range m.data {
		out.data[i] = !v
	}
	return out
}
