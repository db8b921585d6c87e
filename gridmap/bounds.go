// Package gridmap provides the 2D raster types shared by the voxel map projection, the
// navigation space, and the grid planner: a world-anchored window, cell indices, and boolean masks.
//
// Rows follow world y and columns follow world x. Cell (r, c) covers
// [MinX + c*res, MinX + (c+1)*res) x [MinY + r*res, MinY + (r+1)*res).
package gridmap

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Cell is a (row, column) index into a grid.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("[%d,%d]", c.Row, c.Col)
}

// Bounds is a rectangular window of the world ground plane discretized at a fixed resolution.
type Bounds struct {
	MinX         float64 `json:"min_x"`
	MinY         float64 `json:"min_y"`
	Rows         int     `json:"rows"`
	Cols         int     `json:"cols"`
	ResolutionCM float64 `json:"resolution_cm"`
}

// NewSquareBounds returns a square window of sizeCM centered on (centerX, centerY). The number of
// cells per side is sizeCM/resolutionCM rounded to the nearest integer.
func NewSquareBounds(centerX, centerY, sizeCM, resolutionCM float64) (Bounds, error) {
	if resolutionCM <= 0 || math.IsNaN(resolutionCM) {
		return Bounds{}, errors.Errorf("resolution must be positive, got %v", resolutionCM)
	}
	if sizeCM < resolutionCM {
		return Bounds{}, errors.Errorf("window size %v smaller than resolution %v", sizeCM, resolutionCM)
	}
	n := int(math.Round(sizeCM / resolutionCM))
	half := float64(n) * resolutionCM / 2
	return Bounds{
		MinX:         centerX - half,
		MinY:         centerY - half,
		Rows:         n,
		Cols:         n,
		ResolutionCM: resolutionCM,
	}, nil
}

// Validate checks that the window is non-empty with a positive resolution.
func (b Bounds) Validate() error {
	if b.Rows <= 0 || b.Cols <= 0 {
		return errors.Errorf("invalid grid size %dx%d", b.Rows, b.Cols)
	}
	if b.ResolutionCM <= 0 {
		return errors.Errorf("resolution must be positive, got %v", b.ResolutionCM)
	}
	return nil
}

// MaxX is the exclusive upper x edge of the window.
func (b Bounds) MaxX() float64 {
	return b.MinX + float64(b.Cols)*b.ResolutionCM
}

// MaxY is the exclusive upper y edge of the window.
func (b Bounds) MaxY() float64 {
	return b.MinY + float64(b.Rows)*b.ResolutionCM
}

// Contains reports whether the cell lies inside the window.
func (b Bounds) Contains(c Cell) bool {
	return c.Row >= 0 && c.Row < b.Rows && c.Col >= 0 && c.Col < b.Cols
}

// WorldToCell returns the cell holding the world point and whether it lies inside the window.
func (b Bounds) WorldToCell(x, y float64) (Cell, bool) {
	c := Cell{
		Row: int(math.Floor((y - b.MinY) / b.ResolutionCM)),
		Col: int(math.Floor((x - b.MinX) / b.ResolutionCM)),
	}
	return c, b.Contains(c)
}

// CellToWorld returns the world coordinates of the cell center.
func (b Bounds) CellToWorld(c Cell) (float64, float64) {
	return b.MinX + (float64(c.Col)+0.5)*b.ResolutionCM, b.MinY + (float64(c.Row)+0.5)*b.ResolutionCM
}

// NewMask returns an empty mask sized to the window.
func (b Bounds) NewMask() *Mask {
	return NewMask(b.Rows, b.Cols)
}
