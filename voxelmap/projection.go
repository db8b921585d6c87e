package voxelmap

import (
	"go.viam.com/voxelnav/gridmap"
)

// Get2DMap flattens the voxel grid onto the ground plane within bounds, or within the configured
// window when bounds is nil. A cell is explored when any voxel in its column is confirmed or the
// robot footprint has covered it, and an
// obstacle when at least ObstacleMinVoxels confirmed occupied voxels lie in its column below
// ObstacleMaxHeightCM. The result is recomputed on every call.
func (m *Map) Get2DMap(bounds *gridmap.Bounds) (explored, obstacles *gridmap.Mask, err error) {
	b := m.window
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			return nil, nil, err
		}
		b = *bounds
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	explored = b.NewMask()
	obstacles = b.NewMask()
	for key := range m.visited {
		center := key.Center(m.cfg.ResolutionCM)
		if cell, ok := b.WorldToCell(center.X, center.Y); ok {
			explored.Set(cell, true)
		}
	}
	occupiedPerCell := map[gridmap.Cell]int{}
	for key, v := range m.voxels {
		state := m.occupancy(key, v)
		if state == Unknown {
			continue
		}
		center := key.Center(m.cfg.ResolutionCM)
		cell, ok := b.WorldToCell(center.X, center.Y)
		if !ok {
			continue
		}
		explored.Set(cell, true)
		if state == Occupied && center.Z <= m.cfg.ObstacleMaxHeightCM {
			occupiedPerCell[cell]++
		}
	}
	for cell, n := range occupiedPerCell {
		if n >= m.cfg.ObstacleMinVoxels {
			obstacles.Set(cell, true)
		}
	}
	return explored, obstacles, nil
}

// SemanticGrid holds the dominant informative category of each ground cell, or -1.
type SemanticGrid struct {
	Bounds     gridmap.Bounds
	Categories []int32
}

// At returns the category of a cell, or -1 outside the grid.
func (g *SemanticGrid) At(c gridmap.Cell) int32 {
	if !g.Bounds.Contains(c) {
		return -1
	}
	return g.Categories[c.Row*g.Bounds.Cols+c.Col]
}

// SemanticMap projects the semantic histograms of confirmed voxels onto the ground plane, keeping
// the most frequent informative category per column.
func (m *Map) SemanticMap(bounds *gridmap.Bounds) (*SemanticGrid, error) {
	b := m.window
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			return nil, err
		}
		b = *bounds
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := map[gridmap.Cell]*Voxel{}
	for key, v := range m.voxels {
		if m.occupancy(key, v) == Unknown || len(v.Semantic) == 0 {
			continue
		}
		center := key.Center(m.cfg.ResolutionCM)
		cell, ok := b.WorldToCell(center.X, center.Y)
		if !ok {
			continue
		}
		acc, ok := counts[cell]
		if !ok {
			acc = &Voxel{Semantic: map[int32]uint32{}}
			counts[cell] = acc
		}
		for l, n := range v.Semantic {
			acc.Semantic[l] += n
		}
	}

	grid := &SemanticGrid{Bounds: b, Categories: make([]int32, b.Rows*b.Cols)}
	for i := range grid.Categories {
		grid.Categories[i] = -1
	}
	for cell, acc := range counts {
		if l, ok := acc.DominantCategory(m.cfg.informative); ok {
			grid.Categories[cell.Row*b.Cols+cell.Col] = l
		}
	}
	return grid, nil
}
