package pointcloud

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// VoxelCoords stores voxel coordinates on a regular grid anchored at the world origin.
type VoxelCoords struct {
	I, J, K int64
}

func (c VoxelCoords) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.I, c.J, c.K)
}

// IsEqual tests if two VoxelCoords are the same.
func (c VoxelCoords) IsEqual(c2 VoxelCoords) bool {
	return c.I == c2.I && c.J == c2.J && c.K == c2.K
}

// GetVoxelCoordinates computes the voxel holding a point for the given voxel size.
func GetVoxelCoordinates(pt r3.Vector, voxelSize float64) VoxelCoords {
	return VoxelCoords{
		I: int64(math.Floor(pt.X / voxelSize)),
		J: int64(math.Floor(pt.Y / voxelSize)),
		K: int64(math.Floor(pt.Z / voxelSize)),
	}
}

// Center returns the world coordinates of the voxel center.
func (c VoxelCoords) Center(voxelSize float64) r3.Vector {
	return r3.Vector{
		X: (float64(c.I) + 0.5) * voxelSize,
		Y: (float64(c.J) + 0.5) * voxelSize,
		Z: (float64(c.K) + 0.5) * voxelSize,
	}
}

// Neighbors returns the 26-connected neighborhood of the voxel, excluding itself.
func (c VoxelCoords) Neighbors() []VoxelCoords {
	out := make([]VoxelCoords, 0, 26)
	for i := c.I - 1; i <= c.I+1; i++ {
		for j := c.J - 1; j <= c.J+1; j++ {
			for k := c.K - 1; k <= c.K+1; k++ {
				vox := VoxelCoords{i, j, k}
				if !c.IsEqual(vox) {
					out = append(out, vox)
				}
			}
		}
	}
	return out
}

// GetAdjacentVoxels returns the 26-connected neighbors of the voxel that are present in the set.
func GetAdjacentVoxels[T any](set map[VoxelCoords]T, c VoxelCoords) []VoxelCoords {
	var out []VoxelCoords
	for _, vox := range c.Neighbors() {
		if _, ok := set[vox]; ok {
			out = append(out, vox)
		}
	}
	return out
}

// ConnectedComponents splits a voxel set into 26-connected components. Components are returned in
// the order their first voxel appears in keys, so callers can make the result deterministic.
func ConnectedComponents(keys []VoxelCoords) [][]VoxelCoords {
	set := make(map[VoxelCoords]bool, len(keys))
	for _, k := range keys {
		set[k] = false
	}
	var out [][]VoxelCoords
	for _, seed := range keys {
		if set[seed] {
			continue
		}
		set[seed] = true
		component := []VoxelCoords{seed}
		for queue := []VoxelCoords{seed}; len(queue) > 0; {
			cur := queue[0]
			queue = queue[1:]
			for _, n := range GetAdjacentVoxels(set, cur) {
				if !set[n] {
					set[n] = true
					component = append(component, n)
					queue = append(queue, n)
				}
			}
		}
		out = append(out, component)
	}
	return out
}
