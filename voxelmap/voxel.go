package voxelmap

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"go.viam.com/voxelnav/pointcloud"
)

// Occupancy is the confidence state of a voxel.
type Occupancy int

const (
	// Unknown voxels have not been observed often enough.
	Unknown Occupancy = iota
	// Free voxels are confirmed floor.
	Free
	// Occupied voxels are confirmed surfaces above the floor band.
	Occupied
)

func (o Occupancy) String() string {
	switch o {
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Voxel accumulates observations of one grid cell. Counts only grow.
type Voxel struct {
	// Hits counts the frames that observed the voxel.
	Hits uint32 `json:"hits"`
	// Semantic counts, per category, the frames that labeled the voxel with it.
	Semantic  map[int32]uint32 `json:"semantic,omitempty"`
	LastSeen  time.Time        `json:"last_seen"`
	LastFrame int64            `json:"last_frame"`
}

// DominantCategory returns the most frequent informative category, breaking ties toward the
// smaller id, and false when none was observed.
func (v *Voxel) DominantCategory(informative func(int32) bool) (int32, bool) {
	labels := lo.Filter(lo.Keys(v.Semantic), func(l int32, _ int) bool { return informative(l) })
	if len(labels) == 0 {
		return 0, false
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	best := labels[0]
	for _, l := range labels[1:] {
		if v.Semantic[l] > v.Semantic[best] {
			best = l
		}
	}
	return best, true
}

// labelShare returns the fraction of the voxel's observations that carried label.
func (v *Voxel) labelShare(label int32) float64 {
	if v.Hits == 0 {
		return 0
	}
	return float64(v.Semantic[label]) / float64(v.Hits)
}

func (v *Voxel) clone() *Voxel {
	out := *v
	if v.Semantic != nil {
		out.Semantic = make(map[int32]uint32, len(v.Semantic))
		for k, c := range v.Semantic {
			out.Semantic[k] = c
		}
	}
	return &out
}

// Occupancy classifies a voxel by its hit count and the height of its center.
func (m *Map) occupancy(key pointcloud.VoxelCoords, v *Voxel) Occupancy {
	if v == nil || int(v.Hits) < m.cfg.MinConfidence {
		return Unknown
	}
	if key.Center(m.cfg.ResolutionCM).Z < m.cfg.FloorBandCM {
		return Free
	}
	return Occupied
}

func sortedKeys[T any](set map[pointcloud.VoxelCoords]T) []pointcloud.VoxelCoords {
	keys := lo.Keys(set)
	sortVoxelKeys(keys)
	return keys
}

func sortVoxelKeys(keys []pointcloud.VoxelCoords) {
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.I != b.I {
			return a.I < b.I
		}
		if a.J != b.J {
			return a.J < b.J
		}
		return a.K < b.K
	})
}
