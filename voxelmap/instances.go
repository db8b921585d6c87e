package voxelmap

import (
	"slices"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/voxelnav/pointcloud"
)

// Instance is a registry entry for an object: a class, the voxels its clusters covered, and the
// world-frame extent of those voxels. Instances are never removed; merged or invalidated entries
// are marked stale instead.
type Instance struct {
	ID         int       `json:"id"`
	ClassID    int32     `json:"class_id"`
	Min        r3.Vector `json:"min"`
	Max        r3.Vector `json:"max"`
	PointCount int       `json:"point_count"`
	FirstSeen  int64     `json:"first_seen"`
	LastSeen   int64     `json:"last_seen"`
	// LastSeenTime is the timestamp of the frame that last updated the instance.
	LastSeenTime time.Time `json:"last_seen_time"`
	Stale        bool      `json:"stale"`
	// MergedInto is the id of the instance that absorbed this one, or -1.
	MergedInto int `json:"merged_into"`

	voxels     map[pointcloud.VoxelCoords]struct{}
	resolution float64
}

// NumVoxels returns the number of voxels the instance covers.
func (inst *Instance) NumVoxels() int {
	return len(inst.voxels)
}

// Voxels returns the covered voxels in a stable order.
func (inst *Instance) Voxels() []pointcloud.VoxelCoords {
	return sortedKeys(inst.voxels)
}

// Size returns the extent of the instance along each axis.
func (inst *Instance) Size() r3.Vector {
	return inst.Max.Sub(inst.Min)
}

// Center returns the center of the bounding extent.
func (inst *Instance) Center() r3.Vector {
	return inst.Min.Add(inst.Max).Mul(0.5)
}

// Centroid returns the mean of the covered voxel centers.
func (inst *Instance) Centroid() r3.Vector {
	xs, ys, zs := inst.voxelCenters()
	if len(xs) == 0 {
		return inst.Center()
	}
	return r3.Vector{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
}

// Spread returns the standard deviation of the covered voxel centers along each axis.
func (inst *Instance) Spread() r3.Vector {
	xs, ys, zs := inst.voxelCenters()
	if len(xs) < 2 {
		return r3.Vector{}
	}
	return r3.Vector{X: stat.StdDev(xs, nil), Y: stat.StdDev(ys, nil), Z: stat.StdDev(zs, nil)}
}

func (inst *Instance) voxelCenters() (xs, ys, zs []float64) {
	keys := inst.Voxels()
	xs = make([]float64, len(keys))
	ys = make([]float64, len(keys))
	zs = make([]float64, len(keys))
	for i, k := range keys {
		c := k.Center(inst.resolution)
		xs[i], ys[i], zs[i] = c.X, c.Y, c.Z
	}
	return xs, ys, zs
}

func (inst *Instance) clone() *Instance {
	out := *inst
	out.voxels = make(map[pointcloud.VoxelCoords]struct{}, len(inst.voxels))
	for k := range inst.voxels {
		out.voxels[k] = struct{}{}
	}
	return &out
}

func (inst *Instance) overlaps(minPt, maxPt r3.Vector, margin float64) bool {
	return inst.Min.X-margin <= maxPt.X && minPt.X <= inst.Max.X+margin &&
		inst.Min.Y-margin <= maxPt.Y && minPt.Y <= inst.Max.Y+margin &&
		inst.Min.Z-margin <= maxPt.Z && minPt.Z <= inst.Max.Z+margin
}

func (inst *Instance) absorbVoxels(keys []pointcloud.VoxelCoords, minPt, maxPt r3.Vector) {
	for _, k := range keys {
		inst.voxels[k] = struct{}{}
	}
	inst.Min = minVector(inst.Min, minPt)
	inst.Max = maxVector(inst.Max, maxPt)
}

// voxelExtent returns the world-frame box covered by a set of voxels.
func voxelExtent(keys []pointcloud.VoxelCoords, res float64) (r3.Vector, r3.Vector) {
	lower := r3.Vector{X: float64(keys[0].I), Y: float64(keys[0].J), Z: float64(keys[0].K)}
	upper := lower
	for _, k := range keys[1:] {
		p := r3.Vector{X: float64(k.I), Y: float64(k.J), Z: float64(k.K)}
		lower = minVector(lower, p)
		upper = maxVector(upper, p)
	}
	return lower.Mul(res), upper.Add(r3.Vector{X: 1, Y: 1, Z: 1}).Mul(res)
}

func minVector(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: min(a.X, b.X), Y: min(a.Y, b.Y), Z: min(a.Z, b.Z)}
}

func maxVector(a, b r3.Vector) r3.Vector {
	return r3.Vector{X: max(a.X, b.X), Y: max(a.Y, b.Y), Z: max(a.Z, b.Z)}
}

// updateInstances clusters the frame's informative voxels per class and folds every large enough
// cluster into the registry. A voxel joins a class only while at least InstanceMinLabelRatio of
// its observations carried that class. Must be called with the write lock held.
func (m *Map) updateInstances(seen touched, frameIdx int64, frame *pointcloud.Frame) {
	byClass := map[int32][]pointcloud.VoxelCoords{}
	for key, labels := range seen {
		v := m.voxels[key]
		for l := range labels {
			if m.cfg.informative(l) && v.labelShare(l) >= m.cfg.InstanceMinLabelRatio {
				byClass[l] = append(byClass[l], key)
			}
		}
	}
	classes := lo.Keys(byClass)
	slices.Sort(classes)

	for _, class := range classes {
		keys := byClass[class]
		sortVoxelKeys(keys)
		for _, cluster := range pointcloud.ConnectedComponents(keys) {
			if len(cluster) < m.cfg.InstanceMinVoxels {
				continue
			}
			points := 0
			for _, k := range cluster {
				points += seen[k][class]
			}
			m.foldCluster(class, cluster, points, frameIdx, frame.Timestamp)
		}
	}
}

func (m *Map) foldCluster(class int32, cluster []pointcloud.VoxelCoords, points int, frameIdx int64, ts time.Time) {
	minPt, maxPt := voxelExtent(cluster, m.cfg.ResolutionCM)
	matches := lo.Filter(m.instances, func(inst *Instance, _ int) bool {
		return !inst.Stale && inst.ClassID == class && inst.overlaps(minPt, maxPt, m.cfg.InstanceMergeMarginCM)
	})

	if len(matches) == 0 {
		inst := &Instance{
			ID:           len(m.instances),
			ClassID:      class,
			Min:          minPt,
			Max:          maxPt,
			PointCount:   points,
			FirstSeen:    frameIdx,
			LastSeen:     frameIdx,
			LastSeenTime: ts,
			MergedInto:   -1,
			voxels:       map[pointcloud.VoxelCoords]struct{}{},
			resolution:   m.cfg.ResolutionCM,
		}
		inst.absorbVoxels(cluster, minPt, maxPt)
		m.instances = append(m.instances, inst)
		m.logger.Debugw("new instance", "id", inst.ID, "class", class, "voxels", len(cluster))
		return
	}

	// matches are in registry order, so the first one is the oldest
	target := matches[0]
	target.absorbVoxels(cluster, minPt, maxPt)
	target.PointCount += points
	target.LastSeen = frameIdx
	target.LastSeenTime = ts
	for _, other := range matches[1:] {
		target.absorbVoxels(other.Voxels(), other.Min, other.Max)
		target.PointCount += other.PointCount
		target.FirstSeen = min(target.FirstSeen, other.FirstSeen)
		other.Stale = true
		other.MergedInto = target.ID
		m.logger.Debugw("merged instance", "from", other.ID, "into", target.ID, "class", class)
	}
}

// Instances returns copies of the live (non-stale) instances, optionally restricted to classes.
func (m *Map) Instances(classFilter ...int32) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		if inst.Stale {
			continue
		}
		if len(classFilter) != 0 && !lo.Contains(classFilter, inst.ClassID) {
			continue
		}
		out = append(out, inst.clone())
	}
	return out
}

// AllInstances returns copies of every registry entry including stale ones, indexed by id.
func (m *Map) AllInstances() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return lo.Map(m.instances, func(inst *Instance, _ int) *Instance { return inst.clone() })
}

// Instance returns a copy of the registry entry with the given id.
func (m *Map) Instance(id int) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id < 0 || id >= len(m.instances) {
		return nil, false
	}
	return m.instances[id].clone(), true
}

// MarkStale flags an instance so it is no longer reported or merged into.
func (m *Map) MarkStale(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.instances) {
		return errors.Errorf("no instance with id %d", id)
	}
	m.instances[id].Stale = true
	return nil
}
