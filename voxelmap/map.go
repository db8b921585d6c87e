// Package voxelmap implements the incremental sparse voxel map: posed point clouds are fused into
// per-voxel hit counts and semantic histograms, same-class clusters are tracked as object
// instances, and explored/obstacle masks are projected onto the ground plane on demand.
//
// A Map is owned by one episode. Its methods are safe for concurrent use, but the intended pattern
// is a single writer per step with readers in between.
package voxelmap

import (
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/pointcloud"
)

// ErrMalformedObservation is returned for frames dropped before fusion. The map is left untouched.
var ErrMalformedObservation = errors.New("malformed observation")

// Map is a sparse voxel occupancy and semantic map.
type Map struct {
	mu     sync.RWMutex
	id     uuid.UUID
	cfg    Config
	window gridmap.Bounds
	logger logging.Logger

	voxels    map[pointcloud.VoxelCoords]*Voxel
	visited   map[pointcloud.VoxelCoords]struct{}
	instances []*Instance
	numFrames int64
	dropped   int64
}

// New returns an empty map.
func New(cfg Config, logger logging.Logger) (*Map, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid voxel map config")
	}
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	return &Map{
		id:      uuid.New(),
		cfg:     cfg,
		window:  window,
		logger:  logger,
		voxels:  map[pointcloud.VoxelCoords]*Voxel{},
		visited: map[pointcloud.VoxelCoords]struct{}{},
	}, nil
}

// ID identifies the map. It survives a snapshot round trip and changes on Reset.
func (m *Map) ID() uuid.UUID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.id
}

// Config returns the map configuration.
func (m *Map) Config() Config {
	return m.cfg
}

// Window returns the default 2D projection window.
func (m *Map) Window() gridmap.Bounds {
	return m.window
}

// Reset discards every voxel, visited cell, and instance.
func (m *Map) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = uuid.New()
	m.voxels = map[pointcloud.VoxelCoords]*Voxel{}
	m.visited = map[pointcloud.VoxelCoords]struct{}{}
	m.instances = nil
	m.numFrames = 0
	m.dropped = 0
}

// NumFrames returns the number of frames fused so far.
func (m *Map) NumFrames() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.numFrames
}

// NumDropped returns the number of frames rejected as malformed.
func (m *Map) NumDropped() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dropped
}

// NumVoxels returns the number of voxels observed at least once.
func (m *Map) NumVoxels() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.voxels)
}

// NumVisited returns the number of ground cells covered by the robot footprint so far.
func (m *Map) NumVisited() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visited)
}

// Voxel returns a copy of the voxel at key.
func (m *Map) Voxel(key pointcloud.VoxelCoords) (Voxel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.voxels[key]
	if !ok {
		return Voxel{}, false
	}
	return *v.clone(), true
}

// Occupancy returns the state of the voxel at key.
func (m *Map) Occupancy(key pointcloud.VoxelCoords) Occupancy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occupancy(key, m.voxels[key])
}

// touched collects, for one frame, the number of points per label observed in each voxel.
type touched map[pointcloud.VoxelCoords]map[int32]int

// AddObservation fuses one posed frame. Points are moved to the world frame with the frame pose;
// points beyond MaxRangeCM on the ground plane or below FloorClipCM are discarded. Each voxel and
// each (voxel, label) pair gains at most one count per frame, so repeating points inside a frame
// changes nothing. The ground cells within VisitedRadiusCM of the pose are recorded as visited.
// Malformed frames are dropped with a warning and ErrMalformedObservation.
func (m *Map) AddObservation(frame *pointcloud.Frame) error {
	if err := frame.Validate(); err != nil {
		m.mu.Lock()
		m.dropped++
		m.mu.Unlock()
		m.logger.Warnw("dropping malformed frame", "reason", err.Error())
		return errors.Wrap(ErrMalformedObservation, err.Error())
	}

	origin := frame.Pose.Point()
	seen := touched{}
	for i, p := range frame.WorldPoints() {
		if p.Z < m.cfg.FloorClipCM {
			continue
		}
		if math.Hypot(p.X-origin.X, p.Y-origin.Y) > m.cfg.MaxRangeCM {
			continue
		}
		key := pointcloud.GetVoxelCoordinates(p, m.cfg.ResolutionCM)
		labels, ok := seen[key]
		if !ok {
			labels = map[int32]int{}
			seen[key] = labels
		}
		if l := frame.Label(i); l != pointcloud.NoLabel {
			labels[l]++
		}
	}

	ground := m.footprint(origin)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.numFrames++
	for _, key := range ground {
		m.visited[key] = struct{}{}
	}
	frameIdx := m.numFrames
	for key, labels := range seen {
		v, ok := m.voxels[key]
		if !ok {
			v = &Voxel{}
			m.voxels[key] = v
		}
		v.Hits++
		v.LastSeen = frame.Timestamp
		v.LastFrame = frameIdx
		for l := range labels {
			if v.Semantic == nil {
				v.Semantic = map[int32]uint32{}
			}
			v.Semantic[l]++
		}
	}
	m.updateInstances(seen, frameIdx, frame)
	m.logger.Debugw("fused frame", "frame", frameIdx, "points", len(frame.Points), "voxels", len(seen))
	return nil
}

// footprint returns the ground cells whose centers lie within VisitedRadiusCM of p, always
// including the cell under p.
func (m *Map) footprint(p r3.Vector) []pointcloud.VoxelCoords {
	res := m.cfg.ResolutionCM
	r := m.cfg.VisitedRadiusCM
	center := pointcloud.GetVoxelCoordinates(r3.Vector{X: p.X, Y: p.Y}, res)
	center.K = 0
	cells := []pointcloud.VoxelCoords{center}
	minI, maxI := int64(math.Floor((p.X-r)/res)), int64(math.Floor((p.X+r)/res))
	minJ, maxJ := int64(math.Floor((p.Y-r)/res)), int64(math.Floor((p.Y+r)/res))
	for i := minI; i <= maxI; i++ {
		for j := minJ; j <= maxJ; j++ {
			key := pointcloud.VoxelCoords{I: i, J: j}
			if key == center {
				continue
			}
			c := key.Center(res)
			if math.Hypot(c.X-p.X, c.Y-p.Y) <= r {
				cells = append(cells, key)
			}
		}
	}
	return cells
}

// Points returns the centers of the confirmed voxels with their dominant informative category, or
// pointcloud.NoLabel, in a stable order.
func (m *Map) Points() ([]r3.Vector, []int32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var points []r3.Vector
	var labels []int32
	for _, key := range sortedKeys(m.voxels) {
		v := m.voxels[key]
		if m.occupancy(key, v) == Unknown {
			continue
		}
		points = append(points, key.Center(m.cfg.ResolutionCM))
		label := pointcloud.NoLabel
		if l, ok := v.DominantCategory(m.cfg.informative); ok {
			label = l
		}
		labels = append(labels, label)
	}
	return points, labels
}
