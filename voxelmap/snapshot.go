package voxelmap

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/pointcloud"
)

// SnapshotVersion is the snapshot layout written by Save.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when loading a snapshot written with an unknown layout.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

type voxelRecord struct {
	Key   pointcloud.VoxelCoords `json:"key"`
	Voxel Voxel                  `json:"voxel"`
}

type instanceRecord struct {
	Instance Instance                 `json:"instance"`
	Voxels   []pointcloud.VoxelCoords `json:"voxels"`
}

type snapshot struct {
	Version   int              `json:"version"`
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Config    Config           `json:"config"`
	NumFrames int64            `json:"num_frames"`
	Dropped   int64            `json:"dropped"`
	Voxels    []voxelRecord    `json:"voxels"`
	Instances []instanceRecord `json:"instances"`
	// Visited is absent from snapshots of maps that never fused a frame.
	Visited []pointcloud.VoxelCoords `json:"visited,omitempty"`
}

// Save writes a compressed snapshot of the map state to w.
func (m *Map) Save(w io.Writer) (err error) {
	m.mu.RLock()
	snap := snapshot{
		Version:   SnapshotVersion,
		ID:        m.id,
		CreatedAt: time.Now().UTC(),
		Config:    m.cfg,
		NumFrames: m.numFrames,
		Dropped:   m.dropped,
		Voxels:    make([]voxelRecord, 0, len(m.voxels)),
		Instances: make([]instanceRecord, 0, len(m.instances)),
		Visited:   sortedKeys(m.visited),
	}
	for _, key := range sortedKeys(m.voxels) {
		snap.Voxels = append(snap.Voxels, voxelRecord{Key: key, Voxel: *m.voxels[key].clone()})
	}
	for _, inst := range m.instances {
		snap.Instances = append(snap.Instances, instanceRecord{Instance: *inst.clone(), Voxels: inst.Voxels()})
	}
	m.mu.RUnlock()

	zw, err := newCompressor(w)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, zw.Close())
	}()
	if err := newEncoder(zw).Encode(&snap); err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	return nil
}

// Load reads a snapshot written by Save and rebuilds the map it describes.
func Load(r io.Reader, logger logging.Logger) (*Map, error) {
	zr, err := newDecompressor(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var snap snapshot
	if err := newDecoder(zr).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "decoding snapshot")
	}
	if snap.Version != SnapshotVersion {
		return nil, errors.Wrapf(ErrSnapshotVersion, "got %d, want %d", snap.Version, SnapshotVersion)
	}

	m, err := New(snap.Config, logger)
	if err != nil {
		return nil, errors.Wrap(err, "snapshot config")
	}
	m.id = snap.ID
	m.numFrames = snap.NumFrames
	m.dropped = snap.Dropped
	for _, rec := range snap.Voxels {
		v := rec.Voxel
		m.voxels[rec.Key] = &v
	}
	for _, k := range snap.Visited {
		m.visited[k] = struct{}{}
	}
	for i, rec := range snap.Instances {
		if rec.Instance.ID != i {
			return nil, errors.Errorf("snapshot instance %d stored at index %d", rec.Instance.ID, i)
		}
		inst := rec.Instance
		inst.resolution = m.cfg.ResolutionCM
		inst.voxels = make(map[pointcloud.VoxelCoords]struct{}, len(rec.Voxels))
		for _, k := range rec.Voxels {
			inst.voxels[k] = struct{}{}
		}
		m.instances = append(m.instances, &inst)
	}
	logger.Debugw("loaded snapshot", "id", m.id, "frames", m.numFrames, "voxels", len(m.voxels),
		"instances", len(m.instances), "created_at", snap.CreatedAt)
	return m, nil
}

// SaveFile writes a snapshot to path, replacing any existing file.
func (m *Map) SaveFile(path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating snapshot %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return m.Save(f)
}

// LoadFile reads a snapshot from path.
func LoadFile(path string, logger logging.Logger) (*Map, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening snapshot %q", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return Load(f, logger)
}

// WritePCD exports the confirmed voxel centers with their dominant category.
func (m *Map) WritePCD(w io.Writer) error {
	points, labels := m.Points()
	return pointcloud.WritePCD(w, points, labels)
}
