// Package odometry converts raw GPS and compass readings into map-frame poses and per-step pose
// deltas. It is a stateless frame transform: it does no filtering and accumulates nothing beyond
// the last pose a Tracker remembers for its caller.
package odometry

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/voxelnav/spatialmath"
)

// ErrNonFiniteReading is returned when a GPS or compass value is NaN or infinite.
var ErrNonFiniteReading = errors.New("non-finite gps/compass reading")

// Config controls the conversion from sensor coordinates to the map frame.
type Config struct {
	// GPSScale converts GPS units to centimeters (100 for meters).
	GPSScale float64 `json:"gps_scale"`
	// FlipY negates the GPS y axis; simulator GPS points y to the right of the start heading.
	FlipY bool `json:"flip_y"`
}

// DefaultConfig matches a simulator reporting meters with y to the right.
func DefaultConfig() Config {
	return Config{GPSScale: 100, FlipY: true}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	if cfg.GPSScale <= 0 || math.IsInf(cfg.GPSScale, 0) || math.IsNaN(cfg.GPSScale) {
		return errors.Errorf("gps_scale must be positive and finite, got %v", cfg.GPSScale)
	}
	return nil
}

// PoseDelta is the displacement between two consecutive poses, expressed in the frame of the
// earlier one: DX along its heading, DY to its left.
type PoseDelta struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	DTheta float64 `json:"dtheta"`
}

func (d PoseDelta) String() string {
	return fmt.Sprintf("(dx=%.2f, dy=%.2f, dθ=%.4f)", d.DX, d.DY, d.DTheta)
}

// RowCol returns the delta ordered to match the map's (row, column, heading) convention.
func (d PoseDelta) RowCol() (float64, float64, float64) {
	return d.DY, d.DX, d.DTheta
}

// IsZero reports whether the delta is exactly zero.
func (d PoseDelta) IsZero() bool {
	return d == PoseDelta{}
}

// Integrator converts readings into poses. It holds only configuration.
type Integrator struct {
	cfg Config
}

// NewIntegrator returns an integrator for the given configuration.
func NewIntegrator(cfg Config) (*Integrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Integrator{cfg: cfg}, nil
}

// ToPose converts a single GPS/compass reading into a map-frame pose.
func (in *Integrator) ToPose(gps [2]float64, compass float64) (spatialmath.Pose2D, error) {
	for _, v := range []float64{gps[0], gps[1], compass} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return spatialmath.Pose2D{}, errors.Wrapf(ErrNonFiniteReading, "gps=%v compass=%v", gps, compass)
		}
	}
	y := gps[1] * in.cfg.GPSScale
	if in.cfg.FlipY {
		y = -y
	}
	return spatialmath.NewPose2D(gps[0]*in.cfg.GPSScale, y, compass), nil
}

// Update converts the reading to a pose and computes the delta from previous. A nil previous marks
// the first step of an episode: the delta is zero and the current pose is returned as-is.
func (in *Integrator) Update(gps [2]float64, compass float64, previous *spatialmath.Pose2D) (PoseDelta, spatialmath.Pose2D, error) {
	current, err := in.ToPose(gps, compass)
	if err != nil {
		return PoseDelta{}, spatialmath.Pose2D{}, err
	}
	if previous == nil {
		return PoseDelta{}, current, nil
	}
	dx, dy, dtheta := spatialmath.RelativePoseChange(*previous, current)
	return PoseDelta{DX: dx, DY: dy, DTheta: dtheta}, current, nil
}

// Tracker remembers the last pose of one environment so callers can feed readings step by step.
type Tracker struct {
	integrator *Integrator
	last       *spatialmath.Pose2D
	start      *spatialmath.Pose2D
}

// NewTracker returns a tracker with no pose history.
func NewTracker(integrator *Integrator) *Tracker {
	return &Tracker{integrator: integrator}
}

// Reset forgets the pose history at the start of an episode.
func (t *Tracker) Reset() {
	t.last = nil
	t.start = nil
}

// Step integrates one reading. Non-finite readings leave the history untouched.
func (t *Tracker) Step(gps [2]float64, compass float64) (PoseDelta, spatialmath.Pose2D, error) {
	delta, pose, err := t.integrator.Update(gps, compass, t.last)
	if err != nil {
		return PoseDelta{}, spatialmath.Pose2D{}, err
	}
	t.last = &pose
	if t.start == nil {
		start := pose
		t.start = &start
	}
	return delta, pose, nil
}

// Last returns the most recent pose and whether one exists.
func (t *Tracker) Last() (spatialmath.Pose2D, bool) {
	if t.last == nil {
		return spatialmath.Pose2D{}, false
	}
	return *t.last, true
}

// Start returns the first pose of the episode and whether one exists.
func (t *Tracker) Start() (spatialmath.Pose2D, bool) {
	if t.start == nil {
		return spatialmath.Pose2D{}, false
	}
	return *t.start, true
}
