package navspace

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxelnav/gridmap"
)

// DistanceMetric selects how frontier candidates are ranked.
type DistanceMetric string

const (
	// Euclidean ranks by straight-line distance on the ground plane.
	Euclidean DistanceMetric = "euclidean"
	// Geodesic ranks by shortest traversable path length and omits unreachable cells.
	Geodesic DistanceMetric = "geodesic"
)

// Config parameterizes frontier extraction and sampling.
type Config struct {
	// RobotRadiusCM is the safety margin grown around obstacles.
	RobotRadiusCM float64 `json:"robot_radius_cm"`
	// Connectivity is 4 or 8, the neighborhood used to test frontier adjacency.
	Connectivity int            `json:"connectivity"`
	Distance     DistanceMetric `json:"distance"`
	// MinFrontierSpacingCM drops candidates closer than this to one already yielded.
	MinFrontierSpacingCM float64 `json:"min_frontier_spacing_cm"`
	// Bounds overrides the voxel map window when set.
	Bounds *gridmap.Bounds `json:"bounds,omitempty"`
}

// DefaultConfig returns an 8-connected geodesic sampler with a 20 cm safety margin.
func DefaultConfig() Config {
	return Config{
		RobotRadiusCM:        20,
		Connectivity:         8,
		Distance:             Geodesic,
		MinFrontierSpacingCM: 25,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	var errs error
	if cfg.RobotRadiusCM < 0 {
		errs = multierr.Append(errs, errors.Errorf("robot_radius_cm must not be negative, got %v", cfg.RobotRadiusCM))
	}
	if _, err := gridmap.ConnectivityFromInt(cfg.Connectivity); err != nil {
		errs = multierr.Append(errs, err)
	}
	switch cfg.Distance {
	case Euclidean, Geodesic:
	default:
		errs = multierr.Append(errs, errors.Errorf("unknown distance metric %q", cfg.Distance))
	}
	if cfg.MinFrontierSpacingCM < 0 {
		errs = multierr.Append(errs, errors.Errorf("min_frontier_spacing_cm must not be negative, got %v", cfg.MinFrontierSpacingCM))
	}
	if cfg.Bounds != nil {
		errs = multierr.Append(errs, cfg.Bounds.Validate())
	}
	return errs
}
