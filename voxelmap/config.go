package voxelmap

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxelnav/gridmap"
)

// Config holds the voxel grid geometry and the fusion thresholds.
type Config struct {
	// ResolutionCM is the voxel edge length, also used for the 2D projection cells.
	ResolutionCM float64 `json:"resolution_cm"`
	// MapSizeCM is the side of the square 2D window centered on (OriginX, OriginY).
	MapSizeCM float64 `json:"map_size_cm"`
	OriginX   float64 `json:"origin_x"`
	OriginY   float64 `json:"origin_y"`
	// MaxRangeCM drops points farther than this on the ground plane from the robot.
	MaxRangeCM float64 `json:"max_range_cm"`
	// FloorClipCM drops points below this height.
	FloorClipCM float64 `json:"floor_clip_cm"`
	// FloorBandCM is the height below which a confirmed voxel counts as free floor.
	FloorBandCM float64 `json:"floor_band_cm"`
	// ObstacleMaxHeightCM ignores occupied voxels above this height when projecting obstacles.
	ObstacleMaxHeightCM float64 `json:"obstacle_max_height_cm"`
	// MinConfidence is the number of frames that must observe a voxel before it counts.
	MinConfidence int `json:"min_confidence"`
	// ObstacleMinVoxels is the number of confirmed occupied voxels a column needs to be an obstacle.
	ObstacleMinVoxels int `json:"obstacle_min_voxels"`
	// InstanceMinVoxels is the smallest same-class cluster that becomes or updates an instance.
	InstanceMinVoxels int `json:"instance_min_voxels"`
	// InstanceMergeMarginCM grows instance bounds before testing overlap with a new cluster.
	InstanceMergeMarginCM float64 `json:"instance_merge_margin_cm"`
	// InstanceMinLabelRatio is the share of a voxel's observations that must carry a class before
	// the voxel joins clusters of that class.
	InstanceMinLabelRatio float64 `json:"instance_min_label_ratio"`
	// VisitedRadiusCM is the radius of the footprint marked explored around every fused pose.
	VisitedRadiusCM float64 `json:"visited_radius_cm"`
	// OtherID is the non-informative category; negative labels are always non-informative.
	OtherID int32 `json:"other_id"`
	// Dataset and Vocabulary name the label mapping the map was built with, when known.
	Dataset    string `json:"dataset,omitempty"`
	Vocabulary string `json:"vocabulary,omitempty"`
}

// DefaultConfig returns a 5 cm grid over a 24 m window.
func DefaultConfig() Config {
	return Config{
		ResolutionCM:          5,
		MapSizeCM:             2400,
		MaxRangeCM:            500,
		FloorClipCM:           -10,
		FloorBandCM:           10,
		ObstacleMaxHeightCM:   150,
		MinConfidence:         1,
		ObstacleMinVoxels:     1,
		InstanceMinVoxels:     3,
		InstanceMergeMarginCM: 10,
		InstanceMinLabelRatio: 0.5,
		VisitedRadiusCM:       25,
		OtherID:               -1,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg Config) Validate() error {
	var errs error
	if cfg.ResolutionCM <= 0 {
		errs = multierr.Append(errs, errors.Errorf("resolution_cm must be positive, got %v", cfg.ResolutionCM))
	}
	if cfg.MapSizeCM < cfg.ResolutionCM {
		errs = multierr.Append(errs, errors.Errorf("map_size_cm %v smaller than resolution %v", cfg.MapSizeCM, cfg.ResolutionCM))
	}
	if cfg.MaxRangeCM <= 0 {
		errs = multierr.Append(errs, errors.Errorf("max_range_cm must be positive, got %v", cfg.MaxRangeCM))
	}
	if cfg.FloorBandCM < cfg.FloorClipCM {
		errs = multierr.Append(errs, errors.Errorf("floor_band_cm %v below floor_clip_cm %v", cfg.FloorBandCM, cfg.FloorClipCM))
	}
	if cfg.ObstacleMaxHeightCM <= cfg.FloorBandCM {
		errs = multierr.Append(errs, errors.Errorf("obstacle_max_height_cm %v must exceed floor_band_cm %v",
			cfg.ObstacleMaxHeightCM, cfg.FloorBandCM))
	}
	if cfg.MinConfidence < 1 {
		errs = multierr.Append(errs, errors.Errorf("min_confidence must be at least 1, got %d", cfg.MinConfidence))
	}
	if cfg.ObstacleMinVoxels < 1 {
		errs = multierr.Append(errs, errors.Errorf("obstacle_min_voxels must be at least 1, got %d", cfg.ObstacleMinVoxels))
	}
	if cfg.InstanceMinVoxels < 1 {
		errs = multierr.Append(errs, errors.Errorf("instance_min_voxels must be at least 1, got %d", cfg.InstanceMinVoxels))
	}
	if cfg.InstanceMergeMarginCM < 0 {
		errs = multierr.Append(errs, errors.Errorf("instance_merge_margin_cm must not be negative, got %v", cfg.InstanceMergeMarginCM))
	}
	if cfg.InstanceMinLabelRatio < 0 || cfg.InstanceMinLabelRatio > 1 {
		errs = multierr.Append(errs, errors.Errorf("instance_min_label_ratio must be within [0, 1], got %v", cfg.InstanceMinLabelRatio))
	}
	if cfg.VisitedRadiusCM < 0 {
		errs = multierr.Append(errs, errors.Errorf("visited_radius_cm must not be negative, got %v", cfg.VisitedRadiusCM))
	}
	return errs
}

// Window returns the configured 2D projection window.
func (cfg Config) Window() (gridmap.Bounds, error) {
	return gridmap.NewSquareBounds(cfg.OriginX, cfg.OriginY, cfg.MapSizeCM, cfg.ResolutionCM)
}

func (cfg Config) informative(label int32) bool {
	return label >= 0 && label != cfg.OtherID
}
