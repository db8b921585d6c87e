// Package config defines the run parameters: one YAML document with a section per component,
// command line overrides on top, and conversions into each component's own configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/odometry"
	"go.viam.com/voxelnav/rimage"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/voxelmap"
)

// ErrUnsupportedConfiguration is returned by Validate for settings no component can honor.
var ErrUnsupportedConfiguration = errors.New("unsupported configuration")

// EnvironmentConfig describes the sensor stream.
type EnvironmentConfig struct {
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`
	// MinDepthM and MaxDepthM map normalized depth 0 and 1 to meters.
	MinDepthM      float64 `json:"min_depth"`
	MaxDepthM      float64 `json:"max_depth"`
	HFOVDeg        float64 `json:"hfov"`
	CameraHeightCM float64 `json:"camera_height_cm"`
	// CameraTiltDeg is positive when the camera looks down.
	CameraTiltDeg float64 `json:"camera_tilt_deg"`
	GPSScale      float64 `json:"gps_scale"`
	FlipY         bool    `json:"flip_y"`
	// PointStride subsamples depth pixels when building point clouds.
	PointStride int `json:"point_stride"`
}

// SemanticConfig selects the category vocabulary.
type SemanticConfig struct {
	Dataset     string `json:"dataset"`
	Vocabulary  string `json:"vocabulary"`
	GroundTruth bool   `json:"ground_truth_semantics"`
}

// PlannerConfig configures path planning and the frontier retry loop.
type PlannerConfig struct {
	TryToPlanIter int  `json:"try_to_plan_iter"`
	MaxExpansions int  `json:"max_expansions"`
	Smooth        bool `json:"smooth"`
}

// AgentConfig configures the exploration loop.
type AgentConfig struct {
	ExploreIter int  `json:"explore_iter"`
	GoHomeAtEnd bool `json:"go_home_at_end"`
	// RateHz limits loop iterations per second; zero runs unthrottled.
	RateHz float64 `json:"rate_hz"`
	// SnapshotPath, when set, receives the voxel map at the end of each episode.
	SnapshotPath string `json:"snapshot_path"`
	// LogPath, when set, records every fused frame for later replay.
	LogPath string `json:"log_path"`
}

// TaskConfig names the pick and place goals of an episode.
type TaskConfig struct {
	ObjectToFind    string `json:"object_to_find"`
	LocationToPlace string `json:"location_to_place"`
}

// Parameters holds every section of a run configuration.
type Parameters struct {
	Environment EnvironmentConfig `json:"environment"`
	Semantic    SemanticConfig    `json:"semantic"`
	VoxelMap    voxelmap.Config   `json:"voxel_map"`
	Navigation  navspace.Config   `json:"navigation"`
	Planner     PlannerConfig     `json:"planner"`
	Agent       AgentConfig       `json:"agent"`
	Task        TaskConfig        `json:"task"`
}

// Default returns parameters for a 640x480 head camera on an HM3D episode.
func Default() *Parameters {
	return &Parameters{
		Environment: EnvironmentConfig{
			FrameWidth:     640,
			FrameHeight:    480,
			MinDepthM:      0.5,
			MaxDepthM:      5.0,
			HFOVDeg:        79,
			CameraHeightCM: 88,
			CameraTiltDeg:  30,
			GPSScale:       100,
			FlipY:          true,
			PointStride:    4,
		},
		Semantic: SemanticConfig{
			Dataset:    string(semantic.HM3D),
			Vocabulary: string(semantic.CocoIndoor),
		},
		VoxelMap:   voxelmap.DefaultConfig(),
		Navigation: navspace.DefaultConfig(),
		Planner: PlannerConfig{
			TryToPlanIter: 10,
			MaxExpansions: motionplan.DefaultAStarConfig().MaxExpansions,
			Smooth:        true,
		},
		Agent: AgentConfig{ExploreIter: 20},
	}
}

// Validate ensures all parts of the config are valid. Every problem is reported.
func (p *Parameters) Validate() error {
	var errs error
	if _, err := p.Mapping(); err != nil {
		errs = multierr.Append(errs, err)
	}
	errs = multierr.Append(errs, wrapSection("environment", p.PreprocessorConfig().Validate()))
	errs = multierr.Append(errs, wrapSection("environment", p.OdometryConfig().Validate()))
	if _, err := p.Intrinsics(); err != nil {
		errs = multierr.Append(errs, wrapSection("environment", err))
	}
	if p.Environment.CameraHeightCM <= 0 {
		errs = multierr.Append(errs, errors.Errorf("environment: camera_height_cm must be positive, got %v", p.Environment.CameraHeightCM))
	}
	errs = multierr.Append(errs, wrapSection("voxel_map", p.VoxelMap.Validate()))
	errs = multierr.Append(errs, wrapSection("navigation", p.Navigation.Validate()))
	if p.Planner.TryToPlanIter < 1 {
		errs = multierr.Append(errs, errors.Errorf("planner: try_to_plan_iter must be positive, got %d", p.Planner.TryToPlanIter))
	}
	if p.Planner.MaxExpansions < 0 {
		errs = multierr.Append(errs, errors.Errorf("planner: max_expansions must not be negative, got %d", p.Planner.MaxExpansions))
	}
	if p.Agent.ExploreIter < 0 {
		errs = multierr.Append(errs, errors.Errorf("agent: explore_iter must not be negative, got %d", p.Agent.ExploreIter))
	}
	if p.Agent.RateHz < 0 {
		errs = multierr.Append(errs, errors.Errorf("agent: rate_hz must not be negative, got %v", p.Agent.RateHz))
	}
	return errs
}

func wrapSection(section string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, section)
}

// Mapping builds the category mapping of the semantic section.
func (p *Parameters) Mapping() (*semantic.Mapping, error) {
	dataset, err := semantic.ParseDataset(p.Semantic.Dataset)
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedConfiguration, err.Error())
	}
	vocab, err := semantic.ParseVocabulary(p.Semantic.Vocabulary)
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedConfiguration, err.Error())
	}
	m, err := semantic.NewMapping(dataset, vocab)
	if err != nil {
		return nil, errors.Wrap(ErrUnsupportedConfiguration, err.Error())
	}
	return m, nil
}

// PreprocessorConfig returns the frame preprocessor settings.
func (p *Parameters) PreprocessorConfig() rimage.Config {
	return rimage.Config{
		FrameWidth:           p.Environment.FrameWidth,
		FrameHeight:          p.Environment.FrameHeight,
		MinDepthM:            p.Environment.MinDepthM,
		MaxDepthM:            p.Environment.MaxDepthM,
		GroundTruthSemantics: p.Semantic.GroundTruth,
	}
}

// OdometryConfig returns the pose integrator settings.
func (p *Parameters) OdometryConfig() odometry.Config {
	return odometry.Config{GPSScale: p.Environment.GPSScale, FlipY: p.Environment.FlipY}
}

// Intrinsics returns the camera model at the preprocessed frame size.
func (p *Parameters) Intrinsics() (*spatialmath.PinholeCameraIntrinsics, error) {
	return spatialmath.NewIntrinsicsFromHFOV(p.Environment.FrameWidth, p.Environment.FrameHeight, p.Environment.HFOVDeg)
}

// Extrinsics returns the camera mounting.
func (p *Parameters) Extrinsics() *spatialmath.CameraExtrinsics {
	return spatialmath.NewCameraExtrinsics(p.Environment.CameraHeightCM, spatialmath.DegToRad(p.Environment.CameraTiltDeg))
}

// VoxelMapConfig returns the voxel map settings tagged with the mapping and its non-informative
// category, so a saved map can be read back with the labels it was built with.
func (p *Parameters) VoxelMapConfig(mapping *semantic.Mapping) voxelmap.Config {
	cfg := p.VoxelMap
	if mapping != nil {
		cfg.OtherID = int32(mapping.OtherID())
		cfg.Dataset = string(mapping.Dataset())
		cfg.Vocabulary = string(mapping.Vocabulary())
	}
	return cfg
}

// NavigationConfig returns the navigation space settings.
func (p *Parameters) NavigationConfig() navspace.Config {
	return p.Navigation
}

// AStarConfig returns the grid planner settings.
func (p *Parameters) AStarConfig() motionplan.AStarConfig {
	return motionplan.AStarConfig{MaxExpansions: p.Planner.MaxExpansions, Smooth: p.Planner.Smooth}
}

// TaskGoals returns the object to find and the location to place it. Empty strings mean not set.
func (p *Parameters) TaskGoals() (objectToFind, locationToPlace string) {
	return strings.TrimSpace(p.Task.ObjectToFind), strings.TrimSpace(p.Task.LocationToPlace)
}

func (p *Parameters) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "environment: %+v\n", p.Environment)
	fmt.Fprintf(&sb, "semantic: %+v\n", p.Semantic)
	fmt.Fprintf(&sb, "voxel_map: %+v\n", p.VoxelMap)
	fmt.Fprintf(&sb, "navigation: %+v\n", p.Navigation)
	fmt.Fprintf(&sb, "planner: %+v\n", p.Planner)
	fmt.Fprintf(&sb, "agent: %+v\n", p.Agent)
	fmt.Fprintf(&sb, "task: %+v", p.Task)
	return sb.String()
}
