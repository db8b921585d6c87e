// Package agent runs one exploration episode at a time: it pulls observations from a robot,
// fuses them into a voxel map, plans to frontiers, and hands waypoints back to the robot until
// the goal category is found or there is nothing left to explore.
//
// An Agent owns its map, pose history, and category lookup. It is not safe for concurrent use;
// run several environments with one Agent each (see RunBatch).
package agent

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/voxelnav/config"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/odometry"
	"go.viam.com/voxelnav/pointcloud"
	"go.viam.com/voxelnav/rimage"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/utils"
	"go.viam.com/voxelnav/voxelmap"
)

// ErrUnknownGoal is returned for goal names the configured vocabulary does not contain.
var ErrUnknownGoal = errors.New("unknown goal category")

// Agent ties the perception, mapping, and planning components of one environment together.
type Agent struct {
	params *config.Parameters
	robot  RobotClient
	// logger is baseLogger tagged with the current episode.
	logger     logging.Logger
	baseLogger logging.Logger

	mapping      *semantic.Mapping
	preprocessor *rimage.Preprocessor
	tracker      *odometry.Tracker
	intrinsics   *spatialmath.PinholeCameraIntrinsics
	extrinsics   *spatialmath.CameraExtrinsics
	voxelMap     *voxelmap.Map
	space        *navspace.Space
	planner      motionplan.Planner

	episode  uuid.UUID
	recorder *voxelmap.LogWriter
	goalID   int
	goalName string
	dropped  int
	// moved is set once the robot navigates and cleared by the next fused frame.
	moved bool
}

// New builds an agent from validated parameters. The category mapping is created per agent, so
// agents never share episode state.
func New(params *config.Parameters, robot RobotClient, logger logging.Logger, opts ...Option) (*Agent, error) {
	if robot == nil {
		return nil, errors.New("robot client is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt.apply(&o)
	}

	mapping, err := params.Mapping()
	if err != nil {
		return nil, err
	}
	preprocessor, err := rimage.NewPreprocessor(params.PreprocessorConfig(), mapping, o.segmenter, logger.Sublogger("rimage"))
	if err != nil {
		return nil, err
	}
	integrator, err := odometry.NewIntegrator(params.OdometryConfig())
	if err != nil {
		return nil, err
	}
	intrinsics, err := params.Intrinsics()
	if err != nil {
		return nil, err
	}

	voxelMap := o.voxelMap
	if voxelMap == nil {
		voxelMap, err = voxelmap.New(params.VoxelMapConfig(mapping), logger.Sublogger("voxelmap"))
		if err != nil {
			return nil, err
		}
	}
	space, err := navspace.New(voxelMap, params.NavigationConfig(), logger.Sublogger("navspace"))
	if err != nil {
		return nil, err
	}
	planner := o.planner
	if planner == nil {
		planner = motionplan.NewAStarPlanner(params.AStarConfig(), logger.Sublogger("motionplan"))
	}

	return &Agent{
		params:       params,
		robot:        robot,
		logger:       logger,
		baseLogger:   logger,
		mapping:      mapping,
		preprocessor: preprocessor,
		tracker:      odometry.NewTracker(integrator),
		intrinsics:   intrinsics,
		extrinsics:   params.Extrinsics(),
		voxelMap:     voxelMap,
		space:        space,
		planner:      planner,
		episode:      uuid.New(),
		goalID:       -1,
	}, nil
}

// Reset starts a new episode: fresh map and pose history, the ground-truth instance lookup
// rebuilt from annotations, and a new frame log when one is configured.
func (a *Agent) Reset(ctx context.Context, annotations []semantic.InstanceAnnotation) error {
	if err := a.closeRecorder(); err != nil {
		a.logger.Warnw("closing frame log", "error", err)
	}
	a.episode = uuid.New()
	a.logger = a.baseLogger.WithFields("episode", a.episode.String())
	a.mapping.ResetInstances(annotations)
	a.voxelMap.Reset()
	a.tracker.Reset()
	a.goalID, a.goalName = -1, ""
	a.dropped = 0
	a.moved = false

	if path := a.params.Agent.LogPath; path != "" {
		recorder, err := voxelmap.CreateLog(path)
		if err != nil {
			return err
		}
		a.recorder = recorder
	}
	a.logger.Infow("episode reset", "annotations", len(annotations))
	return nil
}

// Update reads one observation and fuses it into the map. It returns the fused frame, or nil when
// the observation was malformed and dropped; dropped frames leave the map untouched.
// Errors are reserved for the robot link and misconfiguration.
func (a *Agent) Update(ctx context.Context) (*pointcloud.Frame, error) {
	obs, err := a.robot.GetObservation(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting observation")
	}
	frame, err := a.preprocessor.Preprocess(ctx, obs)
	if err != nil {
		if errors.Is(err, rimage.ErrShapeMismatch) {
			a.drop("preprocess", err)
			return nil, nil
		}
		return nil, err
	}
	_, pose, err := a.tracker.Step(obs.GPS, obs.Compass)
	if err != nil {
		if errors.Is(err, odometry.ErrNonFiniteReading) {
			a.drop("pose", err)
			return nil, nil
		}
		return nil, err
	}
	if frame.HasGoal && a.goalID < 0 {
		a.goalID, a.goalName = frame.GoalID, frame.GoalName
	}

	points, labels, err := pointcloud.FromDepth(
		frame.DepthImage(), a.intrinsics, a.extrinsics, a.voxelMap.Config().MaxRangeCM, a.params.Environment.PointStride)
	if err != nil {
		return nil, errors.Wrap(err, "projecting depth")
	}
	cloud := &pointcloud.Frame{Points: points, Labels: labels, Pose: pose, Timestamp: frame.Timestamp}
	if err := a.voxelMap.AddObservation(cloud); err != nil {
		if errors.Is(err, voxelmap.ErrMalformedObservation) {
			a.dropped++
			return nil, nil
		}
		return nil, err
	}
	if a.recorder != nil {
		if err := a.recorder.Append(cloud); err != nil {
			return nil, err
		}
	}
	a.moved = false
	a.logger.CDebugw(ctx, "fused frame", "pose", pose, "points", len(points), "depth", frame.Stats)
	return cloud, nil
}

func (a *Agent) drop(stage string, err error) {
	a.dropped++
	a.logger.Warnw("dropping malformed frame", "stage", stage, "reason", err)
}

// Start takes the first observation of the episode and selects the goal category. An empty goal
// keeps the one the observations carry, if any.
func (a *Agent) Start(ctx context.Context, goal string) error {
	if goal != "" {
		if err := a.SetGoal(goal); err != nil {
			return err
		}
	}
	if _, err := a.Update(ctx); err != nil {
		return err
	}
	if a.goalID >= 0 {
		found := a.voxelMap.Instances(int32(a.goalID))
		a.logger.Infow("episode started", "goal", a.goalName, "found", len(found))
	}
	return nil
}

// SetGoal selects the goal category by name.
func (a *Agent) SetGoal(name string) error {
	id, ok := a.mapping.CategoryID(name)
	if !ok || !a.mapping.IsInformative(id) {
		return errors.Wrapf(ErrUnknownGoal, "%q in vocabulary %q", name, a.mapping.Vocabulary())
	}
	a.goalID, a.goalName = id, a.mapping.CategoryName(id)
	return nil
}

// Goal returns the selected goal category name, or "" when none is set.
func (a *Agent) Goal() string {
	return a.goalName
}

// GetFoundInstancesByClass returns the live instances of a category. Unknown names match nothing.
func (a *Agent) GetFoundInstancesByClass(name string) []*voxelmap.Instance {
	id, ok := a.mapping.CategoryID(name)
	if !ok {
		return nil
	}
	return a.voxelMap.Instances(int32(id))
}

// Episode returns the id of the current episode.
func (a *Agent) Episode() uuid.UUID {
	return a.episode
}

// Pose returns the latest pose and whether one has been observed.
func (a *Agent) Pose() (spatialmath.Pose2D, bool) {
	return a.tracker.Last()
}

// NumDropped returns the number of frames dropped in the current episode.
func (a *Agent) NumDropped() int {
	return a.dropped
}

// VoxelMap returns the agent's map.
func (a *Agent) VoxelMap() *voxelmap.Map {
	return a.voxelMap
}

// NavigationSpace returns the frontier view over the agent's map.
func (a *Agent) NavigationSpace() *navspace.Space {
	return a.space
}

// Planner returns the path planner in use.
func (a *Agent) Planner() motionplan.Planner {
	return a.planner
}

// Mapping returns the agent's category mapping.
func (a *Agent) Mapping() *semantic.Mapping {
	return a.mapping
}

// SaveSnapshot writes the map to path, replacing any previous snapshot only once the new one is
// complete.
func (a *Agent) SaveSnapshot(path string) error {
	tmp := path + ".tmp"
	guard := utils.NewGuard(func() { utils.RemoveFileNoError(tmp) })
	defer guard.OnFail()
	if err := a.voxelMap.SaveFile(tmp); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "saving snapshot")
	}
	guard.Success()
	return nil
}

func (a *Agent) closeRecorder() error {
	if a.recorder == nil {
		return nil
	}
	err := a.recorder.Close()
	a.recorder = nil
	return err
}

// Close flushes the frame log and stops the robot.
func (a *Agent) Close(ctx context.Context) error {
	return multierr.Combine(a.closeRecorder(), a.robot.Stop(ctx))
}
