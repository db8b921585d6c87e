package agent

import (
	"context"

	"go.viam.com/voxelnav/rimage"
	"go.viam.com/voxelnav/spatialmath"
)

// RobotClient is the simulator or robot driver the agent senses and moves through.
type RobotClient interface {
	// GetObservation blocks until the next sensor reading is available.
	GetObservation(ctx context.Context) (*rimage.Observation, error)
	// Navigate follows world-frame waypoints and returns once the last one is reached.
	Navigate(ctx context.Context, path []spatialmath.Pose2D) error
	// Stop halts any motion in progress.
	Stop(ctx context.Context) error
}
