package inject

import (
	"context"

	"go.uber.org/atomic"

	"go.viam.com/voxelnav/agent"
	"go.viam.com/voxelnav/rimage"
	"go.viam.com/voxelnav/spatialmath"
)

// RobotClient is an injectable robot client.
type RobotClient struct {
	agent.RobotClient
	GetObservationFunc func(ctx context.Context) (*rimage.Observation, error)
	NavigateFunc       func(ctx context.Context, path []spatialmath.Pose2D) error
	StopFunc           func(ctx context.Context) error

	observations atomic.Int64
	navigations  atomic.Int64
	stops        atomic.Int64
}

// GetObservation calls the injected GetObservationFunc or the real variant.
func (r *RobotClient) GetObservation(ctx context.Context) (*rimage.Observation, error) {
	r.observations.Add(1)
	if r.GetObservationFunc == nil {
		return r.RobotClient.GetObservation(ctx)
	}
	return r.GetObservationFunc(ctx)
}

// Navigate calls the injected NavigateFunc or the real variant.
func (r *RobotClient) Navigate(ctx context.Context, path []spatialmath.Pose2D) error {
	r.navigations.Add(1)
	if r.NavigateFunc == nil {
		return r.RobotClient.Navigate(ctx, path)
	}
	return r.NavigateFunc(ctx, path)
}

// Stop calls the injected StopFunc or the real variant. With neither it does nothing.
func (r *RobotClient) Stop(ctx context.Context) error {
	r.stops.Add(1)
	if r.StopFunc == nil {
		if r.RobotClient == nil {
			return nil
		}
		return r.RobotClient.Stop(ctx)
	}
	return r.StopFunc(ctx)
}

// Observations returns how many observations were requested.
func (r *RobotClient) Observations() int {
	return int(r.observations.Load())
}

// Navigations returns how many paths were sent.
func (r *RobotClient) Navigations() int {
	return int(r.navigations.Load())
}

// Stops returns how many times Stop was called.
func (r *RobotClient) Stops() int {
	return int(r.stops.Load())
}
