// Package pointcloud holds posed point-cloud frames, their projection from depth images, voxel
// coordinates, and PCD export.
//
// Frame points are in the robot body frame: x forward, y left, z up from the floor, in centimeters.
package pointcloud

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/voxelnav/spatialmath"
)

// ErrInvalidFrame is returned by Validate for frames that must not reach the map.
var ErrInvalidFrame = errors.New("invalid point cloud frame")

// NoLabel marks a point without a semantic category.
const NoLabel int32 = -1

// Frame is one posed observation: body-frame points, an optional per-point category label, and the
// robot pose at capture time.
type Frame struct {
	Points    []r3.Vector        `json:"points"`
	Labels    []int32            `json:"labels,omitempty"`
	Pose      spatialmath.Pose2D `json:"pose"`
	Timestamp time.Time          `json:"timestamp"`
}

// Validate reports shape mismatches and non-finite values.
func (f *Frame) Validate() error {
	if f == nil {
		return errors.Wrap(ErrInvalidFrame, "nil frame")
	}
	if len(f.Labels) != 0 && len(f.Labels) != len(f.Points) {
		return errors.Wrapf(ErrInvalidFrame, "%d labels for %d points", len(f.Labels), len(f.Points))
	}
	if !f.Pose.IsFinite() {
		return errors.Wrapf(ErrInvalidFrame, "non-finite pose %v", f.Pose)
	}
	for i, p := range f.Points {
		if !isFiniteVector(p) {
			return errors.Wrapf(ErrInvalidFrame, "non-finite point %d: %v", i, p)
		}
	}
	return nil
}

// Label returns the label of point i, or NoLabel when the frame is unlabeled.
func (f *Frame) Label(i int) int32 {
	if len(f.Labels) == 0 {
		return NoLabel
	}
	return f.Labels[i]
}

// WorldPoints transforms the body-frame points into the world frame using the frame's pose.
func (f *Frame) WorldPoints() []r3.Vector {
	out := make([]r3.Vector, len(f.Points))
	for i, p := range f.Points {
		out[i] = f.Pose.TransformPoint(p)
	}
	return out
}

func isFiniteVector(v r3.Vector) bool {
	for _, c := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
