// Package spatialmath defines the planar poses, angle helpers, and camera geometry used to move
// points between the camera, robot body, and world frames.
//
// Units are centimeters and radians throughout. The world frame has x forward at episode start,
// y to the left, and z up.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Pose2D is a planar robot pose in the world frame.
type Pose2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose2D returns a pose with its heading normalized to (-π, π].
func NewPose2D(x, y, theta float64) Pose2D {
	return Pose2D{X: x, Y: y, Theta: NormalizeAngle(theta)}
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(x=%.1f, y=%.1f, θ=%.3f)", p.X, p.Y, p.Theta)
}

// Point returns the position of the pose on the ground plane.
func (p Pose2D) Point() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y}
}

// IsFinite reports whether every component is a finite number.
func (p Pose2D) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Theta)
}

// DistanceTo returns the planar Euclidean distance between two poses.
func (p Pose2D) DistanceTo(other Pose2D) float64 {
	return math.Hypot(other.X-p.X, other.Y-p.Y)
}

// TransformPoint maps a point expressed in the body frame of this pose into the world frame.
// The z component is left untouched.
func (p Pose2D) TransformPoint(body r3.Vector) r3.Vector {
	sin, cos := math.Sincos(p.Theta)
	return r3.Vector{
		X: p.X + body.X*cos - body.Y*sin,
		Y: p.Y + body.X*sin + body.Y*cos,
		Z: body.Z,
	}
}

// Compose applies a body-frame displacement (forward dx, left dy, turn dtheta) to the pose.
func (p Pose2D) Compose(dx, dy, dtheta float64) Pose2D {
	moved := p.TransformPoint(r3.Vector{X: dx, Y: dy})
	return NewPose2D(moved.X, moved.Y, p.Theta+dtheta)
}

// RelativePoseChange returns the displacement that takes `from` to `to`, expressed in the frame
// of `from`: dx along the previous heading, dy to its left, and the normalized heading change.
func RelativePoseChange(from, to Pose2D) (dx, dy, dtheta float64) {
	dist := math.Hypot(to.X-from.X, to.Y-from.Y)
	phi := math.Atan2(to.Y-from.Y, to.X-from.X) - from.Theta
	sin, cos := math.Sincos(phi)
	return dist * cos, dist * sin, NormalizeAngle(to.Theta - from.Theta)
}

// PoseAlmostEqual compares two poses with a tolerance on position (cm) and heading (rad).
func PoseAlmostEqual(a, b Pose2D, epsilon float64) bool {
	return math.Abs(a.X-b.X) <= epsilon &&
		math.Abs(a.Y-b.Y) <= epsilon &&
		math.Abs(AngleDiff(a.Theta, b.Theta)) <= epsilon
}
