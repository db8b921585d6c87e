package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNormalizeAngle(t *testing.T) {
	test.That(t, NormalizeAngle(0), test.ShouldAlmostEqual, 0)
	test.That(t, NormalizeAngle(math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(-math.Pi), test.ShouldAlmostEqual, math.Pi)
	test.That(t, NormalizeAngle(3*math.Pi-0.5), test.ShouldAlmostEqual, math.Pi-0.5)
	test.That(t, NormalizeAngle(2*math.Pi+0.25), test.ShouldAlmostEqual, 0.25)
	test.That(t, NormalizeAngle(-2*math.Pi-0.25), test.ShouldAlmostEqual, -0.25)
	test.That(t, NormalizeAngle(DegToRad(270)), test.ShouldAlmostEqual, -math.Pi/2)
	test.That(t, math.IsNaN(NormalizeAngle(math.NaN())), test.ShouldBeTrue)

	test.That(t, AngleDiff(DegToRad(170), DegToRad(-170)), test.ShouldAlmostEqual, DegToRad(20))
	test.That(t, RadToDeg(math.Pi/2), test.ShouldAlmostEqual, 90)
}

func TestTransformPoint(t *testing.T) {
	pose := NewPose2D(100, 50, math.Pi/2)
	world := pose.TransformPoint(r3.Vector{X: 10, Y: 0, Z: 30})
	test.That(t, world.X, test.ShouldAlmostEqual, 100)
	test.That(t, world.Y, test.ShouldAlmostEqual, 60)
	test.That(t, world.Z, test.ShouldAlmostEqual, 30)

	left := pose.TransformPoint(r3.Vector{Y: 10})
	test.That(t, left.X, test.ShouldAlmostEqual, 90)
	test.That(t, left.Y, test.ShouldAlmostEqual, 50)
}

func TestRelativePoseChange(t *testing.T) {
	t.Run("straight ahead", func(t *testing.T) {
		dx, dy, dtheta := RelativePoseChange(NewPose2D(0, 0, 0), NewPose2D(25, 0, 0))
		test.That(t, dx, test.ShouldAlmostEqual, 25)
		test.That(t, dy, test.ShouldAlmostEqual, 0)
		test.That(t, dtheta, test.ShouldAlmostEqual, 0)
	})

	t.Run("expressed in the previous frame", func(t *testing.T) {
		from := NewPose2D(10, 10, math.Pi/2)
		to := NewPose2D(10, 30, math.Pi)
		dx, dy, dtheta := RelativePoseChange(from, to)
		test.That(t, dx, test.ShouldAlmostEqual, 20)
		test.That(t, dy, test.ShouldAlmostEqual, 0)
		test.That(t, dtheta, test.ShouldAlmostEqual, math.Pi/2)
	})

	t.Run("compose inverts the change", func(t *testing.T) {
		from := NewPose2D(-40, 12, 2.5)
		to := NewPose2D(-10, -30, -2.9)
		dx, dy, dtheta := RelativePoseChange(from, to)
		test.That(t, PoseAlmostEqual(from.Compose(dx, dy, dtheta), to, 1e-9), test.ShouldBeTrue)
	})

	t.Run("heading change wraps", func(t *testing.T) {
		_, _, dtheta := RelativePoseChange(NewPose2D(0, 0, 3), NewPose2D(0, 0, -3))
		test.That(t, dtheta, test.ShouldAlmostEqual, 2*math.Pi-6)
	})
}

func TestPoseFinite(t *testing.T) {
	test.That(t, NewPose2D(1, 2, 3).IsFinite(), test.ShouldBeTrue)
	test.That(t, Pose2D{X: math.Inf(1)}.IsFinite(), test.ShouldBeFalse)
	test.That(t, Pose2D{Theta: math.NaN()}.IsFinite(), test.ShouldBeFalse)
	test.That(t, NewPose2D(0, 0, 0).DistanceTo(NewPose2D(3, 4, 1)), test.ShouldAlmostEqual, 5)
}
