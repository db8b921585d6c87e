package pointcloud

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/voxelnav/spatialmath"
)

func TestFrameValidate(t *testing.T) {
	good := &Frame{
		Points: []r3.Vector{{X: 1, Y: 2, Z: 3}},
		Labels: []int32{4},
		Pose:   spatialmath.NewPose2D(0, 0, 0),
	}
	test.That(t, good.Validate(), test.ShouldBeNil)
	test.That(t, good.Label(0), test.ShouldEqual, int32(4))

	unlabeled := &Frame{Points: []r3.Vector{{X: 1}}}
	test.That(t, unlabeled.Validate(), test.ShouldBeNil)
	test.That(t, unlabeled.Label(0), test.ShouldEqual, NoLabel)

	for _, bad := range []*Frame{
		nil,
		{Points: []r3.Vector{{X: 1}, {X: 2}}, Labels: []int32{1}},
		{Points: []r3.Vector{{X: math.NaN()}}},
		{Points: []r3.Vector{{Z: math.Inf(1)}}},
		{Points: []r3.Vector{{X: 1}}, Pose: spatialmath.Pose2D{Theta: math.NaN()}},
	} {
		err := bad.Validate()
		test.That(t, errors.Is(err, ErrInvalidFrame), test.ShouldBeTrue)
	}
}

func TestWorldPoints(t *testing.T) {
	f := &Frame{
		Points: []r3.Vector{{X: 10, Z: 5}},
		Pose:   spatialmath.NewPose2D(100, 0, math.Pi),
	}
	world := f.WorldPoints()
	test.That(t, world[0].X, test.ShouldAlmostEqual, 90)
	test.That(t, world[0].Y, test.ShouldAlmostEqual, 0)
	test.That(t, world[0].Z, test.ShouldAlmostEqual, 5)
}

func TestVoxelCoords(t *testing.T) {
	c := GetVoxelCoordinates(r3.Vector{X: 12, Y: -0.5, Z: 4.99}, 5)
	test.That(t, c, test.ShouldResemble, VoxelCoords{I: 2, J: -1, K: 0})
	center := c.Center(5)
	test.That(t, center.X, test.ShouldAlmostEqual, 12.5)
	test.That(t, center.Y, test.ShouldAlmostEqual, -2.5)
	test.That(t, c.Neighbors(), test.ShouldHaveLength, 26)
	test.That(t, c.IsEqual(VoxelCoords{2, -1, 0}), test.ShouldBeTrue)

	set := map[VoxelCoords]int{
		{0, 0, 0}: 1,
		{1, 1, 1}: 1,
		{3, 0, 0}: 1,
	}
	test.That(t, GetAdjacentVoxels(set, VoxelCoords{}), test.ShouldResemble, []VoxelCoords{{1, 1, 1}})
}

func TestConnectedComponents(t *testing.T) {
	keys := []VoxelCoords{
		{0, 0, 0},
		{5, 5, 5},
		{1, 1, 1},
		{2, 2, 2},
		{5, 5, 6},
		{9, 0, 0},
	}
	components := ConnectedComponents(keys)
	test.That(t, components, test.ShouldHaveLength, 3)
	test.That(t, components[0], test.ShouldHaveLength, 3)
	test.That(t, components[0][0], test.ShouldResemble, VoxelCoords{0, 0, 0})
	test.That(t, components[1], test.ShouldHaveLength, 2)
	test.That(t, components[2], test.ShouldResemble, []VoxelCoords{{9, 0, 0}})
	test.That(t, ConnectedComponents(nil), test.ShouldBeEmpty)
}

func TestFromDepth(t *testing.T) {
	intrinsics, err := spatialmath.NewIntrinsicsFromHFOV(3, 3, 90)
	test.That(t, err, test.ShouldBeNil)
	extrinsics := spatialmath.NewCameraExtrinsics(50, 0)

	img := DepthImage{
		Width:  3,
		Height: 3,
		DepthCM: []float32{
			100, 0, 100,
			float32(math.NaN()), 200, 10001,
			100, 100, 600,
		},
		Labels: []int32{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	points, labels, err := FromDepth(img, intrinsics, extrinsics, 500, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, points, test.ShouldHaveLength, 5)
	test.That(t, labels, test.ShouldResemble, []int32{0, 2, 4, 6, 7})

	// the center pixel lies on the optical axis
	test.That(t, points[2].X, test.ShouldAlmostEqual, 200)
	test.That(t, points[2].Y, test.ShouldAlmostEqual, 0)
	test.That(t, points[2].Z, test.ShouldAlmostEqual, 50)
	// the top-left pixel is left of and above the axis
	test.That(t, points[0].Y, test.ShouldBeGreaterThan, 0)
	test.That(t, points[0].Z, test.ShouldBeGreaterThan, 50)

	sparse, _, err := FromDepth(img, intrinsics, extrinsics, 500, 2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sparse, test.ShouldHaveLength, 3)

	_, _, err = FromDepth(DepthImage{Width: 2, Height: 2, DepthCM: []float32{1}}, intrinsics, extrinsics, 500, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = FromDepth(DepthImage{Width: 1, Height: 1, DepthCM: []float32{1}}, intrinsics, extrinsics, 500, 1)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = FromDepth(img, intrinsics, extrinsics, 0, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWritePCD(t *testing.T) {
	var buf bytes.Buffer
	err := WritePCD(&buf, []r3.Vector{{X: 100, Y: 50, Z: 0}, {X: 1, Y: 2, Z: 3}}, []int32{3, -1})
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	test.That(t, lines, test.ShouldHaveLength, 12)
	test.That(t, lines[0], test.ShouldEqual, "VERSION .7")
	test.That(t, lines[8], test.ShouldEqual, "POINTS 2")
	test.That(t, lines[10], test.ShouldEqual, "1.000000 0.500000 0.000000 3")

	err = WritePCD(&buf, []r3.Vector{{}}, []int32{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
}
