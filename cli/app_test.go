package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/voxelnav/config"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/pointcloud"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/voxelmap"
)

// writeTestLog records one frame: a floor patch in front of the origin and a chair-labeled wall.
func writeTestLog(t *testing.T, dir string) string {
	t.Helper()
	mapping, err := config.Default().Mapping()
	test.That(t, err, test.ShouldBeNil)
	chair, ok := mapping.CategoryID("chair")
	test.That(t, ok, test.ShouldBeTrue)
	return writeWallLog(t, dir, int32(chair))
}

// writeWallLog records a floor patch in front of the origin and a wall labeled with label.
func writeWallLog(t *testing.T, dir string, label int32) string {
	t.Helper()
	frame := &pointcloud.Frame{}
	for x := 0.0; x <= 100; x += 2 {
		for y := -50.0; y <= 50; y += 2 {
			frame.Points = append(frame.Points, r3.Vector{X: x, Y: y, Z: 1})
			frame.Labels = append(frame.Labels, pointcloud.NoLabel)
		}
	}
	for y := -20.0; y <= 20; y += 2 {
		for z := 20.0; z <= 80; z += 5 {
			frame.Points = append(frame.Points, r3.Vector{X: 80, Y: y, Z: z})
			frame.Labels = append(frame.Labels, label)
		}
	}

	path := filepath.Join(dir, "frames.log")
	lw, err := voxelmap.CreateLog(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, lw.Append(frame), test.ShouldBeNil)
	test.That(t, lw.Close(), test.ShouldBeNil)
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"voxelnav"}, args...))
	return out.String(), err
}

func TestConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	logPath := writeTestLog(t, dir)
	snap := filepath.Join(dir, "map.snap")

	out, err := runApp(t, "convert", "--log", logPath, "--output", snap)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "with 1 frames")
	test.That(t, out, test.ShouldContainSubstring, "B)")
	_, err = os.Stat(snap)
	test.That(t, err, test.ShouldBeNil)

	images := filepath.Join(dir, "images")
	pcd := filepath.Join(dir, "map.pcd")
	out, err = runApp(t, "inspect", "--input", snap, "--start", "20,0", "--samples", "3",
		"--out-dir", images, "--pcd", pcd, "navigation.robot_radius_cm=15")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "1 frames")
	test.That(t, out, test.ShouldContainSubstring, "instances: 1")
	test.That(t, out, test.ShouldContainSubstring, "CATEGORY")
	test.That(t, out, test.ShouldContainSubstring, "SPREAD")
	test.That(t, out, test.ShouldContainSubstring, "chair")
	test.That(t, out, test.ShouldContainSubstring, "X:82.5")
	test.That(t, out, test.ShouldContainSubstring, "\t1: cell")
	test.That(t, out, test.ShouldContainSubstring, "plan: success")
	for _, name := range []string{"explored", "obstacles", "traversable", "frontier", "overlay", "semantic"} {
		_, err := os.Stat(filepath.Join(images, name+".png"))
		test.That(t, err, test.ShouldBeNil)
	}
	data, err := os.ReadFile(pcd)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldStartWith, "VERSION .7")

	// replaying the log directly sees the same map
	out, err = runApp(t, "inspect", "--log", logPath, "--frames", "1", "--start", "20,0,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "instances: 1")
}

func TestInspectUsesMapMapping(t *testing.T) {
	dir := t.TempDir()
	mapping, err := semantic.NewMapping(semantic.Floorplanner, semantic.MukulIndoor)
	test.That(t, err, test.ShouldBeNil)
	clock, ok := mapping.CategoryID("alarm_clock")
	test.That(t, ok, test.ShouldBeTrue)
	logPath := writeWallLog(t, dir, int32(clock))
	snap := filepath.Join(dir, "map.snap")

	_, err = runApp(t, "convert", "--log", logPath, "--output", snap,
		"semantic.dataset=floorplanner", "semantic.vocabulary=mukul_indoor")
	test.That(t, err, test.ShouldBeNil)
	m, err := voxelmap.LoadFile(snap, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Config().Dataset, test.ShouldEqual, "floorplanner")
	test.That(t, m.Config().OtherID, test.ShouldEqual, int32(mapping.OtherID()))

	// no overrides: the snapshot, not the default hm3d mapping, names the categories
	out, err := runApp(t, "inspect", "--input", snap, "--start", "20,0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "instances: 1")
	test.That(t, out, test.ShouldContainSubstring, "alarm_clock")
	test.That(t, out, test.ShouldNotContainSubstring, "chair")
}

func TestLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := writeTestLog(t, dir)
	logFile := filepath.Join(dir, "voxelnav.log")

	_, err := runApp(t, "--debug", "--log-file", logFile, "convert", "--log", logPath,
		"--output", filepath.Join(dir, "map.snap"))
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(logFile)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "voxelnav.voxelmap")
}

func TestInspectErrors(t *testing.T) {
	dir := t.TempDir()
	logPath := writeTestLog(t, dir)

	_, err := runApp(t, "inspect")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "is required")

	_, err = runApp(t, "inspect", "--input", "a.snap", "--log", logPath)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "only one of")

	_, err = runApp(t, "inspect", "--log", logPath, "--start", "1,2,3,4")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "inspect", "--log", logPath, "planner.try_to_plan_iter=0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "try_to_plan_iter")

	_, err = runApp(t, "inspect", "--input", filepath.Join(dir, "missing.snap"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = runApp(t, "convert", "--log", logPath)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParsePose(t *testing.T) {
	p, err := parsePose("10, -5, 0.5")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.X, test.ShouldEqual, 10.0)
	test.That(t, p.Y, test.ShouldEqual, -5.0)
	test.That(t, p.Theta, test.ShouldEqual, 0.5)

	p, err = parsePose("1,2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Theta, test.ShouldEqual, 0.0)

	for _, bad := range []string{"", "1", "a,b", "1,NaN,0"} {
		_, err := parsePose(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}
