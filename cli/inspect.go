package cli

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	goutils "go.viam.com/utils"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/voxelmap"
)

var (
	colorExplored  = color.NRGBA{R: 90, G: 90, B: 90, A: 255}
	colorObstacle  = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
	colorFrontier  = color.NRGBA{R: 40, G: 200, B: 40, A: 255}
	colorPathCells = color.NRGBA{R: 40, G: 120, B: 240, A: 255}
)

// InspectAction prints what the agent would see from a stored map: counts, instances, the ranked
// frontier goals from a start pose, and the plan the frontier loop would pick.
func InspectAction(c *cli.Context) error {
	logger, closeLog := newLogger(c)
	defer closeLog()
	params, err := loadParameters(c, logger)
	if err != nil {
		return err
	}
	start, err := parsePose(c.String(flagStart))
	if err != nil {
		return err
	}
	m, err := loadMap(c, params, logger)
	if err != nil {
		return err
	}
	mapping, err := mapMapping(m, params, logger)
	if err != nil {
		return err
	}
	space, err := navspace.New(m, params.NavigationConfig(), logger.Sublogger("navspace"))
	if err != nil {
		return err
	}
	f, err := space.GetFrontier()
	if err != nil {
		return err
	}

	w := c.App.Writer
	b := f.Bounds
	printf(w, "map %s: %d frames, %d voxels", m.ID(), m.NumFrames(), m.NumVoxels())
	printf(w, "grid: %dx%d cells at %vcm from (%v, %v)", b.Rows, b.Cols, b.ResolutionCM, b.MinX, b.MinY)
	printf(w, "explored %d, obstacles %d, traversable %d, frontier %d cells",
		f.Explored.Count(), f.Obstacles.Count(), f.Traversable.Count(), f.Frontier.Count())

	instances := m.Instances()
	printf(w, "instances: %d", len(instances))
	if len(instances) > 0 {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"ID", "Category", "Voxels", "Points", "Centroid", "Spread"})
		for _, inst := range instances {
			centroid, spread := inst.Centroid(), inst.Spread()
			t.AppendRow(table.Row{
				inst.ID,
				mapping.CategoryName(int(inst.ClassID)),
				inst.NumVoxels(),
				inst.PointCount,
				fmt.Sprintf("X:%.1f, Y:%.1f, Z:%.1f", centroid.X, centroid.Y, centroid.Z),
				fmt.Sprintf("%.1f, %.1f, %.1f", spread.X, spread.Y, spread.Z),
			})
		}
		printf(w, "%s", t.Render())
	}

	printf(w, "frontier goals from %v:", start)
	n := 0
	for goal := range space.SampleFrontier(f, start) {
		if n >= c.Int(flagSamples) {
			break
		}
		n++
		printf(w, "\t%d: cell %v at (%.1f, %.1f), %.1fcm", n, goal.Cell, goal.X, goal.Y, goal.DistanceCM)
	}

	tries := c.Int(flagTryToPlanIter)
	if tries <= 0 {
		tries = params.Planner.TryToPlanIter
	}
	planner := motionplan.NewAStarPlanner(params.AStarConfig(), logger.Sublogger("motionplan"))
	plan := motionplan.PlanToFrontier(c.Context, start, planner, space, tries, logger)
	printf(w, "plan: %v", plan)
	for _, p := range plan.Path {
		printf(w, "\t%v", p)
	}

	if dir := c.String(flagOutDir); dir != "" {
		if err := writeImages(dir, c.Int(flagScale), m, mapping, f, plan); err != nil {
			return err
		}
		printf(w, "wrote images to %s", dir)
	}
	if path := c.String(flagPCD); path != "" {
		if err := writePCD(path, m); err != nil {
			return err
		}
		printf(w, "wrote %s", path)
	}
	return nil
}

func writeImages(
	dir string,
	scale int,
	m *voxelmap.Map,
	mapping *semantic.Mapping,
	f *navspace.Frontier,
	plan motionplan.PlanResult,
) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrapf(err, "creating %q", dir)
	}
	masks := map[string]*gridmap.Mask{
		"explored":    f.Explored,
		"obstacles":   f.Obstacles,
		"traversable": f.Traversable,
		"frontier":    f.Frontier,
	}
	for name, mask := range masks {
		if err := gridmap.WritePNG(filepath.Join(dir, name+".png"), mask.ToImage(), scale); err != nil {
			return err
		}
	}

	path := gridmap.NewMask(f.Bounds.Rows, f.Bounds.Cols)
	for _, cell := range plan.Cells {
		path.Set(cell, true)
	}
	overlay, err := gridmap.Overlay(
		[]*gridmap.Mask{f.Explored, f.Obstacles, f.Frontier, path},
		[]color.Color{colorExplored, colorObstacle, colorFrontier, colorPathCells},
	)
	if err != nil {
		return err
	}
	if err := gridmap.WritePNG(filepath.Join(dir, "overlay.png"), overlay, scale); err != nil {
		return err
	}

	grid, err := m.SemanticMap(&f.Bounds)
	if err != nil {
		return err
	}
	return gridmap.WritePNG(filepath.Join(dir, "semantic.png"), semanticImage(grid, mapping), scale)
}

// semanticImage paints each cell with its category color, flipped like gridmap images.
func semanticImage(grid *voxelmap.SemanticGrid, mapping *semantic.Mapping) *image.NRGBA {
	rows, cols := grid.Bounds.Rows, grid.Bounds.Cols
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if id := grid.At(gridmap.Cell{Row: r, Col: c}); id >= 0 {
				img.SetNRGBA(c, rows-1-r, mapping.Color(int(id)))
			}
		}
	}
	return img
}

func writePCD(path string, m *voxelmap.Map) error {
	//nolint:gosec
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer goutils.UncheckedErrorFunc(out.Close)
	return m.WritePCD(out)
}

// parsePose parses "x,y,theta" or "x,y".
func parsePose(s string) (spatialmath.Pose2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 && len(parts) != 3 {
		return spatialmath.Pose2D{}, errors.Errorf("pose %q must be x,y or x,y,theta", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return spatialmath.Pose2D{}, errors.Wrapf(err, "pose %q", s)
		}
		vals[i] = v
	}
	pose := spatialmath.NewPose2D(vals[0], vals[1], vals[2])
	if !pose.IsFinite() {
		return spatialmath.Pose2D{}, errors.Errorf("pose %q is not finite", s)
	}
	return pose, nil
}
