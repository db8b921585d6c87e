package motionplan_test

import (
	"context"
	"math"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/testutils/inject"
)

type maskView struct {
	explored  *gridmap.Mask
	obstacles *gridmap.Mask
}

func (v *maskView) Get2DMap(*gridmap.Bounds) (*gridmap.Mask, *gridmap.Mask, error) {
	return v.explored.Clone(), v.obstacles.Clone(), nil
}

func (v *maskView) Window() gridmap.Bounds {
	return gridmap.Bounds{Rows: v.explored.Rows(), Cols: v.explored.Cols(), ResolutionCM: 10}
}

// newSpace builds a 10 cm navigation space with no safety margin over an explored room in the
// middle of a 12x12 grid.
func newSpace(t *testing.T, explored bool) *navspace.Space {
	t.Helper()
	e := gridmap.NewMask(12, 12)
	if explored {
		for r := 2; r < 10; r++ {
			for c := 2; c < 10; c++ {
				e.Set(gridmap.Cell{Row: r, Col: c}, true)
			}
		}
	}
	cfg := navspace.DefaultConfig()
	cfg.RobotRadiusCM = 0
	cfg.MinFrontierSpacingCM = 0
	s, err := navspace.New(&maskView{explored: e, obstacles: gridmap.NewMask(12, 12)}, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return s
}

var center = spatialmath.NewPose2D(60, 60, 0)

func TestPlanToFrontierSucceeds(t *testing.T) {
	logger := logging.NewTestLogger(t)
	planner := motionplan.NewAStarPlanner(motionplan.DefaultAStarConfig(), logger)
	res := motionplan.PlanToFrontier(context.Background(), center, planner, newSpace(t, true), 3, logger)
	test.That(t, res.Success, test.ShouldBeTrue)
	test.That(t, res.Err, test.ShouldBeNil)
	test.That(t, res.Attempts, test.ShouldEqual, 1)

	test.That(t, res.Path[0].X, test.ShouldAlmostEqual, center.X)
	test.That(t, res.Path[0].Y, test.ShouldAlmostEqual, center.Y)
	last := res.Path[len(res.Path)-1]
	test.That(t, last.X, test.ShouldAlmostEqual, res.Goal.X)
	test.That(t, last.Y, test.ShouldAlmostEqual, res.Goal.Y)
	test.That(t, last.Theta, test.ShouldAlmostEqual, res.Goal.Theta)
	for i := 0; i+1 < len(res.Path); i++ {
		a, b := res.Path[i], res.Path[i+1]
		test.That(t, a.Theta, test.ShouldAlmostEqual, math.Atan2(b.Y-a.Y, b.X-a.X))
	}
	test.That(t, res.String(), test.ShouldContainSubstring, "success")
}

func TestPlanToFrontierRetries(t *testing.T) {
	logger := logging.NewTestLogger(t)
	failures := 0
	planner := &inject.Planner{Planner: motionplan.NewAStarPlanner(motionplan.DefaultAStarConfig(), logger)}
	planner.PlanFunc = func(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error) {
		if failures < 2 {
			failures++
			return nil, motionplan.NewPlannerFailedError("blocked by clutter")
		}
		return planner.Planner.Plan(ctx, start, goal, traversable)
	}
	res := motionplan.PlanToFrontier(context.Background(), center, planner, newSpace(t, true), 3, logger)
	test.That(t, res.Success, test.ShouldBeTrue)
	test.That(t, res.Attempts, test.ShouldEqual, 3)
	test.That(t, planner.Calls(), test.ShouldEqual, 3)
}

func TestPlanToFrontierExhausted(t *testing.T) {
	logger := logging.NewTestLogger(t)
	var goals []gridmap.Cell
	planner := &inject.Planner{
		PlanFunc: func(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error) {
			goals = append(goals, goal)
			return nil, motionplan.NewPlannerFailedError("goal %v unreachable", goal)
		},
	}
	res := motionplan.PlanToFrontier(context.Background(), center, planner, newSpace(t, true), 3, logger)
	test.That(t, res.Success, test.ShouldBeFalse)
	test.That(t, res.Path, test.ShouldBeNil)
	test.That(t, res.Attempts, test.ShouldEqual, 3)
	test.That(t, planner.Calls(), test.ShouldEqual, 3)
	test.That(t, errors.Is(res.Err, motionplan.ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, res.Reason, test.ShouldContainSubstring, "exhausted 3 frontier candidates")
	test.That(t, len(goals), test.ShouldEqual, 3)
	test.That(t, goals[0], test.ShouldNotResemble, goals[1])
}

func TestPlanToFrontierNoFrontier(t *testing.T) {
	logger := logging.NewTestLogger(t)
	planner := &inject.Planner{}
	res := motionplan.PlanToFrontier(context.Background(), center, planner, newSpace(t, false), 3, logger)
	test.That(t, res.Success, test.ShouldBeFalse)
	test.That(t, res.Attempts, test.ShouldEqual, 0)
	test.That(t, errors.Is(res.Err, motionplan.ErrNoFrontier), test.ShouldBeTrue)
	test.That(t, planner.Calls(), test.ShouldEqual, 0)
}

func TestPlanToFrontierBadInput(t *testing.T) {
	logger := logging.NewTestLogger(t)
	planner := &inject.Planner{}
	space := newSpace(t, true)

	res := motionplan.PlanToFrontier(context.Background(), center, planner, space, 0, logger)
	test.That(t, res.Err, test.ShouldNotBeNil)
	test.That(t, res.Reason, test.ShouldContainSubstring, "try_to_plan_iter")

	res = motionplan.PlanToFrontier(context.Background(), spatialmath.NewPose2D(-500, 0, 0), planner, space, 3, logger)
	test.That(t, errors.Is(res.Err, motionplan.ErrPlannerFailed), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res = motionplan.PlanToFrontier(ctx, center, planner, space, 3, logger)
	test.That(t, errors.Is(res.Err, context.Canceled), test.ShouldBeTrue)
	test.That(t, planner.Calls(), test.ShouldEqual, 0)
}

func TestPlanToGoal(t *testing.T) {
	logger := logging.NewTestLogger(t)
	space := newSpace(t, true)
	planner := motionplan.NewAStarPlanner(motionplan.DefaultAStarConfig(), logger)

	goal, err := space.GoalNear(center, 25, 95)
	test.That(t, err, test.ShouldBeNil)
	res := motionplan.PlanToGoal(context.Background(), center, goal, planner, space, logger)
	test.That(t, res.Success, test.ShouldBeTrue)
	test.That(t, res.Cells[len(res.Cells)-1], test.ShouldResemble, goal.Cell)
	test.That(t, res.Attempts, test.ShouldEqual, 1)

	outside := navspace.Goal{Cell: gridmap.Cell{Row: 0, Col: 0}}
	res = motionplan.PlanToGoal(context.Background(), center, outside, planner, space, logger)
	test.That(t, res.Success, test.ShouldBeFalse)
	test.That(t, errors.Is(res.Err, motionplan.ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, res.String(), test.ShouldContainSubstring, "failure")
}
