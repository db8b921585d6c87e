// Package motionplan plans ground paths over the navigation grid and drives the frontier retry
// loop: candidate goals are tried in order until the planner succeeds or the attempt budget runs out.
package motionplan

import (
	"context"
	"fmt"
	"iter"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
	"go.viam.com/voxelnav/navspace"
	"go.viam.com/voxelnav/spatialmath"
)

// Space is the part of the navigation space the retry loop needs.
type Space interface {
	GetFrontier() (*navspace.Frontier, error)
	SampleFrontier(f *navspace.Frontier, start spatialmath.Pose2D) iter.Seq[navspace.Goal]
}

// PlanResult is the outcome of a planning request. Planning failures are reported here rather than
// as errors; Err classifies them.
type PlanResult struct {
	Success bool
	// Path holds waypoints from the start pose to the goal, each facing the next one.
	Path  []spatialmath.Pose2D
	Cells []gridmap.Cell
	Goal  navspace.Goal
	// Attempts counts the planner invocations.
	Attempts int
	Reason   string
	Err      error
}

func (r PlanResult) String() string {
	if r.Success {
		return fmt.Sprintf("success: %d waypoints to %v after %d attempts", len(r.Path), r.Goal.Cell, r.Attempts)
	}
	return fmt.Sprintf("failure after %d attempts: %s", r.Attempts, r.Reason)
}

func failed(attempts int, err error) PlanResult {
	return PlanResult{Attempts: attempts, Reason: err.Error(), Err: err}
}

// PlanToFrontier tries up to tryToPlanIter frontier candidates, closest first, and returns the
// first successful plan. Candidates on the start cell are skipped. When none succeeds the result
// names the number of exhausted candidates, or reports ErrNoFrontier when there was none.
func PlanToFrontier(
	ctx context.Context,
	start spatialmath.Pose2D,
	planner Planner,
	space Space,
	tryToPlanIter int,
	logger logging.Logger,
) PlanResult {
	if tryToPlanIter < 1 {
		return failed(0, errors.Errorf("try_to_plan_iter must be positive, got %d", tryToPlanIter))
	}
	f, err := space.GetFrontier()
	if err != nil {
		return failed(0, err)
	}
	startCell, ok := f.Bounds.WorldToCell(start.X, start.Y)
	if !ok {
		return failed(0, NewPlannerFailedError("start %v outside the navigation grid", start))
	}

	attempts := 0
	for goal := range space.SampleFrontier(f, start) {
		if goal.Cell == startCell {
			continue
		}
		if err := ctx.Err(); err != nil {
			return failed(attempts, err)
		}
		attempts++
		res := planCells(ctx, start, startCell, goal, planner, f)
		res.Attempts = attempts
		if res.Success {
			logger.Debugw("planned to frontier", "goal", goal.Cell, "distance_cm", goal.DistanceCM, "attempts", attempts)
			return res
		}
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			return res
		}
		logger.Debugw("frontier candidate failed", "goal", goal.Cell, "attempt", attempts, "reason", res.Reason)
		if attempts == tryToPlanIter {
			break
		}
	}
	if attempts == 0 {
		return failed(0, ErrNoFrontier)
	}
	return failed(attempts, NewPlannerFailedError("exhausted %d frontier candidates", attempts))
}

// PlanToGoal plans directly to a single goal, such as an object instance or the start of the episode.
func PlanToGoal(
	ctx context.Context,
	start spatialmath.Pose2D,
	goal navspace.Goal,
	planner Planner,
	space Space,
	logger logging.Logger,
) PlanResult {
	f, err := space.GetFrontier()
	if err != nil {
		return failed(0, err)
	}
	startCell, ok := f.Bounds.WorldToCell(start.X, start.Y)
	if !ok {
		return failed(0, NewPlannerFailedError("start %v outside the navigation grid", start))
	}
	res := planCells(ctx, start, startCell, goal, planner, f)
	res.Attempts = 1
	logger.Debugw("planned to goal", "goal", goal.Cell, "result", res.String())
	return res
}

func planCells(
	ctx context.Context,
	start spatialmath.Pose2D,
	startCell gridmap.Cell,
	goal navspace.Goal,
	planner Planner,
	f *navspace.Frontier,
) PlanResult {
	cells, err := planner.Plan(ctx, startCell, goal.Cell, f.Traversable)
	if err != nil {
		res := failed(1, err)
		res.Goal = goal
		return res
	}
	if len(cells) == 0 {
		res := failed(1, NewPlannerFailedError("empty path to %v", goal.Cell))
		res.Goal = goal
		return res
	}
	return PlanResult{
		Success: true,
		Path:    waypoints(start, goal, cells, f.Bounds),
		Cells:   cells,
		Goal:    goal,
	}
}

// waypoints turns a cell path into poses. The first waypoint is the start pose itself and every
// waypoint faces the next one; the last takes the goal heading.
func waypoints(start spatialmath.Pose2D, goal navspace.Goal, cells []gridmap.Cell, bounds gridmap.Bounds) []spatialmath.Pose2D {
	points := make([][2]float64, 0, len(cells))
	points = append(points, [2]float64{start.X, start.Y})
	for _, c := range cells[1:] {
		x, y := bounds.CellToWorld(c)
		points = append(points, [2]float64{x, y})
	}
	path := make([]spatialmath.Pose2D, len(points))
	for i, p := range points {
		theta := goal.Theta
		if i+1 < len(points) {
			next := points[i+1]
			theta = math.Atan2(next[1]-p[1], next[0]-p[0])
		}
		path[i] = spatialmath.NewPose2D(p[0], p[1], theta)
	}
	return path
}
