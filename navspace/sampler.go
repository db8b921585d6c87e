package navspace

import (
	"cmp"
	"iter"
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/graph/path"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/spatialmath"
	"go.viam.com/voxelnav/voxelmap"
)

// ErrNoGoal is returned when no traversable cell can serve as a goal.
var ErrNoGoal = errors.New("no reachable goal")

// SampleClosestFrontier returns the frontier cells as candidate goals ordered by non-decreasing
// distance from start. The frontier is computed once per call; each iteration of the returned
// sequence ranks it afresh, so the sequence may be restarted. Candidates closer than
// MinFrontierSpacingCM to an earlier candidate are skipped, and with the geodesic metric cells that
// cannot be reached from start are omitted.
func (s *Space) SampleClosestFrontier(start spatialmath.Pose2D) (iter.Seq[Goal], error) {
	f, err := s.GetFrontier()
	if err != nil {
		return nil, err
	}
	return s.SampleFrontier(f, start), nil
}

// SampleFrontier ranks the frontier of a previously computed Frontier.
func (s *Space) SampleFrontier(f *Frontier, start spatialmath.Pose2D) iter.Seq[Goal] {
	return func(yield func(Goal) bool) {
		var taken []Goal
		for _, g := range s.rank(f, start, f.Frontier.Cells()) {
			if s.cfg.MinFrontierSpacingCM > 0 && lo.ContainsBy(taken, func(t Goal) bool {
				return math.Hypot(t.X-g.X, t.Y-g.Y) < s.cfg.MinFrontierSpacingCM
			}) {
				continue
			}
			taken = append(taken, g)
			if !yield(g) {
				return
			}
		}
	}
}

// rank orders cells by distance from start, dropping unreachable ones.
func (s *Space) rank(f *Frontier, start spatialmath.Pose2D, cells []gridmap.Cell) []Goal {
	dist := s.distanceFunc(f, start)
	goals := make([]Goal, 0, len(cells))
	for _, c := range cells {
		d := dist(c)
		if math.IsInf(d, 0) || math.IsNaN(d) {
			continue
		}
		goals = append(goals, s.newGoal(start, c, d))
	}
	// cells arrive in row-major order, so a stable sort keeps ties deterministic
	slices.SortStableFunc(goals, func(a, b Goal) int { return cmp.Compare(a.DistanceCM, b.DistanceCM) })
	return goals
}

func (s *Space) distanceFunc(f *Frontier, start spatialmath.Pose2D) func(gridmap.Cell) float64 {
	if s.cfg.Distance == Euclidean {
		return func(c gridmap.Cell) float64 {
			x, y := f.Bounds.CellToWorld(c)
			return math.Hypot(x-start.X, y-start.Y)
		}
	}
	startCell, ok := f.Bounds.WorldToCell(start.X, start.Y)
	if !ok {
		s.logger.Warnw("start outside the navigation grid, nothing is reachable", "start", start)
		return func(gridmap.Cell) float64 { return math.Inf(1) }
	}
	field := DistanceField(f.Traversable, startCell)
	res := f.Bounds.ResolutionCM
	return func(c gridmap.Cell) float64 {
		return field[c.Row*f.Bounds.Cols+c.Col] * res
	}
}

// GoalForInstance returns the traversable cell closest to the instance footprint on the ground
// plane, preferring cells nearer to start on ties. The goal heading points at the instance centroid.
func (s *Space) GoalForInstance(start spatialmath.Pose2D, inst *voxelmap.Instance) (Goal, error) {
	f, err := s.GetFrontier()
	if err != nil {
		return Goal{}, err
	}
	g, err := s.goalNearBox(f, start, inst.Min.X, inst.Min.Y, inst.Max.X, inst.Max.Y)
	if err != nil {
		return Goal{}, errors.Wrapf(err, "instance %d", inst.ID)
	}
	// face the object rather than the direction of travel
	center := inst.Centroid()
	if g.X != center.X || g.Y != center.Y {
		g.Theta = math.Atan2(center.Y-g.Y, center.X-g.X)
	}
	return g, nil
}

// GoalNear returns the traversable cell closest to a world point.
func (s *Space) GoalNear(start spatialmath.Pose2D, x, y float64) (Goal, error) {
	f, err := s.GetFrontier()
	if err != nil {
		return Goal{}, err
	}
	return s.goalNearBox(f, start, x, y, x, y)
}

func (s *Space) goalNearBox(f *Frontier, start spatialmath.Pose2D, minX, minY, maxX, maxY float64) (Goal, error) {
	dist := s.distanceFunc(f, start)
	best := Goal{DistanceCM: math.Inf(1)}
	bestToBox := math.Inf(1)
	for _, c := range f.Traversable.Cells() {
		d := dist(c)
		if math.IsInf(d, 0) {
			continue
		}
		x, y := f.Bounds.CellToWorld(c)
		toBox := math.Hypot(x-clamp(x, minX, maxX), y-clamp(y, minY, maxY))
		if toBox < bestToBox || (toBox == bestToBox && d < best.DistanceCM) {
			best = s.newGoal(start, c, d)
			bestToBox = toBox
		}
	}
	if math.IsInf(bestToBox, 1) {
		return Goal{}, ErrNoGoal
	}
	return best, nil
}

func clamp(v, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, v))
}

// DistanceField returns, for every cell, the length in cells of the shortest 8-connected path from
// start through traversable cells, or +Inf when unreachable. Diagonal steps may not cut the corner
// of a blocked cell. The start cell is always expanded even when it is not traversable itself.
func DistanceField(traversable *gridmap.Mask, start gridmap.Cell) []float64 {
	dist := make([]float64, traversable.Rows()*traversable.Cols())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	if !traversable.InBounds(start) {
		return dist
	}
	g := gridmap.NewGraph(traversable)
	origin := g.NodeOf(start)
	tree := path.DijkstraFrom(origin, g)
	for i := range dist {
		dist[i] = tree.WeightTo(int64(i))
	}
	dist[origin.ID()] = 0
	return dist
}
