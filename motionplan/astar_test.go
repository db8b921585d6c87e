package motionplan

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
)

func mustMask(t *testing.T, rows ...string) *gridmap.Mask {
	t.Helper()
	m, err := gridmap.FromStrings(rows...)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func rawPlanner(t *testing.T) *AStarPlanner {
	t.Helper()
	return NewAStarPlanner(AStarConfig{}, logging.NewTestLogger(t))
}

func TestAStarStraightLine(t *testing.T) {
	grid := mustMask(t, "######", "######")
	path, err := rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 0, Col: 5}, grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(path), test.ShouldEqual, 6)
	test.That(t, path[0], test.ShouldResemble, gridmap.Cell{})
	test.That(t, path[5], test.ShouldResemble, gridmap.Cell{Row: 0, Col: 5})

	smooth := NewAStarPlanner(DefaultAStarConfig(), logging.NewTestLogger(t))
	path, err = smooth.Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 0, Col: 5}, grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldResemble, []gridmap.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 5}})

	path, err = smooth.Plan(context.Background(), gridmap.Cell{Row: 1, Col: 1}, gridmap.Cell{Row: 1, Col: 1}, grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldResemble, []gridmap.Cell{{Row: 1, Col: 1}})
}

func TestAStarNoCornerCutting(t *testing.T) {
	grid := mustMask(t,
		"#.",
		"##",
	)
	path, err := rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 0, Col: 1}, grid)
	test.That(t, errors.Is(err, ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, path, test.ShouldBeNil)

	path, err = rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 1, Col: 1}, grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldResemble, []gridmap.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 1, Col: 1}})
}

func TestAStarAroundWall(t *testing.T) {
	grid := mustMask(t,
		"#######",
		"###.###",
		"###.###",
		"###.###",
		"#######",
	)
	start := gridmap.Cell{Row: 2, Col: 0}
	goal := gridmap.Cell{Row: 2, Col: 6}
	for _, smooth := range []bool{false, true} {
		p := NewAStarPlanner(AStarConfig{Smooth: smooth}, logging.NewTestLogger(t))
		path, err := p.Plan(context.Background(), start, goal, grid)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, path[0], test.ShouldResemble, start)
		test.That(t, path[len(path)-1], test.ShouldResemble, goal)
		for i := 1; i < len(path); i++ {
			test.That(t, grid.Get(path[i]), test.ShouldBeTrue)
			test.That(t, lineOfSight(grid, path[i-1], path[i]), test.ShouldBeTrue)
		}
		if smooth {
			test.That(t, len(path), test.ShouldBeLessThan, 7)
		} else {
			test.That(t, len(path), test.ShouldEqual, 7)
		}
	}
}

func TestAStarStartInsideMargin(t *testing.T) {
	grid := mustMask(t,
		".###",
		"####",
	)
	path, err := rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 0, Col: 3}, grid)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path[0], test.ShouldResemble, gridmap.Cell{})

	_, err = rawPlanner(t).Plan(context.Background(), gridmap.Cell{Row: 0, Col: 1}, gridmap.Cell{}, grid)
	test.That(t, errors.Is(err, ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not traversable")

	_, err = rawPlanner(t).Plan(context.Background(), gridmap.Cell{Row: 5}, gridmap.Cell{Row: 0, Col: 3}, grid)
	test.That(t, errors.Is(err, ErrPlannerFailed), test.ShouldBeTrue)

	_, err = rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func openGrid(rows, cols int) *gridmap.Mask {
	return gridmap.NewMask(rows, cols).Not()
}

func TestAStarBudgetAndCancel(t *testing.T) {
	grid := openGrid(60, 60)
	p := NewAStarPlanner(AStarConfig{MaxExpansions: 5}, logging.NewTestLogger(t))
	_, err := p.Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 59, Col: 59}, grid)
	test.That(t, errors.Is(err, ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "budget")

	// wall off the goal so the search has to exhaust the open area
	for r := 0; r < 60; r++ {
		grid.Set(gridmap.Cell{Row: r, Col: 50}, false)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = rawPlanner(t).Plan(ctx, gridmap.Cell{}, gridmap.Cell{Row: 59, Col: 59}, grid)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	_, err = rawPlanner(t).Plan(context.Background(), gridmap.Cell{}, gridmap.Cell{Row: 59, Col: 59}, grid)
	test.That(t, errors.Is(err, ErrPlannerFailed), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unreachable")
}

func TestLineOfSight(t *testing.T) {
	grid := mustMask(t,
		"####",
		"#.##",
		"####",
	)
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 0, Col: 0}, gridmap.Cell{Row: 0, Col: 3}), test.ShouldBeTrue)
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 0, Col: 0}, gridmap.Cell{Row: 2, Col: 2}), test.ShouldBeFalse)
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 1, Col: 0}, gridmap.Cell{Row: 1, Col: 3}), test.ShouldBeFalse)
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 2, Col: 0}, gridmap.Cell{Row: 0, Col: 3}), test.ShouldBeFalse)
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 0, Col: 2}, gridmap.Cell{Row: 2, Col: 3}), test.ShouldBeTrue)
	// the first cell is never checked
	test.That(t, lineOfSight(grid, gridmap.Cell{Row: 1, Col: 1}, gridmap.Cell{Row: 1, Col: 3}), test.ShouldBeTrue)
}
