package motionplan

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/logging"
)

// Planner finds a path between two cells of a traversability mask.
type Planner interface {
	// Plan returns the cells to visit from start to goal inclusive, or an error wrapping
	// ErrPlannerFailed when none exists.
	Plan(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error)
}

// default values for the grid planner.
const (
	// Number of node expansions after which planning gives up.
	defaultMaxExpansions = 200000

	// Check for cancellation every this many expansions.
	ctxCheckInterval = 1024
)

// AStarConfig configures the grid planner.
type AStarConfig struct {
	// MaxExpansions bounds the search; zero uses the default.
	MaxExpansions int `json:"max_expansions"`
	// Smooth replaces grid steps by straight segments wherever the line of sight is clear.
	Smooth bool `json:"smooth"`
}

// DefaultAStarConfig returns a smoothing planner with the default expansion budget.
func DefaultAStarConfig() AStarConfig {
	return AStarConfig{MaxExpansions: defaultMaxExpansions, Smooth: true}
}

// AStarPlanner plans 8-connected paths with an octile heuristic. Diagonal steps may not cut the
// corner of a blocked cell. The start cell may lie outside the traversable area so a robot that
// drifted into the safety margin can still leave it.
type AStarPlanner struct {
	cfg    AStarConfig
	logger logging.Logger
}

// NewAStarPlanner returns a grid planner.
func NewAStarPlanner(cfg AStarConfig, logger logging.Logger) *AStarPlanner {
	if cfg.MaxExpansions <= 0 {
		cfg.MaxExpansions = defaultMaxExpansions
	}
	return &AStarPlanner{cfg: cfg, logger: logger}
}

// searchGraph bounds a grid search by an expansion budget and a context. Once either runs out
// every expansion yields nothing, which drains the search, and err records why.
type searchGraph struct {
	*gridmap.Graph
	ctx        context.Context
	budget     int
	expansions int
	err        error
}

func (g *searchGraph) From(id int64) graph.Nodes {
	if g.err != nil {
		return graph.Empty
	}
	g.expansions++
	if g.expansions > g.budget {
		g.err = NewPlannerFailedError("expansion budget of %d exhausted", g.budget)
		return graph.Empty
	}
	if g.expansions%ctxCheckInterval == 0 {
		if err := g.ctx.Err(); err != nil {
			g.err = err
			return graph.Empty
		}
	}
	return g.Graph.From(id)
}

func octile(a, b gridmap.Cell) float64 {
	dr := math.Abs(float64(a.Row - b.Row))
	dc := math.Abs(float64(a.Col - b.Col))
	return dr + dc + (math.Sqrt2-2)*math.Min(dr, dc)
}

// Plan implements Planner.
func (p *AStarPlanner) Plan(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error) {
	if traversable == nil {
		return nil, errors.New("no traversability mask")
	}
	if !traversable.InBounds(start) {
		return nil, NewPlannerFailedError("start %v outside the grid", start)
	}
	if !traversable.Get(goal) {
		return nil, NewPlannerFailedError("goal %v is not traversable", goal)
	}
	if start == goal {
		return []gridmap.Cell{start}, nil
	}

	g := &searchGraph{Graph: gridmap.NewGraph(traversable), ctx: ctx, budget: p.cfg.MaxExpansions}
	heuristic := func(x, y graph.Node) float64 {
		return octile(g.CellOf(x.ID()), g.CellOf(y.ID()))
	}
	tree, expanded := path.AStar(g.NodeOf(start), g.NodeOf(goal), g, heuristic)
	if g.err != nil {
		return nil, g.err
	}
	nodes, _ := tree.To(g.NodeOf(goal).ID())
	if len(nodes) == 0 {
		return nil, NewPlannerFailedError("goal %v unreachable from %v", goal, start)
	}
	cells := make([]gridmap.Cell, len(nodes))
	for i, n := range nodes {
		cells[i] = g.CellOf(n.ID())
	}
	p.logger.Debugw("planned path", "start", start, "goal", goal, "cells", len(cells), "expansions", expanded)
	if p.cfg.Smooth {
		cells = smoothPath(traversable, cells)
	}
	return cells, nil
}

// smoothPath keeps, from each anchor, the farthest later cell still in line of sight.
func smoothPath(traversable *gridmap.Mask, route []gridmap.Cell) []gridmap.Cell {
	if len(route) < 3 {
		return route
	}
	out := []gridmap.Cell{route[0]}
	anchor := 0
	for anchor < len(route)-1 {
		next := anchor + 1
		for j := len(route) - 1; j > anchor+1; j-- {
			if lineOfSight(traversable, route[anchor], route[j]) {
				next = j
				break
			}
		}
		out = append(out, route[next])
		anchor = next
	}
	return out
}

// lineOfSight walks every cell the segment between two cell centers passes through and reports
// whether all of them, apart from the first, are traversable. A segment passing exactly through a
// corner needs both cells beside the corner.
func lineOfSight(traversable *gridmap.Mask, a, b gridmap.Cell) bool {
	dr, dc := b.Row-a.Row, b.Col-a.Col
	nr, nc := absInt(dr), absInt(dc)
	sr, sc := signInt(dr), signInt(dc)
	r, c := a.Row, a.Col
	for ir, ic := 0, 0; ir < nr || ic < nc; {
		lhs := (1 + 2*ir) * nc
		rhs := (1 + 2*ic) * nr
		switch {
		case lhs == rhs:
			if !traversable.Get(gridmap.Cell{Row: r + sr, Col: c}) || !traversable.Get(gridmap.Cell{Row: r, Col: c + sc}) {
				return false
			}
			r += sr
			c += sc
			ir++
			ic++
		case lhs < rhs:
			r += sr
			ir++
		default:
			c += sc
			ic++
		}
		if !traversable.Get(gridmap.Cell{Row: r, Col: c}) {
			return false
		}
	}
	return true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
