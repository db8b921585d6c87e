package gridmap

import (
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/simple"
)

// Graph is the implicit 8-connected graph of a traversability mask. Node ids are row-major cell
// indices. Edges lead into traversable cells only, with straight steps weighing 1 and diagonal
// steps sqrt(2); a diagonal step needs both cells beside the corner to be traversable. Any
// in-bounds cell may be a search origin, including one outside the traversable area.
//
// Graph satisfies traverse.Graph and path.Weighted, so it can be searched with the gonum path
// package directly.
type Graph struct {
	traversable *Mask
}

// NewGraph returns the graph of traversable.
func NewGraph(traversable *Mask) *Graph {
	return &Graph{traversable: traversable}
}

// NodeOf returns the node of a cell.
func (g *Graph) NodeOf(c Cell) graph.Node {
	return simple.Node(int64(c.Row*g.traversable.cols + c.Col))
}

// CellOf returns the cell of a node id.
func (g *Graph) CellOf(id int64) Cell {
	cols := int64(g.traversable.cols)
	return Cell{Row: int(id / cols), Col: int(id % cols)}
}

func (g *Graph) valid(id int64) bool {
	return id >= 0 && id < int64(len(g.traversable.data))
}

// From returns the nodes reachable in one step from id.
func (g *Graph) From(id int64) graph.Nodes {
	if !g.valid(id) {
		return graph.Empty
	}
	c := g.CellOf(id)
	var nodes []graph.Node
	for _, o := range eightOffsets {
		n := Cell{Row: c.Row + o.Row, Col: c.Col + o.Col}
		if _, ok := g.step(c, n); ok {
			nodes = append(nodes, g.NodeOf(n))
		}
	}
	if len(nodes) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(nodes)
}

// Edge returns the edge from uid to vid, or nil when vid is not one step away.
func (g *Graph) Edge(uid, vid int64) graph.Edge {
	if uid == vid {
		return nil
	}
	w, ok := g.Weight(uid, vid)
	if !ok {
		return nil
	}
	return simple.WeightedEdge{F: simple.Node(uid), T: simple.Node(vid), W: w}
}

// Weight returns the step length between two cells in cells.
func (g *Graph) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	if !g.valid(xid) || !g.valid(yid) {
		return math.Inf(1), false
	}
	return g.step(g.CellOf(xid), g.CellOf(yid))
}

func (g *Graph) step(from, to Cell) (float64, bool) {
	dr, dc := to.Row-from.Row, to.Col-from.Col
	if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
		return math.Inf(1), false
	}
	if !g.traversable.InBounds(from) || !g.traversable.Get(to) {
		return math.Inf(1), false
	}
	if dr == 0 || dc == 0 {
		return 1, true
	}
	if !g.traversable.Get(Cell{Row: from.Row + dr, Col: from.Col}) || !g.traversable.Get(Cell{Row: from.Row, Col: from.Col + dc}) {
		return math.Inf(1), false
	}
	return math.Sqrt2, true
}
