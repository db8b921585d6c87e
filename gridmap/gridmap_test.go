package gridmap

import (
	"bytes"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/graph"
)

func mustMask(t *testing.T, rows ...string) *Mask {
	t.Helper()
	m, err := FromStrings(rows...)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestSquareBounds(t *testing.T) {
	b, err := NewSquareBounds(0, 0, 100, 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Rows, test.ShouldEqual, 20)
	test.That(t, b.Cols, test.ShouldEqual, 20)
	test.That(t, b.MinX, test.ShouldAlmostEqual, -50)
	test.That(t, b.MaxY(), test.ShouldAlmostEqual, 50)
	test.That(t, b.Validate(), test.ShouldBeNil)

	cell, ok := b.WorldToCell(0, 0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cell, test.ShouldResemble, Cell{Row: 10, Col: 10})

	cell, ok = b.WorldToCell(-50, 49.9)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cell, test.ShouldResemble, Cell{Row: 19, Col: 0})

	_, ok = b.WorldToCell(50, 0)
	test.That(t, ok, test.ShouldBeFalse)

	x, y := b.CellToWorld(Cell{Row: 10, Col: 10})
	test.That(t, x, test.ShouldAlmostEqual, 2.5)
	test.That(t, y, test.ShouldAlmostEqual, 2.5)

	_, err = NewSquareBounds(0, 0, 100, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewSquareBounds(0, 0, 1, 5)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Bounds{}.Validate(), test.ShouldNotBeNil)
}

func TestMaskOps(t *testing.T) {
	a := mustMask(t,
		"##..",
		"....",
	)
	b := mustMask(t,
		"#.#.",
		"....",
	)
	and, err := a.And(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, and.Cells(), test.ShouldResemble, []Cell{{0, 0}})

	or, err := a.Or(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, or.Count(), test.ShouldEqual, 3)

	diff, err := a.AndNot(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, diff.Cells(), test.ShouldResemble, []Cell{{0, 1}})

	test.That(t, a.Not().Count(), test.ShouldEqual, 6)
	test.That(t, a.Clone().Equal(a), test.ShouldBeTrue)
	test.That(t, a.Equal(b), test.ShouldBeFalse)
	test.That(t, NewMask(2, 2).Any(), test.ShouldBeFalse)

	_, err = a.And(NewMask(3, 3))
	test.That(t, err, test.ShouldNotBeNil)

	// out of range access is ignored
	a.Set(Cell{Row: 5, Col: 5}, true)
	test.That(t, a.Get(Cell{Row: -1, Col: 0}), test.ShouldBeFalse)
	test.That(t, a.Count(), test.ShouldEqual, 2)

	_, err = FromStrings("##", "#")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDilate(t *testing.T) {
	m := mustMask(t,
		".....",
		".....",
		"..#..",
		".....",
		".....",
	)
	test.That(t, m.Dilate(0).Equal(m), test.ShouldBeTrue)
	test.That(t, m.Dilate(1).String(), test.ShouldEqual, ""+
		".....\n"+
		"..#..\n"+
		".###.\n"+
		"..#..\n"+
		".....\n")
	test.That(t, m.Dilate(2).Count(), test.ShouldEqual, 13)
	test.That(t, m.DilateConnected(Eight).Count(), test.ShouldEqual, 9)
	test.That(t, m.Dilate(1).Erode(1).Equal(m), test.ShouldBeTrue)
}

func TestAdjacent(t *testing.T) {
	free := mustMask(t,
		"###.",
		"###.",
		"###.",
	)
	unknown := free.Not()

	four, err := free.Adjacent(unknown, Four)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, four.Cells(), test.ShouldResemble, []Cell{{0, 2}, {1, 2}, {2, 2}})

	diag := mustMask(t,
		"#.",
		".#",
	)
	empty := mustMask(t,
		"..",
		"..",
	)
	only := mustMask(t,
		"#.",
		"..",
	)
	eight, err := only.Adjacent(diag.Clone(), Eight)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, eight.Count(), test.ShouldEqual, 1)
	fourDiag, err := only.Adjacent(mustMask(t, "..", ".#"), Four)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fourDiag.Count(), test.ShouldEqual, 0)
	none, err := only.Adjacent(empty, Eight)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, none.Any(), test.ShouldBeFalse)

	_, err = ConnectivityFromInt(6)
	test.That(t, err, test.ShouldNotBeNil)
	conn, err := ConnectivityFromInt(8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conn, test.ShouldEqual, Eight)
}

func TestPNGExport(t *testing.T) {
	m := mustMask(t,
		"#..",
		"...",
	)
	img := m.ToImage()
	// row 0 is drawn at the bottom
	test.That(t, img.GrayAt(0, 1).Y, test.ShouldEqual, uint8(255))
	test.That(t, img.GrayAt(0, 0).Y, test.ShouldEqual, uint8(0))

	var buf bytes.Buffer
	test.That(t, EncodePNG(&buf, img, 4), test.ShouldBeNil)
	decoded, err := png.Decode(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Bounds().Dx(), test.ShouldEqual, 12)
	test.That(t, decoded.Bounds().Dy(), test.ShouldEqual, 8)

	overlay, err := Overlay([]*Mask{m, m.Not()}, []color.Color{color.White, color.NRGBA{R: 255, A: 255}})
	test.That(t, err, test.ShouldBeNil)
	r, _, _, _ := overlay.At(2, 0).RGBA()
	test.That(t, r, test.ShouldEqual, uint32(0xffff))
	_, err = Overlay([]*Mask{m}, nil)
	test.That(t, err, test.ShouldNotBeNil)

	path := filepath.Join(t.TempDir(), "mask.png")
	test.That(t, WritePNG(path, img, 1), test.ShouldBeNil)
}

func TestGraph(t *testing.T) {
	m := mustMask(t,
		".#.",
		"##.",
		"...",
	)
	g := NewGraph(m)
	origin := Cell{Row: 0, Col: 0}
	test.That(t, g.CellOf(g.NodeOf(Cell{Row: 2, Col: 1}).ID()), test.ShouldResemble, Cell{Row: 2, Col: 1})

	// the origin is blocked but may still be left
	var next []Cell
	for it := g.From(g.NodeOf(origin).ID()); it.Next(); {
		next = append(next, g.CellOf(it.Node().ID()))
	}
	test.That(t, next, test.ShouldResemble, []Cell{{Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}})

	w, ok := g.Weight(g.NodeOf(origin).ID(), g.NodeOf(Cell{Row: 1, Col: 1}).ID())
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, w, test.ShouldAlmostEqual, 1.4142135623730951)

	// (0,1) to (1,0) would cut the blocked corner at (0,0)
	_, ok = g.Weight(g.NodeOf(Cell{Row: 0, Col: 1}).ID(), g.NodeOf(Cell{Row: 1, Col: 0}).ID())
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, g.Edge(g.NodeOf(Cell{Row: 1, Col: 1}).ID(), g.NodeOf(Cell{Row: 0, Col: 2}).ID()), test.ShouldBeNil)
	test.That(t, g.Edge(g.NodeOf(Cell{Row: 0, Col: 1}).ID(), g.NodeOf(Cell{Row: 1, Col: 1}).ID()), test.ShouldNotBeNil)

	_, ok = g.Weight(g.NodeOf(origin).ID(), g.NodeOf(Cell{Row: 2, Col: 2}).ID())
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, g.From(-1) == graph.Empty, test.ShouldBeTrue)
}
