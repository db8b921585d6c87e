package semantic

import (
	"image/color"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNewMapping(t *testing.T) {
	m, err := NewMapping(HM3D, CocoIndoor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumCategories(), test.ShouldEqual, 16)
	test.That(t, m.OtherID(), test.ShouldEqual, 15)
	test.That(t, m.CategoryName(m.OtherID()), test.ShouldEqual, OtherCategory)

	m, err = NewMapping(Floorplanner, MukulIndoor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.NumCategories(), test.ShouldEqual, 34)

	for _, combo := range []struct {
		d Dataset
		v Vocabulary
	}{
		{HM3D, LongtailIndoor},
		{HM3D, MukulIndoor},
		{Floorplanner, CocoIndoor},
	} {
		_, err := NewMapping(combo.d, combo.v)
		test.That(t, errors.Is(err, ErrUnsupportedVocabulary), test.ShouldBeTrue)
	}
}

func TestParseEnums(t *testing.T) {
	v, err := ParseVocabulary(" COCO_indoor ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, CocoIndoor)
	_, err = ParseVocabulary("imagenet")
	test.That(t, errors.Is(err, ErrUnsupportedVocabulary), test.ShouldBeTrue)

	d, err := ParseDataset("floorplanner")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, Floorplanner)
	_, err = ParseDataset("data/hm3d/v1")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMapGoalID(t *testing.T) {
	m, err := NewMapping(HM3D, CocoIndoor)
	test.That(t, err, test.ShouldBeNil)

	expected := []struct {
		id   int
		name string
	}{
		{0, "chair"},
		{3, "bed"},
		{2, "potted plant"},
		{4, "toilet"},
		{5, "tv"},
		{1, "couch"},
	}
	for raw, want := range expected {
		id, name, err := m.MapGoalID(raw)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, id, test.ShouldEqual, want.id)
		test.That(t, name, test.ShouldEqual, want.name)
	}
	_, _, err = m.MapGoalID(6)
	test.That(t, err, test.ShouldNotBeNil)

	fp, err := NewMapping(Floorplanner, MukulIndoor)
	test.That(t, err, test.ShouldBeNil)
	id, name, err := fp.MapGoalID(8)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, 8)
	test.That(t, name, test.ShouldEqual, "chair")
	_, _, err = fp.MapGoalID(fp.OtherID())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInstanceLookup(t *testing.T) {
	m, err := NewMapping(HM3D, CocoIndoor)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.HasInstances(), test.ShouldBeFalse)

	// before a reset everything is other
	id, name := m.MapInstance(7)
	test.That(t, id, test.ShouldEqual, m.OtherID())
	test.That(t, name, test.ShouldEqual, OtherCategory)

	m.ResetInstances([]InstanceAnnotation{
		{InstanceID: 1, CategoryName: "sofa"},
		{InstanceID: 2, CategoryName: "Chair"},
		{InstanceID: 3, CategoryName: "ceiling"},
	})
	test.That(t, m.HasInstances(), test.ShouldBeTrue)

	id, name = m.MapInstance(1)
	test.That(t, id, test.ShouldEqual, 1)
	test.That(t, name, test.ShouldEqual, "couch")
	id, _ = m.MapInstance(3)
	test.That(t, id, test.ShouldEqual, m.OtherID())
	id, _ = m.MapInstance(99)
	test.That(t, id, test.ShouldEqual, m.OtherID())

	test.That(t, m.MapFrame([]int32{2, 1, 0}), test.ShouldResemble, []int32{0, 1, 15})

	// a new episode drops the previous lookup
	m.ResetInstances([]InstanceAnnotation{{InstanceID: 1, CategoryName: "bed"}})
	id, _ = m.MapInstance(1)
	test.That(t, id, test.ShouldEqual, 3)
	id, _ = m.MapInstance(2)
	test.That(t, id, test.ShouldEqual, m.OtherID())
}

func TestOneHotAndPalette(t *testing.T) {
	m, err := NewMapping(HM3D, CocoIndoor)
	test.That(t, err, test.ShouldBeNil)

	hot := m.OneHot(2)
	test.That(t, hot, test.ShouldHaveLength, m.NumCategories())
	test.That(t, hot[2], test.ShouldEqual, float32(1))
	test.That(t, m.OneHot(-4)[m.OtherID()], test.ShouldEqual, float32(1))

	test.That(t, m.IsInformative(0), test.ShouldBeTrue)
	test.That(t, m.IsInformative(m.OtherID()), test.ShouldBeFalse)
	test.That(t, m.IsInformative(-1), test.ShouldBeFalse)

	palette := m.Palette()
	test.That(t, palette, test.ShouldHaveLength, m.NumCategories())
	test.That(t, palette[m.OtherID()], test.ShouldResemble, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	test.That(t, palette[0], test.ShouldNotResemble, palette[1])
	test.That(t, m.Color(100), test.ShouldResemble, palette[m.OtherID()])
}
