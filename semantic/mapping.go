package semantic

import (
	"context"
	"image"
	"image/color"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// InstanceAnnotation is the ground-truth category of one scene instance, supplied at episode reset.
type InstanceAnnotation struct {
	InstanceID   int32  `json:"instance_id"`
	CategoryName string `json:"category_name"`
}

// Segmenter predicts per-pixel working-vocabulary category ids from an RGB-D frame. It stands in
// for an external detector and bypasses the ground-truth instance lookup.
type Segmenter interface {
	Segment(ctx context.Context, rgb *image.NRGBA, depthCM []float32) ([]int32, error)
}

// Mapping resolves raw ids of one dataset into one working vocabulary. The instance lookup is
// scoped to an episode and rebuilt by ResetInstances.
type Mapping struct {
	dataset    Dataset
	vocabulary Vocabulary
	categories []string
	byName     map[string]int
	aliases    map[string]string
	goals      []string
	palette    []color.NRGBA

	instanceToCategory map[int32]int
}

// NewMapping returns the mapping for a dataset and vocabulary. Combinations without a mapping fail
// with ErrUnsupportedVocabulary.
func NewMapping(dataset Dataset, vocabulary Vocabulary) (*Mapping, error) {
	m := &Mapping{dataset: dataset, vocabulary: vocabulary}
	switch {
	case dataset == HM3D && vocabulary == CocoIndoor:
		m.categories = cocoIndoorCategories
		m.aliases = hm3dAliases
		m.goals = hm3dGoals
	case dataset == Floorplanner && vocabulary == MukulIndoor:
		m.categories = mukulIndoorCategories
		m.aliases = floorplannerAliases
		m.goals = mukulIndoorCategories[:len(mukulIndoorCategories)-1]
	default:
		return nil, errors.Wrapf(ErrUnsupportedVocabulary, "no mapping from dataset %q to vocabulary %q", dataset, vocabulary)
	}
	m.byName = make(map[string]int, len(m.categories))
	for i, name := range m.categories {
		m.byName[name] = i
	}
	m.palette = newPalette(len(m.categories))
	return m, nil
}

// Dataset returns the raw id space this mapping reads.
func (m *Mapping) Dataset() Dataset { return m.dataset }

// Vocabulary returns the working vocabulary.
func (m *Mapping) Vocabulary() Vocabulary { return m.vocabulary }

// NumCategories returns the vocabulary size including the trailing "other" category.
func (m *Mapping) NumCategories() int {
	return len(m.categories)
}

// OtherID returns the id of the reserved "other" category.
func (m *Mapping) OtherID() int {
	return len(m.categories) - 1
}

// Categories returns the category names in id order.
func (m *Mapping) Categories() []string {
	return append([]string(nil), m.categories...)
}

// IsInformative reports whether the id names a real category, i.e. is in range and not "other".
func (m *Mapping) IsInformative(id int) bool {
	return id >= 0 && id < m.OtherID()
}

// CategoryName returns the name for an id; out-of-range ids are "other".
func (m *Mapping) CategoryName(id int) string {
	if id < 0 || id >= len(m.categories) {
		return OtherCategory
	}
	return m.categories[id]
}

// CategoryID resolves a category name, accepting dataset aliases.
func (m *Mapping) CategoryID(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := m.aliases[key]; ok {
		key = alias
	}
	id, ok := m.byName[key]
	return id, ok
}

// MapGoalID maps a raw object-goal id to a working category id and name.
func (m *Mapping) MapGoalID(rawGoal int) (int, string, error) {
	if rawGoal < 0 || rawGoal >= len(m.goals) {
		return 0, "", errors.Errorf("goal id %d out of range for dataset %q (%d goals)", rawGoal, m.dataset, len(m.goals))
	}
	name := m.goals[rawGoal]
	return m.byName[name], name, nil
}

// GoalCategories returns the category names that can be object goals.
func (m *Mapping) GoalCategories() []string {
	return append([]string(nil), m.goals...)
}

// ResetInstances rebuilds the instance lookup from the episode's ground-truth annotations.
// Instances whose category is not in the vocabulary map to "other".
func (m *Mapping) ResetInstances(annotations []InstanceAnnotation) {
	m.instanceToCategory = lo.SliceToMap(annotations, func(a InstanceAnnotation) (int32, int) {
		if id, ok := m.CategoryID(a.CategoryName); ok {
			return a.InstanceID, id
		}
		return a.InstanceID, m.OtherID()
	})
}

// HasInstances reports whether an instance lookup is loaded for the current episode.
func (m *Mapping) HasInstances() bool {
	return m.instanceToCategory != nil
}

// MapInstance resolves a ground-truth instance id; unknown instances are "other".
func (m *Mapping) MapInstance(instanceID int32) (int, string) {
	id, ok := m.instanceToCategory[instanceID]
	if !ok {
		id = m.OtherID()
	}
	return id, m.categories[id]
}

// MapFrame resolves every pixel of a ground-truth instance frame.
func (m *Mapping) MapFrame(instances []int32) []int32 {
	out := make([]int32, len(instances))
	for i, inst := range instances {
		id, _ := m.MapInstance(inst)
		out[i] = int32(id)
	}
	return out
}

// OneHot returns the one-hot encoding of a category id; out-of-range ids encode as "other".
func (m *Mapping) OneHot(id int) []float32 {
	out := make([]float32, len(m.categories))
	if id < 0 || id >= len(m.categories) {
		id = m.OtherID()
	}
	out[id] = 1
	return out
}

// Palette returns one render color per category id; "other" is white.
func (m *Mapping) Palette() []color.NRGBA {
	return append([]color.NRGBA(nil), m.palette...)
}

// Color returns the render color for an id; out-of-range ids use the "other" color.
func (m *Mapping) Color(id int) color.NRGBA {
	if id < 0 || id >= len(m.palette) {
		id = m.OtherID()
	}
	return m.palette[id]
}
