// Package semantic maps dataset-specific instance and category ids onto a fixed working
// vocabulary, and provides the render palette and one-hot encoding consumed by the map.
//
// Every vocabulary ends with a reserved "other" category. Unknown or unmapped ids resolve to it,
// and downstream consumers treat it as non-informative.
package semantic

import (
	"strings"

	"github.com/pkg/errors"
)

// OtherCategory is the name of the reserved catch-all category.
const OtherCategory = "other"

// ErrUnsupportedVocabulary is returned for dataset and vocabulary combinations with no mapping.
var ErrUnsupportedVocabulary = errors.New("unsupported semantic vocabulary")

// Vocabulary is a working category set.
type Vocabulary string

// The known vocabularies. LongtailIndoor is declared so configurations naming it fail with a clear
// error instead of an unknown-value one.
const (
	CocoIndoor     Vocabulary = "coco_indoor"
	MukulIndoor    Vocabulary = "mukul_indoor"
	LongtailIndoor Vocabulary = "longtail_indoor"
)

// Dataset identifies the episode source, which fixes the raw id space.
type Dataset string

// The known datasets.
const (
	HM3D         Dataset = "hm3d"
	Floorplanner Dataset = "floorplanner"
)

// ParseVocabulary resolves a configured vocabulary name.
func ParseVocabulary(s string) (Vocabulary, error) {
	switch v := Vocabulary(strings.ToLower(strings.TrimSpace(s))); v {
	case CocoIndoor, MukulIndoor, LongtailIndoor:
		return v, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedVocabulary, "unknown vocabulary %q", s)
	}
}

// ParseDataset resolves a configured dataset name.
func ParseDataset(s string) (Dataset, error) {
	switch d := Dataset(strings.ToLower(strings.TrimSpace(s))); d {
	case HM3D, Floorplanner:
		return d, nil
	default:
		return "", errors.Errorf("unknown dataset %q", s)
	}
}

var cocoIndoorCategories = []string{
	"chair",
	"couch",
	"potted plant",
	"bed",
	"toilet",
	"tv",
	"dining-table",
	"oven",
	"sink",
	"refrigerator",
	"book",
	"clock",
	"vase",
	"cup",
	"bottle",
	OtherCategory,
}

var mukulIndoorCategories = []string{
	"alarm_clock",
	"bathtub",
	"bed",
	"book",
	"bottle",
	"bowl",
	"cabinet",
	"carpet",
	"chair",
	"chest_of_drawers",
	"couch",
	"cushion",
	"drinkware",
	"fireplace",
	"fridge",
	"laptop",
	"oven",
	"picture",
	"plate",
	"potted_plant",
	"shelves",
	"shoes",
	"shower",
	"sink",
	"stool",
	"table",
	"table_lamp",
	"toaster",
	"toilet",
	"tv",
	"vase",
	"wardrobe",
	"washer_dryer",
	OtherCategory,
}

// hm3dGoals lists the HM3D object-goal categories in raw goal id order.
var hm3dGoals = []string{"chair", "bed", "potted plant", "toilet", "tv", "couch"}

// hm3dAliases maps HM3D raw category names onto coco_indoor names.
var hm3dAliases = map[string]string{
	"sofa":          "couch",
	"plant":         "potted plant",
	"tv_monitor":    "tv",
	"television":    "tv",
	"table":         "dining-table",
	"dining table":  "dining-table",
	"fridge":        "refrigerator",
	"books":         "book",
	"flower vase":   "vase",
	"wall clock":    "clock",
	"kitchen oven":  "oven",
	"bathroom sink": "sink",
}

// floorplannerAliases maps Floorplanner raw category names onto mukul_indoor names.
var floorplannerAliases = map[string]string{
	"sofa":         "couch",
	"refrigerator": "fridge",
	"plant":        "potted_plant",
	"lamp":         "table_lamp",
	"dresser":      "chest_of_drawers",
	"cup":          "drinkware",
	"glass":        "drinkware",
	"mug":          "drinkware",
	"tv_monitor":   "tv",
	"shelf":        "shelves",
	"rug":          "carpet",
	"washer":       "washer_dryer",
	"dryer":        "washer_dryer",
}
