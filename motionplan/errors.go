package motionplan

import "github.com/pkg/errors"

var (
	// ErrPlannerFailed is returned when no path connects the start to any attempted goal.
	ErrPlannerFailed = errors.New("motion planner failed to find path")
	// ErrNoFrontier is returned when the map has no frontier left to explore.
	ErrNoFrontier = errors.New("no frontier to explore")
)

// NewPlannerFailedError wraps ErrPlannerFailed with the reason a single plan failed.
func NewPlannerFailedError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrPlannerFailed, format, args...)
}
