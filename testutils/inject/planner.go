// Package inject provides fakes whose behavior tests override through Func fields. A nil Func
// field falls through to the embedded implementation.
package inject

import (
	"context"

	"go.uber.org/atomic"

	"go.viam.com/voxelnav/gridmap"
	"go.viam.com/voxelnav/motionplan"
)

// Planner is an injectable motion planner.
type Planner struct {
	motionplan.Planner
	PlanFunc func(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error)

	calls atomic.Int64
}

// Plan calls the injected PlanFunc or the real variant.
func (p *Planner) Plan(ctx context.Context, start, goal gridmap.Cell, traversable *gridmap.Mask) ([]gridmap.Cell, error) {
	p.calls.Add(1)
	if p.PlanFunc == nil {
		return p.Planner.Plan(ctx, start, goal, traversable)
	}
	return p.PlanFunc(ctx, start, goal, traversable)
}

// Calls returns how many times Plan was called.
func (p *Planner) Calls() int {
	return int(p.calls.Load())
}
