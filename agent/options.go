package agent

import (
	"go.viam.com/voxelnav/motionplan"
	"go.viam.com/voxelnav/semantic"
	"go.viam.com/voxelnav/voxelmap"
)

// options configures an Agent.
type options struct {
	segmenter semantic.Segmenter
	planner   motionplan.Planner
	voxelMap  *voxelmap.Map
}

// Option configures how an Agent is built.
type Option interface {
	apply(*options)
}

// funcOption wraps a function that modifies options into an implementation of the Option
// interface.
type funcOption struct {
	f func(*options)
}

func (fo *funcOption) apply(o *options) {
	fo.f(o)
}

func newFuncOption(f func(*options)) *funcOption {
	return &funcOption{f: f}
}

// WithSegmenter labels frames with a predicted segmentation instead of ground truth.
func WithSegmenter(s semantic.Segmenter) Option {
	return newFuncOption(func(o *options) {
		o.segmenter = s
	})
}

// WithPlanner replaces the grid A* planner.
func WithPlanner(p motionplan.Planner) Option {
	return newFuncOption(func(o *options) {
		o.planner = p
	})
}

// WithVoxelMap starts the agent on an existing map, such as a loaded snapshot. Reset still clears
// it.
func WithVoxelMap(m *voxelmap.Map) Option {
	return newFuncOption(func(o *options) {
		o.voxelMap = m
	})
}
