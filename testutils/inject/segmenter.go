package inject

import (
	"context"
	"image"

	"go.viam.com/voxelnav/semantic"
)

// Segmenter is an injectable semantic segmenter.
type Segmenter struct {
	semantic.Segmenter
	SegmentFunc func(ctx context.Context, rgb *image.NRGBA, depthCM []float32) ([]int32, error)
}

// Segment calls the injected SegmentFunc or the real variant.
func (s *Segmenter) Segment(ctx context.Context, rgb *image.NRGBA, depthCM []float32) ([]int32, error) {
	if s.SegmentFunc == nil {
		return s.Segmenter.Segment(ctx, rgb, depthCM)
	}
	return s.SegmentFunc(ctx, rgb, depthCM)
}
