package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/voxelnav/spatialmath"
)

// DepthImage is a row-major depth raster in centimeters along the optical axis, with an optional
// per-pixel category label.
type DepthImage struct {
	Width   int
	Height  int
	DepthCM []float32
	Labels  []int32
}

// Validate checks the raster sizes.
func (d DepthImage) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return errors.Errorf("invalid depth image size %dx%d", d.Width, d.Height)
	}
	if len(d.DepthCM) != d.Width*d.Height {
		return errors.Errorf("depth has %d values for a %dx%d image", len(d.DepthCM), d.Width, d.Height)
	}
	if len(d.Labels) != 0 && len(d.Labels) != len(d.DepthCM) {
		return errors.Errorf("labels have %d values for %d depth pixels", len(d.Labels), len(d.DepthCM))
	}
	return nil
}

// FromDepth projects every valid depth pixel into a body-frame point. Pixels with non-positive,
// non-finite, or out-of-range depth are skipped, which also drops the out-of-range replacement
// values the preprocessor writes for saturated readings. A stride above 1 subsamples the raster.
func FromDepth(
	img DepthImage,
	intrinsics *spatialmath.PinholeCameraIntrinsics,
	extrinsics *spatialmath.CameraExtrinsics,
	maxRangeCM float64,
	stride int,
) ([]r3.Vector, []int32, error) {
	if err := img.Validate(); err != nil {
		return nil, nil, err
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, nil, err
	}
	if intrinsics.Width != img.Width || intrinsics.Height != img.Height {
		return nil, nil, errors.Errorf("depth dimension and intrinsics don't match Depth(%d,%d) != Intrinsics(%d,%d)",
			img.Width, img.Height, intrinsics.Width, intrinsics.Height)
	}
	if maxRangeCM <= 0 {
		return nil, nil, errors.Errorf("max range must be positive, got %v", maxRangeCM)
	}
	if stride < 1 {
		stride = 1
	}

	var camera []r3.Vector
	var labels []int32
	for v := 0; v < img.Height; v += stride {
		for u := 0; u < img.Width; u += stride {
			idx := v*img.Width + u
			z := float64(img.DepthCM[idx])
			if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 || z > maxRangeCM {
				continue
			}
			x, y, z := intrinsics.PixelToPoint(float64(u), float64(v), z)
			camera = append(camera, r3.Vector{X: x, Y: y, Z: z})
			if len(img.Labels) != 0 {
				labels = append(labels, img.Labels[idx])
			}
		}
	}
	return extrinsics.CameraToBody(camera), labels, nil
}
