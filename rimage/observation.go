// Package rimage turns raw RGB-D(+semantic) observations into fixed-shape frames: depth rescaled to
// centimeters, a per-pixel semantic channel, optional integer downscaling, and the multi-channel
// tensor and visualization consumed by the map and the agent loop.
package rimage

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

// ErrShapeMismatch is returned when an observation's rasters do not agree with each other or with
// the configured frame size.
var ErrShapeMismatch = errors.New("observation shape mismatch")

// Observation is one raw sensor reading from the simulator or robot driver.
type Observation struct {
	// RGB is the color image at the environment resolution.
	RGB *image.NRGBA
	// Depth is row-major normalized depth in [0, 1], the same size as RGB.
	Depth []float32
	// Semantic optionally holds ground-truth instance ids per pixel.
	Semantic []int32
	// GPS is the position reading in sensor units with the sensor's axis convention.
	GPS [2]float64
	// Compass is the heading in radians.
	Compass float64
	// ObjectGoal is the raw object-goal id when the task provides one.
	ObjectGoal *int
	Timestamp  time.Time
}

// Size returns the image width and height.
func (o *Observation) Size() (int, int) {
	if o.RGB == nil {
		return 0, 0
	}
	b := o.RGB.Bounds()
	return b.Dx(), b.Dy()
}

// Validate checks that the rasters agree in size.
func (o *Observation) Validate() error {
	if o == nil || o.RGB == nil {
		return errors.Wrap(ErrShapeMismatch, "missing rgb image")
	}
	w, h := o.Size()
	if w == 0 || h == 0 {
		return errors.Wrap(ErrShapeMismatch, "empty rgb image")
	}
	if len(o.Depth) != w*h {
		return errors.Wrapf(ErrShapeMismatch, "depth has %d values for a %dx%d image", len(o.Depth), w, h)
	}
	if len(o.Semantic) != 0 && len(o.Semantic) != w*h {
		return errors.Wrapf(ErrShapeMismatch, "semantic has %d values for a %dx%d image", len(o.Semantic), w, h)
	}
	return nil
}
