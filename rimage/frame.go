package rimage

import (
	"image"
	"time"

	"go.viam.com/voxelnav/pointcloud"
)

// Frame is a preprocessed observation at the configured frame size.
type Frame struct {
	Width  int
	Height int
	// RGB is the downscaled color image.
	RGB *image.NRGBA
	// DepthCM is row-major depth in centimeters with saturated readings replaced.
	DepthCM []float32
	// Categories holds the working-vocabulary category id of every pixel.
	Categories    []int32
	NumCategories int
	// SemanticVis paints informative categories with the palette over the RGB image.
	SemanticVis *image.NRGBA

	HasGoal  bool
	GoalID   int
	GoalName string

	Timestamp time.Time
	Stats     FrameStats
}

// Tensor is a dense channel-major [channels, height, width] array.
type Tensor struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
}

// At returns the value at (channel, row, col).
func (t *Tensor) At(c, r, col int) float32 {
	return t.Data[(c*t.Height+r)*t.Width+col]
}

// Tensor stacks RGB (0-255), depth (cm), and the one-hot semantic channels into a
// [3 + 1 + NumCategories, Height, Width] tensor.
func (f *Frame) Tensor() *Tensor {
	plane := f.Width * f.Height
	channels := 4 + f.NumCategories
	t := &Tensor{Channels: channels, Height: f.Height, Width: f.Width, Data: make([]float32, channels*plane)}
	for r := 0; r < f.Height; r++ {
		for c := 0; c < f.Width; c++ {
			i := r*f.Width + c
			px := f.RGB.NRGBAAt(f.RGB.Rect.Min.X+c, f.RGB.Rect.Min.Y+r)
			t.Data[i] = float32(px.R)
			t.Data[plane+i] = float32(px.G)
			t.Data[2*plane+i] = float32(px.B)
			t.Data[3*plane+i] = f.DepthCM[i]
			if cat := int(f.Categories[i]); cat >= 0 && cat < f.NumCategories {
				t.Data[(4+cat)*plane+i] = 1
			}
		}
	}
	return t
}

// DepthImage exposes the depth and semantic channels for point-cloud projection.
func (f *Frame) DepthImage() pointcloud.DepthImage {
	return pointcloud.DepthImage{
		Width:   f.Width,
		Height:  f.Height,
		DepthCM: f.DepthCM,
		Labels:  f.Categories,
	}
}
