package rimage

import (
	"image"

	"github.com/disintegration/imaging"
)

// downscaleFactor returns the integer factor taking the environment size to the frame size. Both
// axes must shrink by the same factor and land exactly on the frame size.
func downscaleFactor(envW, envH, frameW, frameH int) (int, bool) {
	if frameW <= 0 || frameH <= 0 {
		return 0, false
	}
	kh := envH / frameH
	kw := envW / frameW
	if kh != kw || kh < 1 {
		return 0, false
	}
	if frameH*kh != envH || frameW*kw != envW {
		return 0, false
	}
	return kh, true
}

// downscaleRGB resizes with a bilinear filter.
func downscaleRGB(img *image.NRGBA, k int) *image.NRGBA {
	if k == 1 {
		return imaging.Clone(img)
	}
	b := img.Bounds()
	return imaging.Resize(img, b.Dx()/k, b.Dy()/k, imaging.Linear)
}

// downscaleDepth bilinearly samples the depth raster at the centers of the output pixels, matching
// half-pixel aligned interpolation: src = (dst + 0.5) * k - 0.5.
func downscaleDepth(depth []float32, w, h, k int) []float32 {
	if k == 1 {
		return append([]float32(nil), depth...)
	}
	ow, oh := w/k, h/k
	out := make([]float32, ow*oh)
	for r := 0; r < oh; r++ {
		sy := (float64(r)+0.5)*float64(k) - 0.5
		y0, y1, fy := bracket(sy, h)
		for c := 0; c < ow; c++ {
			sx := (float64(c)+0.5)*float64(k) - 0.5
			x0, x1, fx := bracket(sx, w)
			top := float64(depth[y0*w+x0])*(1-fx) + float64(depth[y0*w+x1])*fx
			bottom := float64(depth[y1*w+x0])*(1-fx) + float64(depth[y1*w+x1])*fx
			out[r*ow+c] = float32(top*(1-fy) + bottom*fy)
		}
	}
	return out
}

// bracket returns the two source indices around s and the weight of the upper one, clamped to
// [0, n-1].
func bracket(s float64, n int) (int, int, float64) {
	if s <= 0 {
		return 0, 0, 0
	}
	i0 := int(s)
	if i0 >= n-1 {
		return n - 1, n - 1, 0
	}
	return i0, i0 + 1, s - float64(i0)
}

// downscaleNearest keeps the top-left sample of every k x k block.
func downscaleNearest(labels []int32, w, h, k int) []int32 {
	if k == 1 {
		return append([]int32(nil), labels...)
	}
	ow, oh := w/k, h/k
	out := make([]int32, ow*oh)
	for r := 0; r < oh; r++ {
		for c := 0; c < ow; c++ {
			out[r*ow+c] = labels[(r*k)*w+c*k]
		}
	}
	return out
}
