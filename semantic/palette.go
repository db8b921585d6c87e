package semantic

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// newPalette spreads n-1 hues evenly around the HCL wheel and appends white for "other".
func newPalette(n int) []color.NRGBA {
	if n <= 0 {
		return nil
	}
	out := make([]color.NRGBA, n)
	informative := n - 1
	for i := 0; i < informative; i++ {
		h := 360 * float64(i) / float64(informative)
		r, g, b := colorful.Hcl(h, 0.6, 0.65).Clamped().RGB255()
		out[i] = color.NRGBA{R: r, G: g, B: b, A: 255}
	}
	out[n-1] = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	return out
}
