package gridmap

import (
	"image"
	"image/color"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ToImage renders the mask as a grayscale image with set cells white. Row 0 is drawn at the bottom
// so that world y points up in the picture.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.cols, m.rows))
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if m.data[r*m.cols+c] {
				img.SetGray(c, m.rows-1-r, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// Overlay composes several masks into one color image, later layers painted over earlier ones.
func Overlay(layers []*Mask, colors []color.Color) (*image.NRGBA, error) {
	if len(layers) == 0 {
		return nil, errors.New("no layers to overlay")
	}
	if len(colors) != len(layers) {
		return nil, errors.Errorf("got %d colors for %d layers", len(colors), len(layers))
	}
	base := layers[0]
	for _, l := range layers[1:] {
		if err := base.checkShape(l); err != nil {
			return nil, err
		}
	}
	img := imaging.New(base.cols, base.rows, color.Black)
	for i, l := range layers {
		for _, c := range l.Cells() {
			img.Set(c.Col, base.rows-1-c.Row, colors[i])
		}
	}
	return img, nil
}

// EncodePNG writes the image as PNG, upscaled by an integer factor with nearest-neighbor sampling so
// individual cells remain visible.
func EncodePNG(w io.Writer, img image.Image, scale int) error {
	if scale > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
	}
	return imaging.Encode(w, img, imaging.PNG)
}

// WritePNG writes the image to a PNG file.
func WritePNG(path string, img image.Image, scale int) error {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return EncodePNG(f, img, scale)
}
