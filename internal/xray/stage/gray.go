package stage

import (
	"image"
	"math"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

// through8Bit runs fn on the display form of img and renormalizes the result,
// the boundary every filter shares.
func through8Bit(img *xray.Image, fn func(src *image.Gray) *image.Gray) (*xray.Image, error) {
	if img.Empty() {
		return nil, xray.ErrEmptyImage
	}
	return xray.NormalizeGray(fn(img.Gray())), nil
}

// grayFromRGBA keeps the red channel; bild promotes gray input to RGBA with
// equal channels.
func grayFromRGBA(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y)]
		}
	}
	return out
}

// reflect101 mirrors an out-of-range index without repeating the edge sample
// (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return uint8(v)
	}
}
