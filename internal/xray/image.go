package xray

import (
	"errors"
	"image"
)

// Epsilon guards the min-max denominator against constant-valued images.
const Epsilon = 1e-8

var ErrEmptyImage = errors.New("image has no pixels")

// Image is a single-channel image in normalized form: row-major samples,
// nominally in [0, 1]. Noise injection may leave samples outside that range;
// they are clipped whenever the image is converted to display form.
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

func New(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

func (img *Image) Empty() bool {
	return img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Width*img.Height
}

func (img *Image) At(x, y int) float64 {
	return img.Pix[y*img.Width+x]
}

func (img *Image) Clone() *Image {
	out := New(img.Width, img.Height)
	copy(out.Pix, img.Pix)
	return out
}

// Normalize01 min-max scales pix into [0, 1]. A constant input maps to all
// zeros rather than dividing by zero.
func Normalize01(pix []float64) []float64 {
	out := make([]float64, len(pix))
	if len(pix) == 0 {
		return out
	}
	mn, mx := pix[0], pix[0]
	for _, v := range pix[1:] {
		mn = min(mn, v)
		mx = max(mx, v)
	}
	scale := mx - mn + Epsilon
	for i, v := range pix {
		out[i] = (v - mn) / scale
	}
	return out
}

// NormalizeGray lifts an 8-bit plane into normalized form using min-max
// scaling, which is how every stage hands its result back to the pipeline.
func NormalizeGray(g *image.Gray) *Image {
	img := FromGray(g)
	img.Pix = Normalize01(img.Pix)
	return img
}

// FromGray rescales an 8-bit plane to [0, 1] by dividing by 255, the exact
// inverse of Gray up to quantization.
func FromGray(g *image.Gray) *Image {
	b := g.Bounds()
	img := New(b.Dx(), b.Dy())
	for y := 0; y < img.Height; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < img.Width; x++ {
			img.Pix[y*img.Width+x] = float64(row[x]) / 255
		}
	}
	return img
}

// Gray converts to display form: clip to [0, 1], scale to [0, 255] and
// truncate.
func (img *Image) Gray() *image.Gray {
	g := image.NewGray(img.Bounds())
	for i, v := range img.Pix[:img.Width*img.Height] {
		g.Pix[i] = uint8(clip01(v) * 255)
	}
	return g
}

func clip01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
