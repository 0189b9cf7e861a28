package xray

import (
	"image"
	"slices"

	"gonum.org/v1/gonum/stat"
)

type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// LocalContrast is the standard deviation inside MidRegion.
	LocalContrast float64 `json:"localContrast"`
}

// MidRegion is a 32x32 window in the middle of the gradient. It is centred on
// the first 8x8 CLAHE tile past the image centre rather than the centre
// itself, which falls on a tile seam where the interpolated LUTs blend.
func MidRegion(img *Image) image.Rectangle {
	cx := img.Width/2 + img.Width/16
	cy := img.Height/2 + img.Height/16
	return image.Rect(cx-16, cy-16, cx+16, cy+16).Intersect(img.Bounds())
}

func Describe(img *Image) Stats {
	if img.Empty() {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(img.Pix, nil)
	return Stats{
		Mean:          mean,
		StdDev:        std,
		Min:           slices.Min(img.Pix),
		Max:           slices.Max(img.Pix),
		LocalContrast: LocalContrast(img, MidRegion(img)),
	}
}

// LocalContrast is the standard deviation of the samples inside r.
func LocalContrast(img *Image, r image.Rectangle) float64 {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return 0
	}
	window := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		window = append(window, img.Pix[y*img.Width+r.Min.X:y*img.Width+r.Max.X]...)
	}
	return stat.StdDev(window, nil)
}
