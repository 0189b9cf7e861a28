package stage

import (
	"image"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type HistogramEqualizationStage struct{}

func (s *HistogramEqualizationStage) Name() string {
	return HistogramEqualization.String()
}

// Process remaps intensities through the cumulative histogram so they spread
// across the full 0..255 range
func (s *HistogramEqualizationStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, equalize)
}

func histogram(src *image.Gray) (hist [256]int, total int) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := src.Pix[src.PixOffset(b.Min.X, y):src.PixOffset(b.Max.X, y)]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist, b.Dx() * b.Dy()
}

func equalize(src *image.Gray) *image.Gray {
	hist, total := histogram(src)

	first := 0
	for first < 255 && hist[first] == 0 {
		first++
	}

	var lut [256]uint8
	if hist[first] == total {
		// single intensity: every pixel keeps it
		for i := range lut {
			lut[i] = uint8(first)
		}
	} else {
		scale := 255 / float64(total-hist[first])
		sum := 0
		for i := first + 1; i < 256; i++ {
			sum += hist[i]
			lut[i] = saturate(float64(sum) * scale)
		}
	}

	return applyLUT(src, &lut)
}

func applyLUT(src *image.Gray, lut *[256]uint8) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = lut[row[x]]
		}
	}
	return out
}
