package stage

import (
	"image"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type UnsharpMaskStage struct {
	Size       int
	Sigma      float64
	Amount     float64
	BlurWeight float64
}

func (s *UnsharpMaskStage) Name() string {
	return UnsharpMask.String()
}

// Process sharpens by subtracting a Gaussian blurred copy from a scaled
// original: Amount*src + BlurWeight*blur, saturated to 8 bits
func (s *UnsharpMaskStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, s.filter)
}

func (s *UnsharpMaskStage) filter(src *image.Gray) *image.Gray {
	blurred := gaussianBlur(src, s.Size, s.Sigma)
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			i := y*out.Stride + x
			out.Pix[i] = saturate(s.Amount*float64(row[x]) + s.BlurWeight*float64(blurred.Pix[i]))
		}
	}
	return out
}
