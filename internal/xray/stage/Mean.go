package stage

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type MeanStage struct {
	Radius int
}

func (s *MeanStage) Name() string {
	return Mean.String()
}

// Process applies a box blur; Radius 1 gives the 3x3 window
func (s *MeanStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, func(src *image.Gray) *image.Gray {
		return boxBlur(src, s.Radius)
	})
}

func boxKernel(radius int) *convolution.Kernel {
	size := 2*max(radius, 0) + 1
	k := convolution.NewKernel(size, size)
	for i := range k.Matrix {
		k.Matrix[i] = 1
	}
	return k
}

func boxBlur(src *image.Gray, radius int) *image.Gray {
	return convolve(src, boxKernel(radius))
}
