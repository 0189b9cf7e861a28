package stage

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type GaussianStage struct {
	Size  int
	Sigma float64
}

func (s *GaussianStage) Name() string {
	return Gaussian.String()
}

// Process applies a Size x Size Gaussian blur with the given Sigma
func (s *GaussianStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, func(src *image.Gray) *image.Gray {
		return gaussianBlur(src, s.Size, s.Sigma)
	})
}

// gaussianKernel builds the separable size x size kernel with the same
// sampling as OpenCV's getGaussianKernel.
func gaussianKernel(size int, sigma float64) *convolution.Kernel {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}

	half := size / 2
	weights := make([]float64, size)
	for i := range weights {
		d := float64(i - half)
		weights[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}

	k := convolution.NewKernel(size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			k.Matrix[y*k.Width+x] = weights[y] * weights[x]
		}
	}
	return k
}

func gaussianBlur(src *image.Gray, size int, sigma float64) *image.Gray {
	return convolve(src, gaussianKernel(size, sigma))
}

// convolve applies the normalized kernel with clamped borders. bild truncates
// the weighted sum, so a bias of 0.5 turns that into rounding.
func convolve(src *image.Gray, k *convolution.Kernel) *image.Gray {
	out := convolution.Convolve(src, k.Normalized(), &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: false})
	return grayFromRGBA(out)
}
