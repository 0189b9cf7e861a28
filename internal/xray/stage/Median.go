package stage

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type MedianStage struct {
	Radius float64
}

func (s *MedianStage) Name() string {
	return Median.String()
}

// Process replaces every pixel with the median of its neighbourhood, which
// removes isolated impulses while keeping edges
func (s *MedianStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, func(src *image.Gray) *image.Gray {
		return grayFromRGBA(effect.Median(src, s.Radius))
	})
}
