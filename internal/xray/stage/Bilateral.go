package stage

import (
	"image"
	"math"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type BilateralStage struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

func (s *BilateralStage) Name() string {
	return Bilateral.String()
}

// Process smooths the image while keeping edges: each neighbour inside the
// disc of the given Diameter is weighted both by its distance and by how far
// its intensity is from the centre pixel
func (s *BilateralStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, s.filter)
}

type tap struct {
	dx, dy int
	weight float64
}

func (s *BilateralStage) filter(src *image.Gray) *image.Gray {
	radius := s.Diameter / 2
	if radius < 1 {
		radius = 1
	}

	var colorWeight [256]float64
	colorCoeff := -0.5 / (s.SigmaColor * s.SigmaColor)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	spaceCoeff := -0.5 / (s.SigmaSpace * s.SigmaSpace)
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
		}
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	at := func(x, y int) int {
		return int(src.Pix[src.PixOffset(b.Min.X+reflect101(x, w), b.Min.Y+reflect101(y, h))])
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			centre := at(x, y)
			var sum, wsum float64
			for _, t := range taps {
				v := at(x+t.dx, y+t.dy)
				diff := v - centre
				if diff < 0 {
					diff = -diff
				}
				wt := t.weight * colorWeight[diff]
				sum += float64(v) * wt
				wsum += wt
			}
			out.Pix[y*out.Stride+x] = saturate(sum / wsum)
		}
	}
	return out
}
