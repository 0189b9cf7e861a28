package stage

import (
	"image"
	"math"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

type CLAHEStage struct {
	ClipLimit float64
	TilesX    int
	TilesY    int
}

func (s *CLAHEStage) Name() string {
	return CLAHE.String()
}

// Process equalizes each tile of a TilesX x TilesY grid separately, clipping
// every tile histogram at ClipLimit times its mean bin height so that flat
// regions do not amplify noise, then blends neighbouring tile mappings
// bilinearly to hide the seams
func (s *CLAHEStage) Process(img *xray.Image) (*xray.Image, error) {
	return through8Bit(img, s.apply)
}

func (s *CLAHEStage) apply(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tilesX, tilesY := max(s.TilesX, 1), max(s.TilesY, 1)

	// partial tiles are padded by reflection so every tile has the same area
	tileW := (w + tilesX - 1) / tilesX
	tileH := (h + tilesY - 1) / tilesY
	tileArea := tileW * tileH

	clipLimit := 0
	if s.ClipLimit > 0 {
		clipLimit = max(int(s.ClipLimit*float64(tileArea)/256), 1)
	}

	at := func(x, y int) uint8 {
		return src.Pix[src.PixOffset(b.Min.X+reflect101(x, w), b.Min.Y+reflect101(y, h))]
	}

	luts := make([][256]uint8, tilesX*tilesY)
	lutScale := 255 / float64(tileArea)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			var hist [256]int
			for y := ty * tileH; y < (ty+1)*tileH; y++ {
				for x := tx * tileW; x < (tx+1)*tileW; x++ {
					hist[at(x, y)]++
				}
			}
			if clipLimit > 0 {
				clipHistogram(&hist, clipLimit)
			}

			lut := &luts[ty*tilesX+tx]
			sum := 0
			for i := range hist {
				sum += hist[i]
				lut[i] = saturate(float64(sum) * lutScale)
			}
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	invTW, invTH := 1/float64(tileW), 1/float64(tileH)
	for y := 0; y < h; y++ {
		tyf := float64(y)*invTH - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1, ty2 = max(ty1, 0), min(ty2, tilesY-1)

		for x := 0; x < w; x++ {
			txf := float64(x)*invTW - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1, tx2 = max(tx1, 0), min(tx2, tilesX-1)

			v := at(x, y)
			top := float64(luts[ty1*tilesX+tx1][v])*(1-xa) + float64(luts[ty1*tilesX+tx2][v])*xa
			bottom := float64(luts[ty2*tilesX+tx1][v])*(1-xa) + float64(luts[ty2*tilesX+tx2][v])*xa
			out.Pix[y*out.Stride+x] = saturate(top*(1-ya) + bottom*ya)
		}
	}
	return out
}

// clipHistogram caps every bin at limit and spreads the excess evenly, with
// any remainder handed out at a regular stride.
func clipHistogram(hist *[256]int, limit int) {
	clipped := 0
	for i := range hist {
		if hist[i] > limit {
			clipped += hist[i] - limit
			hist[i] = limit
		}
	}

	batch := clipped / len(hist)
	residual := clipped - batch*len(hist)
	for i := range hist {
		hist[i] += batch
	}
	if residual > 0 {
		step := max(len(hist)/residual, 1)
		for i := 0; i < len(hist) && residual > 0; i += step {
			hist[i]++
			residual--
		}
	}
}
