package xray

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	// extra decoders; imaging already registers png, jpeg, gif, bmp and tiff
	_ "golang.org/x/image/webp"
)

// Size is the edge length every source image is brought to.
const Size = 512

// MaxSourcePixels bounds the declared canvas of an encoded image so a small
// upload cannot force a huge allocation during decoding.
const MaxSourcePixels = 32 << 20

var (
	ErrNoSource = errors.New("no image source: upload a file or enable the sample image")
	ErrDecode   = errors.New("failed to decode image")
)

// Source describes where the input image comes from. An upload always wins;
// the sample is only used when there is no upload and UseSample is set.
type Source struct {
	Upload    io.Reader
	UseSample bool
}

// Provide resolves the source into a normalized image, or ErrNoSource when
// there is nothing to process.
func (s Source) Provide() (*Image, error) {
	switch {
	case s.Upload != nil:
		g, err := Decode(s.Upload)
		if err != nil {
			return nil, err
		}
		return NormalizeGray(g), nil
	case s.UseSample:
		return NormalizeGray(Sample()), nil
	default:
		return nil, ErrNoSource
	}
}

// Sample generates the baseline gradient: every row is a linear ramp from 0
// at the left edge to 255 at the right edge.
func Sample() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, Size, Size))
	row := make([]uint8, Size)
	for x := range row {
		row[x] = uint8(float64(x) * 255 / float64(Size-1))
	}
	for y := 0; y < Size; y++ {
		copy(g.Pix[y*g.Stride:], row)
	}
	return g
}

// Decode reads an encoded image, applies any EXIF orientation, converts it to
// 8-bit luma and resizes it to Size x Size. Images declaring more than
// MaxSourcePixels are rejected before any pixel data is decoded.
func Decode(r io.Reader) (*image.Gray, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, MaxSourcePixels)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %w", ErrDecode, ErrEmptyImage)
	}
	return Resize(Luminance(img), Size, Size), nil
}

// Luminance converts any image to 8-bit grayscale using ITU-R 601-2 luma
// weights, rounding the same way PIL's "L" conversion does.
func Luminance(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
		draw.Copy(out, image.Point{}, g, g.Bounds(), draw.Src, nil)
		return out
	}

	bounds := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// alpha is discarded, as a plain RGB conversion would
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			lum := (uint32(c.R)*19595 + uint32(c.G)*38470 + uint32(c.B)*7471 + 1<<15) >> 16
			out.Pix[out.PixOffset(x-bounds.Min.X, y-bounds.Min.Y)] = uint8(lum)
		}
	}
	return out
}

// Resize scales g to width x height with bilinear interpolation. Images that
// already have the requested size are returned as is.
func Resize(g *image.Gray, width, height int) *image.Gray {
	if g.Bounds().Dx() == width && g.Bounds().Dy() == height {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), g, g.Bounds(), draw.Src, nil)
	return out
}
