package xray

import (
	"context"
	"image"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(w, h int) *Image {
	img := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*w+x] = float64(x) / float64(w-1)
		}
	}
	return img
}

func TestNormalize01(t *testing.T) {
	t.Run("spans the unit interval", func(t *testing.T) {
		pix := []float64{12, 40, 7, 250, 99, 7, 250}
		out := Normalize01(pix)

		require.Len(t, out, len(pix))
		for _, v := range out {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.Equal(t, 0.0, out[2])
		assert.Equal(t, 0.0, out[5])
		assert.InDelta(t, 1.0, out[3], 1e-9)
		assert.InDelta(t, 1.0, out[6], 1e-9)
		assert.Equal(t, []float64{12, 40, 7, 250, 99, 7, 250}, pix, "input must not be modified")
	})

	t.Run("handles values outside the unit interval", func(t *testing.T) {
		out := Normalize01([]float64{-0.2, 0.5, 1.3})
		assert.Equal(t, 0.0, out[0])
		assert.InDelta(t, 0.4667, out[1], 1e-4)
		assert.Equal(t, 1.5/(1.5+Epsilon), out[2])
	})

	t.Run("constant input yields zeros", func(t *testing.T) {
		out := Normalize01([]float64{0.7, 0.7, 0.7, 0.7})
		for _, v := range out {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			assert.Equal(t, 0.0, v)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Normalize01(nil))
	})
}

func TestNormalizeGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 1))
	g.Pix = []uint8{50, 100, 150}

	img := NormalizeGray(g)
	assert.Equal(t, 3, img.Width)
	assert.Equal(t, 1, img.Height)
	assert.Equal(t, 0.0, img.Pix[0])
	assert.InDelta(t, 0.5, img.Pix[1], 1e-6)
	assert.InDelta(t, 1.0, img.Pix[2], 1e-6)
}

func TestGrayClipsAndTruncates(t *testing.T) {
	img := &Image{Width: 5, Height: 1, Pix: []float64{-0.5, 0, 0.5, 1, 1.5}}
	g := img.Gray()
	assert.Equal(t, []uint8{0, 0, 127, 255, 255}, g.Pix)

	nan := &Image{Width: 1, Height: 1, Pix: []float64{math.NaN()}}
	assert.Equal(t, []uint8{0}, nan.Gray().Pix)
}

func TestDisplayRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	img := New(64, 64)
	for i := range img.Pix {
		img.Pix[i] = rng.Float64()
	}

	back := FromGray(img.Gray())
	require.Equal(t, img.Width, back.Width)
	require.Equal(t, img.Height, back.Height)
	for i := range img.Pix {
		assert.InDelta(t, img.Pix[i], back.Pix[i], 1.0/255)
	}
}

func TestFromGrayHonoursSubImageBounds(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range g.Pix {
		g.Pix[i] = uint8(i * 10)
	}
	sub := g.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	img := FromGray(sub)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.InDelta(t, 50.0/255, img.At(0, 0), 1e-12)
	assert.InDelta(t, 100.0/255, img.At(1, 1), 1e-12)
}

type addStage struct {
	name  string
	delta float64
}

func (s *addStage) Name() string { return s.name }

func (s *addStage) Process(img *Image) (*Image, error) {
	out := img.Clone()
	for i := range out.Pix {
		out.Pix[i] += s.delta
	}
	return out, nil
}

type failingStage struct{}

func (failingStage) Name() string { return "broken" }

func (failingStage) Process(*Image) (*Image, error) {
	return nil, assert.AnError
}

func TestPipeline(t *testing.T) {
	t.Run("runs stages in order without touching the input", func(t *testing.T) {
		img := ramp(8, 2)
		before := img.Clone()

		var seen []string
		out, err := img.Trace(context.Background(), func(s Stage, _ *Image) {
			seen = append(seen, s.Name())
		}, &addStage{"a", 1}, &addStage{"b", 2})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, seen)
		assert.InDelta(t, 3.0, out.At(0, 0), 1e-12)
		assert.Equal(t, before, img)
	})

	t.Run("no stages returns a copy", func(t *testing.T) {
		img := ramp(4, 4)
		out, err := img.Trace(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, img, out)
		assert.NotSame(t, img, out)
	})

	t.Run("stage errors are wrapped", func(t *testing.T) {
		_, err := ramp(4, 4).Trace(context.Background(), nil, failingStage{})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "stage broken failed")
	})

	t.Run("empty image", func(t *testing.T) {
		_, err := New(0, 0).Trace(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ramp(4, 4).Trace(ctx, nil, &addStage{"a", 1})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
