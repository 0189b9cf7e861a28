package xray

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestSample(t *testing.T) {
	g := Sample()
	require.Equal(t, image.Rect(0, 0, Size, Size), g.Bounds())

	first := g.Pix[:Size]
	assert.Equal(t, uint8(0), first[0])
	assert.Equal(t, uint8(255), first[Size-1])
	assert.Equal(t, uint8(127), first[256], "x*255/511 truncated")
	for x := 1; x < Size; x++ {
		assert.GreaterOrEqual(t, first[x], first[x-1])
	}

	for y := 1; y < Size; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+Size]
		if !bytes.Equal(first, row) {
			t.Fatalf("row %d differs from row 0", y)
		}
	}
}

func TestLuminance(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	src.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	src.Set(1, 0, color.NRGBA{0, 255, 0, 255})
	src.Set(2, 0, color.NRGBA{0, 0, 255, 255})
	src.Set(3, 0, color.NRGBA{255, 255, 255, 255})

	g := Luminance(src)
	assert.Equal(t, []uint8{76, 150, 29, 255}, g.Pix)
}

func TestDecode(t *testing.T) {
	t.Run("colour png of any size becomes 512x512 gray", func(t *testing.T) {
		src := image.NewRGBA(image.Rect(0, 0, 300, 200))
		for y := 0; y < 200; y++ {
			for x := 0; x < 300; x++ {
				src.Set(x, y, color.RGBA{uint8(x % 256), uint8(y), 128, 255})
			}
		}

		g, err := Decode(encodePNG(t, src))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, Size, Size), g.Bounds())
	})

	t.Run("jpeg", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 64, 64))
		for i := range src.Pix {
			src.Pix[i] = uint8(i % 256)
		}
		var buf bytes.Buffer
		require.NoError(t, jpeg.Encode(&buf, src, &jpeg.Options{Quality: 90}))

		g, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, Size, g.Bounds().Dx())
	})

	t.Run("512x512 gray is kept as is", func(t *testing.T) {
		g, err := Decode(encodePNG(t, Sample()))
		require.NoError(t, err)
		assert.Equal(t, Sample().Pix, g.Pix)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Decode(strings.NewReader("definitely not an image"))
		assert.ErrorIs(t, err, ErrDecode)
	})

	t.Run("oversized canvas is rejected before decoding", func(t *testing.T) {
		data := encodePNG(t, image.NewGray(image.Rect(0, 0, 1, 1))).Bytes()
		declareSize(data, 50000, 50000)

		_, err := Decode(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrDecode)
		assert.Contains(t, err.Error(), "50000x50000 exceeds")
	})
}

// declareSize rewrites the IHDR dimensions of an encoded PNG and fixes up the
// chunk checksum, leaving the pixel data as it was.
func declareSize(data []byte, width, height uint32) {
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
}

func TestSourceProvide(t *testing.T) {
	t.Run("sample", func(t *testing.T) {
		img, err := Source{UseSample: true}.Provide()
		require.NoError(t, err)
		assert.Equal(t, Size, img.Width)
		assert.Equal(t, Size, img.Height)
		assert.Equal(t, 0.0, img.At(0, 0))
		assert.InDelta(t, 1.0, img.At(Size-1, Size-1), 1e-6)
	})

	t.Run("upload wins over sample", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, Size, Size))
		for i := range src.Pix {
			src.Pix[i] = 255 - uint8(i%Size/2)
		}

		img, err := Source{Upload: encodePNG(t, src), UseSample: true}.Provide()
		require.NoError(t, err)
		assert.Greater(t, img.At(0, 0), img.At(Size-1, 0), "upload is a descending ramp")
	})

	t.Run("nothing to process", func(t *testing.T) {
		img, err := Source{}.Provide()
		assert.ErrorIs(t, err, ErrNoSource)
		assert.Nil(t, img)
	})

	t.Run("bad upload", func(t *testing.T) {
		_, err := Source{Upload: strings.NewReader("nope"), UseSample: true}.Provide()
		assert.ErrorIs(t, err, ErrDecode)
	})
}
