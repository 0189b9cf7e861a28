//go:build opencv

package stage

import (
	"math"
	"testing"

	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The OpenCV primitives and the pure Go stages should agree on average to
// within a few grey levels; border handling and rounding differ slightly.
func TestOpenCVMatchesBild(t *testing.T) {
	src := xray.NormalizeGray(grayRamp(96, 64))
	src.Pix[40*96+40] = 1
	src.Pix[20*96+70] = 0

	for _, k := range Order {
		t.Run(k.String(), func(t *testing.T) {
			cv, err := New(BackendOpenCV, k)
			require.NoError(t, err)
			native, err := New(BackendBild, k)
			require.NoError(t, err)

			a, err := cv.Process(src)
			require.NoError(t, err)
			b, err := native.Process(src)
			require.NoError(t, err)

			// ignore the outermost rows and columns
			var diff float64
			n := 0
			for y := 3; y < src.Height-3; y++ {
				for x := 3; x < src.Width-3; x++ {
					diff += math.Abs(a.At(x, y) - b.At(x, y))
					n++
				}
			}
			assert.Less(t, diff/float64(n), 3.0/255)
		})
	}
}

func TestParseBackendOpenCV(t *testing.T) {
	b, err := ParseBackend("opencv")
	require.NoError(t, err)
	assert.Equal(t, BackendOpenCV, b)
}
