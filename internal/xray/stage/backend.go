package stage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

// Backend selects the implementation behind the filters.
type Backend string

const (
	// BackendBild is the pure Go implementation and the default.
	BackendBild Backend = "bild"
	// BackendOpenCV calls the OpenCV primitives through gocv. It is only
	// compiled in with the "opencv" build tag.
	BackendOpenCV Backend = "opencv"
)

var ErrBackendUnavailable = errors.New("filter backend not available in this build")

func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendBild:
		return BackendBild, nil
	case BackendOpenCV:
		if !openCVAvailable {
			return "", fmt.Errorf("%w: %s (rebuild with -tags opencv)", ErrBackendUnavailable, BackendOpenCV)
		}
		return BackendOpenCV, nil
	default:
		return "", fmt.Errorf("unknown backend %q", s)
	}
}

// New returns the stage for k with its fixed parameters.
func New(backend Backend, k Kind) (xray.Stage, error) {
	if !k.valid() {
		return nil, fmt.Errorf("unknown filter %s", k)
	}

	switch backend {
	case "", BackendBild:
		return newBild(k), nil
	case BackendOpenCV:
		return newOpenCV(k)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// Build returns the stages for kinds, in the order given.
func Build(backend Backend, kinds []Kind) ([]xray.Stage, error) {
	stages := make([]xray.Stage, 0, len(kinds))
	for _, k := range kinds {
		s, err := New(backend, k)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, nil
}

func newBild(k Kind) xray.Stage {
	switch k {
	case Mean:
		return &MeanStage{Radius: 1}
	case Median:
		return &MedianStage{Radius: 1}
	case Gaussian:
		return &GaussianStage{Size: 5, Sigma: 1}
	case Bilateral:
		return &BilateralStage{Diameter: 9, SigmaColor: 75, SigmaSpace: 75}
	case HistogramEqualization:
		return &HistogramEqualizationStage{}
	case CLAHE:
		return &CLAHEStage{ClipLimit: 2.0, TilesX: 8, TilesY: 8}
	default:
		return &UnsharpMaskStage{Size: 5, Sigma: 1, Amount: 1.5, BlurWeight: -0.5}
	}
}
