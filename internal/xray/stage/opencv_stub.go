//go:build !opencv

package stage

import (
	"fmt"

	"github.com/rm-hull/xray-enhancer/internal/xray"
)

const openCVAvailable = false

func newOpenCV(k Kind) (xray.Stage, error) {
	return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, BackendOpenCV)
}
