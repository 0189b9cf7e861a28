package xray

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

type NoiseKind int

const (
	NoiseNone NoiseKind = iota
	NoiseGaussian
	NoiseSaltPepper
	NoiseSpeckle
)

const (
	// NoiseVariance is used by the Gaussian and Speckle models.
	NoiseVariance = 0.01
	// NoiseAmount is the fraction of pixels hit by Salt & Pepper.
	NoiseAmount = 0.01
)

var noiseNames = map[NoiseKind]string{
	NoiseNone:       "none",
	NoiseGaussian:   "gaussian",
	NoiseSaltPepper: "salt-pepper",
	NoiseSpeckle:    "speckle",
}

var noiseLabels = map[NoiseKind]string{
	NoiseNone:       "None",
	NoiseGaussian:   "Gaussian",
	NoiseSaltPepper: "Salt & Pepper",
	NoiseSpeckle:    "Speckle",
}

// NoiseKinds lists every kind in presentation order.
var NoiseKinds = []NoiseKind{NoiseNone, NoiseGaussian, NoiseSaltPepper, NoiseSpeckle}

func (k NoiseKind) String() string {
	if name, ok := noiseNames[k]; ok {
		return name
	}
	return fmt.Sprintf("NoiseKind(%d)", int(k))
}

func (k NoiseKind) Label() string {
	return noiseLabels[k]
}

// ParseNoiseKind accepts either the slug ("salt-pepper") or the display label
// ("Salt & Pepper"), case-insensitively. An empty string means none.
func ParseNoiseKind(s string) (NoiseKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoiseNone, nil
	}
	for _, k := range NoiseKinds {
		if strings.EqualFold(s, noiseNames[k]) || strings.EqualFold(s, noiseLabels[k]) {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "s&p", "saltpepper", "salt_pepper":
		return NoiseSaltPepper, nil
	}
	return NoiseNone, fmt.Errorf("unknown noise kind %q", s)
}

// NewRand returns the deterministic source used for noise injection.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// AddNoise returns a copy of img with synthetic noise applied. Results are
// not clamped to [0, 1]; that happens at the display boundary.
func AddNoise(img *Image, kind NoiseKind, rng *rand.Rand) *Image {
	out := img.Clone()
	sigma := math.Sqrt(NoiseVariance)

	switch kind {
	case NoiseGaussian:
		for i, v := range out.Pix {
			out.Pix[i] = v + rng.NormFloat64()*sigma
		}
	case NoiseSaltPepper:
		for i := range out.Pix {
			if rng.Float64() >= NoiseAmount {
				continue
			}
			if rng.Float64() < 0.5 {
				out.Pix[i] = 1
			} else {
				out.Pix[i] = 0
			}
		}
	case NoiseSpeckle:
		for i, v := range out.Pix {
			out.Pix[i] = v + v*rng.NormFloat64()*sigma
		}
	}
	return out
}
