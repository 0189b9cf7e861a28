package enhance

import (
	"fmt"
	"strings"

	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
)

type Mode int

const (
	WithoutNoise Mode = iota
	WithNoiseDemo
)

func (m Mode) String() string {
	if m == WithNoiseDemo {
		return "with-noise-demo"
	}
	return "without-noise"
}

func (m Mode) Label() string {
	if m == WithNoiseDemo {
		return "With Noise Demo"
	}
	return "Without Noise"
}

// ParseMode accepts the slug or the display label. Empty means WithoutNoise.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	for _, m := range []Mode{WithoutNoise, WithNoiseDemo} {
		if s == "" || strings.EqualFold(s, m.String()) || strings.EqualFold(s, m.Label()) {
			return m, nil
		}
	}
	switch strings.ToLower(s) {
	case "noise", "demo", "noisy":
		return WithNoiseDemo, nil
	case "clean", "none":
		return WithoutNoise, nil
	}
	return WithoutNoise, fmt.Errorf("unknown mode %q", s)
}

// Options is everything one enhancement run depends on. It is passed by
// value and never modified by the runner.
type Options struct {
	Mode    Mode
	Noise   xray.NoiseKind
	Filters stage.Set
	// Preset replaces Filters with stage.Preset.
	Preset   bool
	Filename string
	Seed     uint64
	Backend  stage.Backend
	// Walkthrough keeps every intermediate image in Result.Frames.
	Walkthrough bool
}

// Stages lists the filters that will run, in application order.
func (o Options) Stages() []stage.Kind {
	return stage.Resolve(o.Filters, o.Preset)
}

// NoiseApplied reports the noise that will actually be injected; outside the
// noise demo mode the kind is ignored.
func (o Options) NoiseApplied() xray.NoiseKind {
	if o.Mode != WithNoiseDemo {
		return xray.NoiseNone
	}
	return o.Noise
}

func (o Options) DownloadName() string {
	return xray.SanitizeFilename(o.Filename)
}
