package enhance

import (
	"context"
	"fmt"

	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
)

type Result struct {
	Original  *xray.Image
	Noisy     *xray.Image // nil unless noise was injected
	Processed *xray.Image
	Filters   []stage.Kind
	Noise     xray.NoiseKind
	// Frames holds original, noisy and every stage output when
	// Options.Walkthrough is set.
	Frames []*xray.Image
}

// Input is the image that entered the filter chain: the noisy one when noise
// was injected, the original otherwise.
func (r *Result) Input() *xray.Image {
	if r.Noisy != nil {
		return r.Noisy
	}
	return r.Original
}

type Stats struct {
	Original  xray.Stats  `json:"original"`
	Noisy     *xray.Stats `json:"noisy,omitempty"`
	Processed xray.Stats  `json:"processed"`
}

func (r *Result) Stats() Stats {
	stats := Stats{
		Original:  xray.Describe(r.Original),
		Processed: xray.Describe(r.Processed),
	}
	if r.Noisy != nil {
		noisy := xray.Describe(r.Noisy)
		stats.Noisy = &noisy
	}
	return stats
}

// Run injects the requested noise into src and pushes it through the selected
// filters. src is not modified.
func Run(ctx context.Context, src *xray.Image, opts Options) (*Result, error) {
	if src == nil {
		return nil, xray.ErrNoSource
	}
	if src.Empty() {
		return nil, xray.ErrEmptyImage
	}

	kinds := opts.Stages()
	stages, err := stage.Build(opts.Backend, kinds)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Original: src,
		Filters:  kinds,
		Noise:    opts.NoiseApplied(),
	}

	input := src
	if result.Noise != xray.NoiseNone {
		result.Noisy = xray.AddNoise(src, result.Noise, xray.NewRand(opts.Seed))
		input = result.Noisy
	}

	var observe func(xray.Stage, *xray.Image)
	if opts.Walkthrough {
		result.Frames = append(result.Frames, src)
		if result.Noisy != nil {
			result.Frames = append(result.Frames, result.Noisy)
		}
		observe = func(_ xray.Stage, out *xray.Image) {
			result.Frames = append(result.Frames, out)
		}
	}

	result.Processed, err = input.Trace(ctx, observe, stages...)
	if err != nil {
		return nil, fmt.Errorf("failed to run filter pipeline: %w", err)
	}

	return result, nil
}
