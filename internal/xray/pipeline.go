package xray

import (
	"context"
	"fmt"
)

// Stage is one enhancement step. Process must not mutate its input.
type Stage interface {
	Name() string
	Process(img *Image) (*Image, error)
}

// Trace runs the stages in the order given and returns the final image. The
// receiver is left untouched. observe, when not nil, is invoked after every
// stage with that stage's output, which is how walkthroughs are built.
func (img *Image) Trace(ctx context.Context, observe func(stage Stage, out *Image), stages ...Stage) (*Image, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	current := img
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := stage.Process(current)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
		if observe != nil {
			observe(stage, next)
		}
		current = next
	}

	if current == img {
		return img.Clone(), nil
	}
	return current, nil
}
