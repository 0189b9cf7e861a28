package cmd

import (
	"context"
	"time"

	"github.com/rm-hull/xray-enhancer/internal/enhance"
	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
	"github.com/rs/zerolog/log"
)

// PipelineCheck runs every filter over a small gradient so /healthz fails
// when the configured backend cannot process images.
type PipelineCheck struct {
	Backend stage.Backend
}

func (p *PipelineCheck) Name() string {
	return "pipeline"
}

func (p *PipelineCheck) Pass() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	probe := xray.New(32, 32)
	for i := range probe.Pix {
		probe.Pix[i] = float64(i%probe.Width) / float64(probe.Width-1)
	}

	_, err := enhance.Run(ctx, probe, enhance.Options{
		Filters: stage.NewSet(stage.Order...),
		Backend: p.Backend,
	})
	if err != nil {
		log.Error().Err(err).Msg("pipeline health check failed")
		return false
	}
	return true
}
