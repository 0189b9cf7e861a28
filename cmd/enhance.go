package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/rm-hull/xray-enhancer/internal"
	"github.com/rm-hull/xray-enhancer/internal/enhance"
	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rs/zerolog/log"
)

type EnhanceConfig struct {
	Input     string
	URL       string
	UseSample bool
	Output    string
	Animate   string
	Options   enhance.Options
}

// Enhance runs one enhancement from the command line and writes the PNG (and
// optionally the stage walkthrough) to disk.
func Enhance(ctx context.Context, cfg EnhanceConfig) error {
	return enhanceWith(ctx, cfg, internal.NewImageClient("xray-enhancer/"+versioninfo.Short()))
}

func enhanceWith(ctx context.Context, cfg EnhanceConfig, client internal.ImageClient) error {
	if cfg.Input != "" && cfg.URL != "" {
		return errors.New("--input and --url are mutually exclusive")
	}

	var upload io.ReadCloser
	switch {
	case cfg.Input != "":
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
		upload = f
	case cfg.URL != "":
		body, err := client.GetImage(ctx, cfg.URL)
		if err != nil {
			return err
		}
		upload = body
	}

	src := xray.Source{UseSample: cfg.UseSample}
	if upload != nil {
		defer func() {
			_ = upload.Close()
		}()
		src.Upload = upload
	}

	img, err := src.Provide()
	if err != nil {
		return err
	}

	opts := cfg.Options
	opts.Walkthrough = cfg.Animate != ""
	result, err := enhance.Run(ctx, img, opts)
	if err != nil {
		return err
	}

	output := cfg.Output
	if output == "" {
		output = opts.DownloadName()
	} else {
		output = filepath.Join(filepath.Dir(output), xray.SanitizeFilename(filepath.Base(output)))
	}
	if err := writeAtomically(output, func(w io.Writer) error {
		return xray.EncodePNG(w, result.Processed)
	}); err != nil {
		return err
	}

	if cfg.Animate != "" {
		data, err := xray.Animate(result.Frames, 1.0)
		if err != nil {
			return fmt.Errorf("failed to render walkthrough: %w", err)
		}
		if err := writeAtomically(cfg.Animate, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}); err != nil {
			return err
		}
	}

	stats := result.Stats()
	log.Info().
		Str("output", output).
		Strs("filters", stageNames(result.Filters)).
		Str("noise", result.Noise.String()).
		Float64("contrast_before", stats.Original.LocalContrast).
		Float64("contrast_after", stats.Processed.LocalContrast).
		Msg("Enhanced image written")
	return nil
}

// writeAtomically writes through a temporary file in the target directory
// and renames it into place once complete.
func writeAtomically(filename string, write func(w io.Writer) error) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create path: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "enhance-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = os.Remove(tmpFile.Name())
		}
	}()

	if err := write(tmpFile); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file before rename: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	cleanupTemp = false // Successfully renamed, don't delete
	return nil
}
