package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/joho/godotenv"
	"github.com/rm-hull/xray-enhancer/cmd"
	"github.com/rm-hull/xray-enhancer/internal"
	"github.com/rm-hull/xray-enhancer/internal/enhance"
	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func main() {
	var port int
	var debug bool
	var backend string
	var maxUploadMB int

	envErr := godotenv.Load()
	internal.ConfigureLogger(os.Stderr, envOr("LOG_LEVEL", "info"), os.Getenv("LOG_FORMAT"))
	if envErr != nil {
		log.Debug().Msg("No .env file found")
	}

	rootCmd := &cobra.Command{
		Use:     "xray-enhancer",
		Long:    `X-ray noise removal & enhancement`,
		Version: versioninfo.Short(),
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				internal.ConfigureLogger(os.Stderr, "debug", os.Getenv("LOG_FORMAT"))
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging (and pprof for api-server) - WARNING: do not enable in production")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", envOr("XRAY_BACKEND", string(stage.BackendBild)), "Filter backend: bild or opencv")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--port <port>] [--debug] [--backend <name>]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			b, err := stage.ParseBackend(backend)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid backend")
			}
			cmd.ApiServer(cmd.ServerConfig{
				Port:        port,
				Debug:       debug,
				Backend:     b,
				MaxUploadMB: maxUploadMB,
			})
		},
	}

	apiServerCmd.Flags().IntVar(&port, "port", envIntOr("PORT", 8080), "Port to run HTTP server on")
	apiServerCmd.Flags().IntVar(&maxUploadMB, "max-upload-mb", envIntOr("XRAY_MAX_UPLOAD_MB", 20), "Largest accepted upload in megabytes")

	var cfg cmd.EnhanceConfig
	var mode, noise string
	var filters []string
	var seed uint64

	enhanceCmd := &cobra.Command{
		Use:   "enhance [--input <file> | --url <url> | --sample] [--preset] [--filter <name>,...]",
		Short: "Enhance a single image and write it as PNG",
		RunE: func(c *cobra.Command, _ []string) error {
			opts, err := parseOptions(backend, mode, noise, filters)
			if err != nil {
				return err
			}
			opts.Preset = cfg.Options.Preset
			opts.Seed = seed
			cfg.Options = opts
			cfg.UseSample = cfg.UseSample || (cfg.Input == "" && cfg.URL == "")
			return cmd.Enhance(c.Context(), cfg)
		},
	}

	enhanceCmd.Flags().StringVar(&cfg.Input, "input", "", "Image file to enhance (PNG/JPEG)")
	enhanceCmd.Flags().StringVar(&cfg.URL, "url", "", "Fetch the image to enhance from a URL")
	enhanceCmd.Flags().BoolVar(&cfg.UseSample, "sample", false, "Use the generated sample gradient")
	enhanceCmd.Flags().StringVar(&cfg.Output, "output", xray.DefaultFilename, "Output PNG file")
	enhanceCmd.Flags().StringVar(&cfg.Animate, "animate", "", "Also write an APNG walkthrough of every stage to this file")
	enhanceCmd.Flags().StringVar(&mode, "mode", enhance.WithoutNoise.String(), "without-noise or with-noise-demo")
	enhanceCmd.Flags().StringVar(&noise, "noise", xray.NoiseNone.String(), "none, gaussian, salt-pepper or speckle (noise demo only)")
	enhanceCmd.Flags().BoolVar(&cfg.Options.Preset, "preset", false, "Use the improved preset (CLAHE + unsharp mask)")
	enhanceCmd.Flags().StringSliceVar(&filters, "filter", nil, "Filters to apply: mean, median, gaussian, bilateral, histeq, clahe, unsharp")
	enhanceCmd.Flags().Uint64Var(&seed, "seed", 1, "Seed for noise injection")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			internal.ShowVersion()
		},
	}

	rootCmd.AddCommand(apiServerCmd, enhanceCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func parseOptions(backend, mode, noise string, filters []string) (enhance.Options, error) {
	b, err := stage.ParseBackend(backend)
	if err != nil {
		return enhance.Options{}, err
	}
	m, err := enhance.ParseMode(mode)
	if err != nil {
		return enhance.Options{}, err
	}
	n, err := xray.ParseNoiseKind(noise)
	if err != nil {
		return enhance.Options{}, err
	}
	set, err := stage.ParseSet(filters)
	if err != nil {
		return enhance.Options{}, err
	}
	return enhance.Options{Mode: m, Noise: n, Filters: set, Backend: b}, nil
}
