package cmd

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Depado/ginprom"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rm-hull/xray-enhancer/internal"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
	"github.com/rs/zerolog/log"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
)

//go:embed templates/*.html
var templates embed.FS

type ServerConfig struct {
	Port        int
	Debug       bool
	Backend     stage.Backend
	MaxUploadMB int
}

func ApiServer(cfg ServerConfig) {
	internal.ShowVersion()
	internal.UserInfo()
	internal.EnvironmentVars()

	r, err := NewRouter(cfg, prometheus.NewRegistry())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Int("port", cfg.Port).Str("backend", string(cfg.Backend)).Msg("Starting HTTP API Server")
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msgf("HTTP API Server failed to start on port %d", cfg.Port)
	}
}

// NewRouter wires the UI, the enhancement endpoints and the operational
// endpoints onto a fresh engine. Metrics are registered on reg.
func NewRouter(cfg ServerConfig, reg *prometheus.Registry) (*gin.Engine, error) {
	if _, err := stage.Build(cfg.Backend, stage.Order); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	metrics := ginprom.New(
		ginprom.Engine(r),
		ginprom.Registry(reg),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		metrics.Instrument(),
	)

	if cfg.Debug {
		log.Warn().Msg("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{
		&PipelineCheck{Backend: cfg.Backend},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize healthcheck: %w", err)
	}

	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	h, err := newHandlers(cfg, reg)
	if err != nil {
		return nil, err
	}

	r.GET("/", h.index)
	v1 := r.Group("/v1", limitBody(int64(cfg.MaxUploadMB)<<20))
	v1.GET("/sample.png", h.sample)
	v1.POST("/enhance", h.enhance)
	v1.POST("/preview", h.preview)

	return r, nil
}

func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
