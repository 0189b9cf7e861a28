package cmd

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rm-hull/xray-enhancer/internal/enhance"
	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
	"github.com/rs/zerolog/log"
)

type handlers struct {
	backend  stage.Backend
	duration *prometheus.HistogramVec
}

func newHandlers(cfg ServerConfig, reg prometheus.Registerer) (*handlers, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "xray",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent decoding, adding noise and filtering one image.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{"backend", "preset"})
	if err := reg.Register(duration); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &handlers{
		backend:  cfg.Backend,
		duration: duration,
	}, nil
}

// enhanceForm mirrors the controls of the index page.
type enhanceForm struct {
	UseSample string   `form:"use_sample"`
	Mode      string   `form:"mode"`
	Noise     string   `form:"noise"`
	Preset    string   `form:"preset"`
	Filters   []string `form:"filters"`
	Filename  string   `form:"filename"`
	Seed      string   `form:"seed"`
	Format    string   `form:"format"`
}

type badRequestError struct {
	err error
}

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func parseFlag(name, value string, def bool) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return def, nil
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, value)
	}
	return b, nil
}

func (f *enhanceForm) options(backend stage.Backend) (enhance.Options, error) {
	mode, err := enhance.ParseMode(f.Mode)
	if err != nil {
		return enhance.Options{}, err
	}
	noise, err := xray.ParseNoiseKind(f.Noise)
	if err != nil {
		return enhance.Options{}, err
	}
	filters, err := stage.ParseSet(f.Filters)
	if err != nil {
		return enhance.Options{}, err
	}
	preset, err := parseFlag("preset", f.Preset, false)
	if err != nil {
		return enhance.Options{}, err
	}

	var seed uint64
	if s := strings.TrimSpace(f.Seed); s != "" {
		if seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return enhance.Options{}, fmt.Errorf("invalid seed %q", f.Seed)
		}
	} else {
		seed = uint64(time.Now().UnixNano())
	}

	return enhance.Options{
		Mode:        mode,
		Noise:       noise,
		Filters:     filters,
		Preset:      preset,
		Filename:    f.Filename,
		Seed:        seed,
		Backend:     backend,
		Walkthrough: strings.EqualFold(f.Format, "apng"),
	}, nil
}

// source builds the image source from the request. The sample is used when
// no file is uploaded unless use_sample is explicitly switched off.
func (h *handlers) source(c *gin.Context, form *enhanceForm) (xray.Source, io.Closer, error) {
	useSample, err := parseFlag("use_sample", form.UseSample, true)
	if err != nil {
		return xray.Source{}, nil, badRequestError{err}
	}

	fh, err := c.FormFile("file")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return xray.Source{}, nil, badRequestError{fmt.Errorf("failed to read upload: %w", err)}
		}
		return xray.Source{Upload: f, UseSample: useSample}, f, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return xray.Source{UseSample: useSample}, io.NopCloser(nil), nil
	default:
		return xray.Source{}, nil, badRequestError{fmt.Errorf("failed to read upload: %w", err)}
	}
}

func (h *handlers) run(c *gin.Context) (*enhance.Result, enhance.Options, error) {
	var form enhanceForm
	if err := c.ShouldBind(&form); err != nil {
		return nil, enhance.Options{}, badRequestError{err}
	}

	opts, err := form.options(h.backend)
	if err != nil {
		return nil, opts, badRequestError{err}
	}

	src, closer, err := h.source(c, &form)
	if err != nil {
		return nil, opts, err
	}
	defer func() {
		_ = closer.Close()
	}()

	start := time.Now()
	img, err := src.Provide()
	if err != nil {
		return nil, opts, err
	}

	result, err := enhance.Run(c.Request.Context(), img, opts)
	if err != nil {
		return nil, opts, err
	}
	h.duration.WithLabelValues(string(opts.Backend), strconv.FormatBool(opts.Preset)).Observe(time.Since(start).Seconds())

	log.Debug().
		Strs("filters", stageNames(result.Filters)).
		Str("noise", result.Noise.String()).
		Dur("elapsed", time.Since(start)).
		Msg("Enhanced image")
	return result, opts, nil
}

func (h *handlers) fail(c *gin.Context, err error) {
	var badRequest badRequestError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, xray.ErrNoSource), errors.As(err, &badRequest):
		status = http.StatusBadRequest
	case errors.Is(err, xray.ErrDecode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, stage.ErrBackendUnavailable):
		status = http.StatusNotImplemented
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func (h *handlers) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Modes":           []enhance.Mode{enhance.WithoutNoise, enhance.WithNoiseDemo},
		"NoiseKinds":      xray.NoiseKinds,
		"Filters":         stage.Order,
		"DefaultFilename": xray.DefaultFilename,
	})
}

func (h *handlers) sample(c *gin.Context) {
	data, err := xray.PNGBytes(xray.NormalizeGray(xray.Sample()))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func (h *handlers) enhance(c *gin.Context) {
	result, opts, err := h.run(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := "image/png"
	var data []byte
	if opts.Walkthrough {
		contentType = "image/apng"
		data, err = xray.Animate(result.Frames, 1.0)
	} else {
		data, err = xray.PNGBytes(result.Processed)
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, opts.DownloadName()))
	c.Data(http.StatusOK, contentType, data)
}

type previewResponse struct {
	Original  string        `json:"original"`
	Noisy     string        `json:"noisy,omitempty"`
	Processed string        `json:"processed"`
	Filters   []string      `json:"filters"`
	Noise     string        `json:"noise"`
	Filename  string        `json:"filename"`
	Stats     enhance.Stats `json:"stats"`
}

func dataURI(img *xray.Image) (string, error) {
	data, err := xray.PNGBytes(img)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (h *handlers) preview(c *gin.Context) {
	result, opts, err := h.run(c)
	if err != nil {
		h.fail(c, err)
		return
	}

	resp := previewResponse{
		Filters:  stageNames(result.Filters),
		Noise:    result.Noise.Label(),
		Filename: opts.DownloadName(),
		Stats:    result.Stats(),
	}
	if resp.Original, err = dataURI(result.Original); err != nil {
		h.fail(c, err)
		return
	}
	if result.Noisy != nil {
		if resp.Noisy, err = dataURI(result.Noisy); err != nil {
			h.fail(c, err)
			return
		}
	}
	if resp.Processed, err = dataURI(result.Processed); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func stageNames(kinds []stage.Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
