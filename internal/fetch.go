package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// MaxImageBytes bounds how much of a remote image is read.
const MaxImageBytes = 32 << 20

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var ErrImageTooLarge = errors.New("remote image too large")

type ImageClient interface {
	GetImage(ctx context.Context, url string) (io.ReadCloser, error)
}

type ImageFetcher struct {
	userAgent string
	client    HTTPClient
	maxBytes  int64
}

func NewImageClient(userAgent string) ImageClient {
	return &ImageFetcher{
		userAgent: userAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		maxBytes:  MaxImageBytes,
	}
}

// GetImage downloads an encoded image. The caller must close the body.
// Reading past the size limit fails with ErrImageTooLarge.
func (f *ImageFetcher) GetImage(ctx context.Context, url string) (io.ReadCloser, error) {
	log.Info().Str("url", url).Msg("Retrieving image")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/*;q=0.8")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from %s: %w", url, err)
	}

	if res.StatusCode > 299 {
		_ = res.Body.Close()
		return nil, fmt.Errorf("http status response from %s: %s", url, res.Status)
	}

	limit := f.maxBytes
	if limit <= 0 {
		limit = MaxImageBytes
	}
	if res.ContentLength > limit {
		_ = res.Body.Close()
		return nil, fmt.Errorf("%w: %s declares %d bytes", ErrImageTooLarge, url, res.ContentLength)
	}

	return &limitedBody{body: res.Body, limit: limit, remaining: limit}, nil
}

// limitedBody passes reads through until more than limit bytes have been
// seen, then fails instead of truncating.
type limitedBody struct {
	body      io.ReadCloser
	limit     int64
	remaining int64
	err       error
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}
	n, err := b.body.Read(p)
	if int64(n) > b.remaining {
		b.err = fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, b.limit)
		return 0, b.err
	}
	b.remaining -= int64(n)
	return n, err
}

func (b *limitedBody) Close() error {
	return b.body.Close()
}
