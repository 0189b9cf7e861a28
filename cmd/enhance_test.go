package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rm-hull/xray-enhancer/internal/enhance"
	"github.com/rm-hull/xray-enhancer/internal/xray"
	"github.com/rm-hull/xray-enhancer/internal/xray/stage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageClient struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeImageClient) GetImage(_ context.Context, url string) (io.ReadCloser, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func presetOptions() enhance.Options {
	return enhance.Options{Backend: stage.BackendBild, Preset: true, Seed: 1}
}

func TestEnhanceWithSample(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "chest")

	err := enhanceWith(context.Background(), EnhanceConfig{
		UseSample: true,
		Output:    output,
		Options:   presetOptions(),
	}, &fakeImageClient{})
	require.NoError(t, err)

	data, err := os.ReadFile(output + ".png")
	require.NoError(t, err)
	img := decodePNG(t, data)
	assert.Equal(t, xray.Size, img.Bounds().Dx())

	leftovers, err := filepath.Glob(filepath.Join(dir, "out", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestEnhanceWithAnimation(t *testing.T) {
	dir := t.TempDir()
	anim := filepath.Join(dir, "walkthrough.png")

	err := enhanceWith(context.Background(), EnhanceConfig{
		UseSample: true,
		Output:    filepath.Join(dir, "out.png"),
		Animate:   anim,
		Options:   presetOptions(),
	}, &fakeImageClient{})
	require.NoError(t, err)

	data, err := os.ReadFile(anim)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(data, []byte("acTL")))
	assert.FileExists(t, filepath.Join(dir, "out.png"))
}

func TestEnhanceWithInputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "scan.png")
	require.NoError(t, os.WriteFile(input, checkerboard(t), 0644))

	opts := enhance.Options{Backend: stage.BackendBild, Filters: stage.NewSet(stage.Median)}
	err := enhanceWith(context.Background(), EnhanceConfig{
		Input:   input,
		Output:  filepath.Join(dir, "out.png"),
		Options: opts,
	}, &fakeImageClient{})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out.png"))

	err = enhanceWith(context.Background(), EnhanceConfig{
		Input:   filepath.Join(dir, "missing.png"),
		Output:  filepath.Join(dir, "out.png"),
		Options: opts,
	}, &fakeImageClient{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnhanceWithURL(t *testing.T) {
	dir := t.TempDir()
	client := &fakeImageClient{data: checkerboard(t)}

	err := enhanceWith(context.Background(), EnhanceConfig{
		URL:     "https://example.com/scan.png",
		Output:  filepath.Join(dir, "out.png"),
		Options: presetOptions(),
	}, client)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/scan.png"}, client.urls)
	assert.FileExists(t, filepath.Join(dir, "out.png"))

	failing := &fakeImageClient{err: errors.New("http status response from example.com: 404 Not Found")}
	err = enhanceWith(context.Background(), EnhanceConfig{
		URL:     "https://example.com/scan.png",
		Output:  filepath.Join(dir, "other.png"),
		Options: presetOptions(),
	}, failing)
	assert.EqualError(t, err, "http status response from example.com: 404 Not Found")
	assert.NoFileExists(t, filepath.Join(dir, "other.png"))
}

func TestEnhanceRejectsConflictingSources(t *testing.T) {
	err := enhanceWith(context.Background(), EnhanceConfig{
		Input:   "scan.png",
		URL:     "https://example.com/scan.png",
		Options: presetOptions(),
	}, &fakeImageClient{})
	assert.EqualError(t, err, "--input and --url are mutually exclusive")

	err = enhanceWith(context.Background(), EnhanceConfig{Options: presetOptions()}, &fakeImageClient{})
	assert.ErrorIs(t, err, xray.ErrNoSource)
}

func TestWriteAtomically(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "file.txt")

	require.NoError(t, writeAtomically(target, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}))
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	err = writeAtomically(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("disk full")
	})
	assert.ErrorContains(t, err, "disk full")

	data, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data), "a failed write leaves the previous file alone")

	leftovers, err := filepath.Glob(filepath.Join(dir, "nested", "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
