package xray

import (
	"bytes"
	"image/png"
	"io"
	"path/filepath"
	"strings"
)

const DefaultFilename = "enhanced_xray.png"

func EncodePNG(w io.Writer, img *Image) error {
	return png.Encode(w, img.Gray())
}

func PNGBytes(img *Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SanitizeFilename reduces a user supplied download name to a bare file name
// with a .png extension, falling back to DefaultFilename.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == 0x7f {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == "/" || name == ".." {
		return DefaultFilename
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		name += ".png"
	}
	return name
}
