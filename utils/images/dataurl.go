package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// PNGDataURL encodes img as an inline PNG data URL.
func PNGDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("unable to encode png: %w", err)
	}
	return DataURL("image/png", buf.Bytes()), nil
}

// SVGDataURL wraps raw SVG markup into an inline data URL.
func SVGDataURL(svg string) string {
	return DataURL("image/svg+xml", []byte(svg))
}

// DataURL builds a base64 data URL for arbitrary content.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits an inline data URL back into its media type and
// payload. Only base64 encoded URLs are supported.
func DecodeDataURL(u string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(u, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url: %.32q", u)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url: %.32q", u)
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, fmt.Errorf("unsupported data url encoding %q", enc)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("unable to decode data url payload: %w", err)
	}
	return mime, data, nil
}
