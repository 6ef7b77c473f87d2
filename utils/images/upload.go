package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	// imaging covers bmp/tiff itself, webp decoding needs registration
	_ "golang.org/x/image/webp"

	"wsc/jpegquality"
)

const fallbackJPEGQuality = 90

// NormalizedUpload is a decoded and re-encoded user image, ready to be
// embedded as an inline source.
type NormalizedUpload struct {
	Name    string
	MIME    string
	DataURL string
	Width   int
	Height  int
}

// NormalizeUpload verifies that data is a supported raster image, decodes
// it and re-encodes it into an inline data URL. JPEG input stays JPEG,
// re-encoded at its estimated original quality so a round trip does not
// degrade it more than necessary; everything else becomes PNG.
func NormalizeUpload(name string, data []byte) (*NormalizedUpload, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("unable to sniff %q: %w", name, err)
	}
	if kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, fmt.Errorf("unsupported upload %q: not an image", name)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %q: %w", name, err)
	}

	out := &NormalizedUpload{
		Name:   name,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	if err := out.encode(kind, img, data); err != nil {
		return nil, fmt.Errorf("unable to re-encode %q: %w", name, err)
	}
	return out, nil
}

func (n *NormalizedUpload) encode(kind types.Type, img image.Image, original []byte) error {
	if kind.MIME.Value == "image/jpeg" {
		quality := fallbackJPEGQuality
		if qr, err := jpegquality.NewWithBytes(original); err == nil {
			quality = qr.Quality()
		}
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return err
		}
		n.MIME = "image/jpeg"
		n.DataURL = DataURL(n.MIME, buf.Bytes())
		return nil
	}

	url, err := PNGDataURL(img)
	if err != nil {
		return err
	}
	n.MIME = "image/png"
	n.DataURL = url
	return nil
}
