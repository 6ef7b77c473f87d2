package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 11), 128, 255})
		}
	}
	return img
}

func TestPNGDataURL_RoundTrip(t *testing.T) {
	url, err := PNGDataURL(testImage(8, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %.40s", url)
	}

	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q", mime)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("payload does not decode: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("unexpected bounds: %v", img.Bounds())
	}
}

func TestSVGDataURL(t *testing.T) {
	url := SVGDataURL(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/svg+xml" || !strings.Contains(string(data), "<svg") {
		t.Errorf("round trip lost content: %q %q", mime, data)
	}
}

func TestDecodeDataURL_Errors(t *testing.T) {
	for _, bad := range []string{
		"http://example.com/x.png",
		"data:image/png;base64",
		"data:image/png;utf8,abc",
		"data:image/png;base64,$$$",
	} {
		if _, _, err := DecodeDataURL(bad); err == nil {
			t.Errorf("DecodeDataURL(%q) expected error", bad)
		}
	}
}

func TestNormalizeUpload_PNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(10, 10)); err != nil {
		t.Fatal(err)
	}

	up, err := NormalizeUpload("pic.png", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.MIME != "image/png" || up.Width != 10 || up.Height != 10 {
		t.Errorf("unexpected result: %+v", up)
	}
	if !strings.HasPrefix(up.DataURL, "data:image/png;base64,") {
		t.Errorf("unexpected data url: %.40s", up.DataURL)
	}
}

func TestNormalizeUpload_JPEGStaysJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(20, 20), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatal(err)
	}

	up, err := NormalizeUpload("photo.jpg", buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.MIME != "image/jpeg" {
		t.Errorf("mime = %q", up.MIME)
	}
	_, data, err := DecodeDataURL(up.DataURL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("payload does not decode: %v", err)
	}
}

func TestNormalizeUpload_RejectsNonImage(t *testing.T) {
	if _, err := NormalizeUpload("notes.txt", []byte("just some text")); err == nil {
		t.Error("expected error for non-image data")
	}
}
