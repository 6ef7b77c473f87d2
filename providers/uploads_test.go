package providers

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"wsc/config"
	"wsc/dragdrop"
)

func uploadsCfg() config.UploadsConfig {
	return config.UploadsConfig{MaxBytes: 1 << 20}
}

func testPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 6, 6))
	for y := range 6 {
		for x := range 6 {
			img.Set(x, y, color.RGBA{shade, shade, shade, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploads_AddFile(t *testing.T) {
	p := NewUploads(uploadsCfg(), zap.NewNop())
	if err := p.AddFile("pic.png", testPNG(t, 40)); err != nil {
		t.Fatalf("AddFile() error = %v", err)
	}

	items := p.Panel().Items()
	if len(items) != 1 {
		t.Fatalf("items = %d", len(items))
	}
	it := items[0]
	if it.Payload.Type != dragdrop.TypeCustomUpload {
		t.Errorf("payload type = %q", it.Payload.Type)
	}
	if !strings.HasPrefix(it.Payload.PrimaryValue, "data:image/png;base64,") {
		t.Errorf("payload = %.40s", it.Payload.PrimaryValue)
	}
	if !strings.HasPrefix(it.Key, "upload-img-") {
		t.Errorf("key = %q", it.Key)
	}
}

func TestUploads_DeduplicatesByContent(t *testing.T) {
	p := NewUploads(uploadsCfg(), zap.NewNop())
	data := testPNG(t, 40)
	if err := p.AddFile("a.png", data); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFile("copy-of-a.png", data); err != nil {
		t.Fatal(err)
	}
	if err := p.AddFile("b.png", testPNG(t, 200)); err != nil {
		t.Fatal(err)
	}

	if p.Panel().Len() != 2 {
		t.Errorf("len = %d, want 2", p.Panel().Len())
	}
}

func TestUploads_RejectsNonImage(t *testing.T) {
	p := NewUploads(uploadsCfg(), zap.NewNop())
	if err := p.AddFile("notes.txt", []byte("hello")); err == nil {
		t.Error("expected error for non-image upload")
	}
	if p.Panel().Len() != 0 {
		t.Errorf("len = %d", p.Panel().Len())
	}
}

func TestUploads_RejectsOversized(t *testing.T) {
	p := NewUploads(config.UploadsConfig{MaxBytes: 16}, zap.NewNop())
	if err := p.AddFile("big.png", testPNG(t, 40)); err == nil {
		t.Error("expected error for oversized upload")
	}
}

func TestUploads_InitRendersEarlierAdds(t *testing.T) {
	p := NewUploads(uploadsCfg(), zap.NewNop())
	if err := p.AddFile("a.png", testPNG(t, 40)); err != nil {
		t.Fatal(err)
	}

	if err := p.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Panel().State() != StateResults || p.Panel().Len() != 1 {
		t.Errorf("state = %v len = %d", p.Panel().State(), p.Panel().Len())
	}
}

func TestUploads_AddArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	for name, data := range map[string][]byte{
		"images/a.png": testPNG(t, 40),
		"images/b.png": testPNG(t, 200),
		"notes.txt":    []byte("not an image"),
	} {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	p := NewUploads(uploadsCfg(), zap.NewNop())
	if err := p.AddArchive(path); err != nil {
		t.Fatalf("AddArchive() error = %v", err)
	}
	if p.Panel().Len() != 2 {
		t.Errorf("len = %d, want 2 images from bundle", p.Panel().Len())
	}
}

func TestUploads_WatchDirIngestsImages(t *testing.T) {
	dir := t.TempDir()
	cfg := config.UploadsConfig{WatchDir: dir, MaxBytes: 1 << 20}
	p := NewUploads(cfg, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Watch(ctx)
	}()

	// give the watcher a moment to come up
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "drop.png"), testPNG(t, 40), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for p.Panel().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if p.Panel().Len() != 1 {
		t.Fatalf("watched file not ingested, len = %d", p.Panel().Len())
	}

	cancel()
	<-done
}
