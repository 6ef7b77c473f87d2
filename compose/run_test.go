package compose

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"wsc/config"
	"wsc/state"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Editor.DefaultTab = "emoji" // keep composition off the network
	env.Cfg = cfg
	env.Log = zap.NewNop()
	return ctx
}

func pngFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeManifest(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.yaml")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(writeManifest(t, `
worksheet:
  tasks: 2
  solutions: 1
  docx_url: "https://host/docx"
regions:
  - field: input-1
    html: "<p>seeded</p>"
drops:
  - field: input-2
    type: image
    value: "https://cdn/a.png"
export:
  mode: plain
  format: docx
`))
	if err != nil {
		t.Fatalf("LoadManifest() error = %v", err)
	}
	if m.Worksheet.Tasks != 2 || m.Worksheet.Solutions != 1 {
		t.Errorf("counts = %d/%d", m.Worksheet.Tasks, m.Worksheet.Solutions)
	}
	if len(m.Regions) != 1 || len(m.Drops) != 1 || m.Export == nil {
		t.Errorf("sections = %d region(s), %d drop(s), export %v", len(m.Regions), len(m.Drops), m.Export)
	}
}

func TestLoadManifest_NoFields(t *testing.T) {
	if _, err := LoadManifest(writeManifest(t, "worksheet:\n  tasks: 0\n")); err == nil {
		t.Error("expected error for empty worksheet")
	}
}

func TestLoadManifest_UnknownKey(t *testing.T) {
	if _, err := LoadManifest(writeManifest(t, "worksheet:\n  tasks: 1\nbogus: true\n")); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestProcess(t *testing.T) {
	ctx := testContext(t)

	m, err := LoadManifest(writeManifest(t, `
worksheet:
  tasks: 2
  solutions: 1
  pdf_url: "https://host/pdf"
  docx_url: "https://host/docx"
regions:
  - field: input-1
    html: "<p>seeded</p>"
drops:
  - field: input-2
    type: image
    value: "https://cdn/a.png"
export:
  mode: plain
  format: pdf
`))
	if err != nil {
		t.Fatal(err)
	}

	data, err := process(ctx, m, "/tmp/sheet.yaml", defaultTemplate, zap.NewNop())
	if err != nil {
		t.Fatalf("process() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`<section id="input-1" data-role="task" data-number="1">`,
		"<p>seeded</p>",
		`<section id="input-2"`,
		`src="https://cdn/a.png"`,
		`<section id="solution-input-1" data-role="solution" data-number="1">`,
		`submitted to https://host/pdf`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProcess_UnknownField(t *testing.T) {
	ctx := testContext(t)
	m := &Manifest{
		Worksheet: Worksheet{Tasks: 1},
		Regions:   []Content{{Field: "input-7", HTML: "<p>x</p>"}},
	}
	if _, err := process(ctx, m, "x.yaml", defaultTemplate, zap.NewNop()); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestProcess_FileDrop(t *testing.T) {
	ctx := testContext(t)

	img := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(img, pngFixture(t), 0644); err != nil {
		t.Fatal(err)
	}

	m := &Manifest{
		Worksheet: Worksheet{Tasks: 1},
		Drops:     []Drop{{Field: "input-1", Type: "custom-upload", File: img}},
	}
	data, err := process(ctx, m, "x.yaml", defaultTemplate, zap.NewNop())
	if err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if !strings.Contains(string(data), "data:image/png;base64,") {
		t.Errorf("uploaded image not embedded:\n%s", data)
	}
}
