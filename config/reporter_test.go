package config

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestReport_StoreDataAndFinalize(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "report.zip")
	conf := &ReporterConfig{Destination: dest}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	r.StoreData("fields/input-1", []byte("<p>task</p>"))
	r.StoreData("fields/input-1", []byte("<p>task again</p>")) // versioned, not overwritten

	src := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := os.WriteFile(src, []byte("regions: 2\n"), 0644); err != nil {
		t.Fatalf("Failed to write source file: %v", err)
	}
	r.Store("manifest.yaml", src)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatalf("Report archive unreadable: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["MANIFEST"] {
		t.Error("Report archive missing MANIFEST")
	}
	if !names["fields/input-1"] {
		t.Error("Report archive missing stored data entry")
	}
	if !names["manifest.yaml"] {
		t.Error("Report archive missing stored file entry")
	}
	if len(zr.File) != 4 { // MANIFEST + 2 data versions + 1 file
		t.Errorf("Report archive has %d entries, want 4", len(zr.File))
	}
}

func TestReport_NilSafe(t *testing.T) {
	var r *Report
	r.Store("x", "y")
	r.StoreData("x", []byte("y"))
	if err := r.Close(); err != nil {
		t.Errorf("Close() on nil report error = %v", err)
	}
	if r.Name() != "" {
		t.Errorf("Name() on nil report = %q, want empty", r.Name())
	}
}
