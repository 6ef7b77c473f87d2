package compose

import (
	"bytes"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

type (
	// Worksheet describes the document shell: how many fields of each kind the
	// host page carries and where submissions go.
	Worksheet struct {
		Tasks     int    `yaml:"tasks"`
		Solutions int    `yaml:"solutions"`
		SaveURL   string `yaml:"save_url,omitempty"`
		PDFURL    string `yaml:"pdf_url,omitempty"`
		DocxURL   string `yaml:"docx_url,omitempty"`
	}

	// Content seeds a single field before drops are applied.
	Content struct {
		Field string `yaml:"field"`
		HTML  string `yaml:"html"`
	}

	// Drop is a scripted asset insertion into a field. Type uses the same
	// names the asset panels produce. For custom uploads File points to an
	// image on disk, for everything else Value carries the asset source.
	Drop struct {
		Field string `yaml:"field"`
		Type  string `yaml:"type"`
		Value string `yaml:"value,omitempty"`
		HTML  string `yaml:"html,omitempty"`
		File  string `yaml:"file,omitempty"`
		At    *int   `yaml:"at,omitempty"`
	}

	// Export requests a download submission after composition.
	Export struct {
		Mode   string `yaml:"mode"`
		Format string `yaml:"format"`
	}

	Manifest struct {
		Worksheet Worksheet `yaml:"worksheet"`
		Regions   []Content `yaml:"regions,omitempty"`
		Drops     []Drop    `yaml:"drops,omitempty"`
		Export    *Export   `yaml:"export,omitempty"`
	}
)

// LoadManifest reads composition script from the file at the given path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read manifest file: %w", err)
	}

	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unable to decode manifest: %w", err)
	}
	if m.Worksheet.Tasks < 0 || m.Worksheet.Solutions < 0 {
		return nil, fmt.Errorf("invalid field counts: %d task(s), %d solution(s)", m.Worksheet.Tasks, m.Worksheet.Solutions)
	}
	if m.Worksheet.Tasks == 0 && m.Worksheet.Solutions == 0 {
		return nil, fmt.Errorf("manifest describes no fields")
	}
	return &m, nil
}
