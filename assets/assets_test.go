package assets_test

import (
	"strings"
	"testing"

	"wsc/assets"
)

func TestEmojis(t *testing.T) {
	list, err := assets.Emojis()
	if err != nil {
		t.Fatalf("Emojis() error = %v", err)
	}
	if len(list) == 0 {
		t.Fatal("Emoji catalog is empty")
	}
	seen := make(map[string]bool, len(list))
	for _, e := range list {
		if len(e.Char) == 0 || len(e.Name) == 0 || len(e.Codes) == 0 {
			t.Errorf("Incomplete entry: %+v", e)
		}
		if seen[e.Char] {
			t.Errorf("Duplicate character: %q", e.Char)
		}
		seen[e.Char] = true
	}
}

func TestShapes(t *testing.T) {
	list, err := assets.Shapes()
	if err != nil {
		t.Fatalf("Shapes() error = %v", err)
	}
	if len(list) == 0 {
		t.Fatal("Shape library is empty")
	}
	for _, s := range list {
		if len(s.Label) == 0 {
			t.Error("Shape without label")
		}
		if !strings.Contains(s.SVG, "<svg") {
			t.Errorf("Shape %q source is not SVG", s.Label)
		}
	}
}
