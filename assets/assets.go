// Package assets bundles the static datasets shipped with the engine: the
// emoji catalog and the design shape library.
package assets

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed emoji.json
var emojiJSON []byte

//go:embed shapes.json
var shapesJSON []byte

// Emoji is one catalog entry. Codes holds the space-separated code points
// of the character, as published by the Unicode emoji list.
type Emoji struct {
	Char  string `json:"char"`
	Name  string `json:"name"`
	Codes string `json:"codes"`
}

// Shape is one design shape: a label and its vector source.
type Shape struct {
	Label string `json:"label"`
	SVG   string `json:"svg"`
}

var (
	emojiOnce  sync.Once
	emojiList  []Emoji
	emojiErr   error
	shapesOnce sync.Once
	shapesList []Shape
	shapesErr  error
)

// Emojis returns the bundled emoji catalog. The result is shared, callers
// must not modify it.
func Emojis() ([]Emoji, error) {
	emojiOnce.Do(func() {
		if err := json.Unmarshal(emojiJSON, &emojiList); err != nil {
			emojiErr = fmt.Errorf("unable to decode bundled emoji catalog: %w", err)
		}
	})
	return emojiList, emojiErr
}

// Shapes returns the bundled design shape library. The result is shared,
// callers must not modify it.
func Shapes() ([]Shape, error) {
	shapesOnce.Do(func() {
		if err := json.Unmarshal(shapesJSON, &shapesList); err != nil {
			shapesErr = fmt.Errorf("unable to decode bundled shape library: %w", err)
		}
	})
	return shapesList, shapesErr
}
