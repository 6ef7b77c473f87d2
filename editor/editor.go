// Package editor defines the rich-text editor primitive the composition
// engine drives, together with a self-contained document implementation used
// by tests and headless composition.
package editor

import (
	"github.com/beevik/etree"

	"wsc/embeds"
)

// Editor is the per-region editing primitive. Indices address positions in
// the region's content: every text rune and every inline embed counts as one
// unit, every block adds one trailing unit for its boundary.
type Editor interface {
	// Root returns the region's content tree.
	Root() *etree.Element

	// Length returns the total number of content units.
	Length() int

	// Selection returns the current caret index, false when the region never
	// had one.
	Selection() (int, bool)

	// SetSelection moves the caret, clamping into the valid range.
	SetSelection(index int)

	// Focus gives this region the input focus and notifies subscribers.
	Focus()

	// OnFocus subscribes to focus changes.
	OnFocus(fn func())

	// InsertText types text at the given index.
	InsertText(index int, text string) error

	// InsertEmbed constructs the registered variant from value and places it
	// at the given index.
	InsertEmbed(index int, v embeds.Variant, value string) error

	// PasteHTML inserts a raw HTML fragment at the given index.
	PasteHTML(index int, fragment string) error

	// HTML serializes the content tree.
	HTML() string

	// SetHTML replaces the whole content.
	SetHTML(content string) error

	// OnNodeAdded subscribes to content mutations. The returned function
	// cancels the subscription.
	OnNodeAdded(fn func(*etree.Element)) (cancel func())
}

// CaretResolver is an optional editor capability translating screen
// coordinates into a content index. The drop coordinator type-asserts for it
// and falls back to the selection when absent.
type CaretResolver interface {
	IndexFromPoint(x, y float64) (index int, ok bool)
}
