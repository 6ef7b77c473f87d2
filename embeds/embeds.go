// Package embeds defines the variant content types that can be inserted into
// an editing region and their construction/serialization rules.
package embeds

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"wsc/dom"
)

// Variant tags a registered embeddable content type.
type Variant string

const (
	Image           Variant = "image"
	CustomImage     Variant = "customImage"
	EmojiImage      Variant = "emojiImage"
	PageBreak       Variant = "pageBreak"
	BackgroundShape Variant = "backgroundShape"
)

var (
	// ErrEmptyValue signals that the value cannot be coerced to a usable
	// source. Callers treat the insertion as a no-op.
	ErrEmptyValue = errors.New("embed value is empty")

	ErrUnknownVariant = errors.New("unknown embed variant")
)

// Spec holds the construction and serialization rules of one variant.
// Serialize must round-trip: feeding the captured value back through Create
// reproduces an equivalent node.
type Spec struct {
	Create    func(value string) (*etree.Element, error)
	Serialize func(el *etree.Element) string
}

// Registry is a closed tagged-variant registry keyed by Variant.
type Registry struct {
	specs map[Variant]Spec
}

// NewRegistry returns a registry with all standard variants installed.
func NewRegistry() *Registry {
	r := &Registry{specs: make(map[Variant]Spec)}

	imageSpec := Spec{Create: createImage, Serialize: serializeSrc}
	r.Register(Image, imageSpec)
	r.Register(CustomImage, imageSpec)
	r.Register(EmojiImage, Spec{Create: createEmojiImage, Serialize: serializeEmojiChar})
	r.Register(PageBreak, Spec{Create: createPageBreak, Serialize: dom.SerializeChildren})
	r.Register(BackgroundShape, Spec{Create: createBackgroundShape, Serialize: serializeBackgroundSrc})
	return r
}

// Register adds or replaces the spec for a variant.
func (r *Registry) Register(v Variant, s Spec) {
	r.specs[v] = s
}

// Create constructs a node for the variant from value.
func (r *Registry) Create(v Variant, value string) (*etree.Element, error) {
	spec, ok := r.specs[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return spec.Create(value)
}

// Serialize captures the value of a previously constructed node.
func (r *Registry) Serialize(v Variant, el *etree.Element) (string, error) {
	spec, ok := r.specs[v]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return spec.Serialize(el), nil
}

// Classify maps a content node back to its variant.
func (r *Registry) Classify(el *etree.Element) (Variant, bool) {
	switch strings.ToLower(el.Tag) {
	case "img":
		if el.SelectAttrValue("data-emoji", "") == "true" {
			return EmojiImage, true
		}
		return Image, true
	case "div":
		if dom.HasClass(el, "page-break") {
			return PageBreak, true
		}
	case "span":
		if dom.HasClass(el, "svg-shape-background") {
			return BackgroundShape, true
		}
	}
	return "", false
}

func createImage(value string) (*etree.Element, error) {
	src := strings.TrimSpace(value)
	if len(src) == 0 {
		return nil, ErrEmptyValue
	}
	node := etree.NewElement("img")
	node.CreateAttr("src", src)
	st := &dom.Style{}
	st.SetPx("width", 250)
	st.SetPx("height", 250)
	st.Apply(node)
	return node, nil
}

func serializeSrc(el *etree.Element) string {
	return el.SelectAttrValue("src", "")
}

func createEmojiImage(value string) (*etree.Element, error) {
	char := strings.TrimSpace(value)
	if len(char) == 0 {
		return nil, ErrEmptyValue
	}
	node := etree.NewElement("img")
	node.CreateAttr("src", EmojiImageURL(char))
	node.CreateAttr("data-emoji", "true")
	node.CreateAttr("data-emoji-char", char)
	node.CreateAttr("alt", char)
	dom.AddClass(node, "emoji-image")
	st := &dom.Style{}
	st.SetPx("width", 25)
	st.SetPx("height", 25)
	st.Set("display", "inline")
	st.Set("vertical-align", "middle")
	st.SetPx("margin", 5)
	st.Apply(node)
	return node, nil
}

func serializeEmojiChar(el *etree.Element) string {
	return el.SelectAttrValue("data-emoji-char", "")
}

// createPageBreak ignores the value, a page break always carries the same
// non-editable rule.
func createPageBreak(string) (*etree.Element, error) {
	node := etree.NewElement("div")
	node.CreateAttr("contenteditable", "false")
	dom.AddClass(node, "page-break")
	hr := node.CreateElement("hr")
	st := &dom.Style{}
	st.Set("border", "none")
	st.Set("border-top", "2px dashed #ccc")
	st.Set("margin", "20px 0")
	st.Apply(hr)
	return node, nil
}

func createBackgroundShape(value string) (*etree.Element, error) {
	src := strings.TrimSpace(value)
	if len(src) == 0 {
		return nil, ErrEmptyValue
	}
	node := etree.NewElement("span")
	node.CreateAttr("contenteditable", "false")
	dom.AddClass(node, "svg-shape-background")
	st := &dom.Style{}
	st.Set("display", "inline-block")
	st.Set("position", "relative")
	st.SetPx("width", 150)
	st.SetPx("height", 150)
	st.Set("background-image", "url('"+src+"')")
	st.Set("background-size", "contain")
	st.Set("background-position", "center")
	st.Set("background-repeat", "no-repeat")
	st.Apply(node)
	return node, nil
}

func serializeBackgroundSrc(el *etree.Element) string {
	v := dom.ElementStyle(el).Get("background-image")
	v = strings.TrimPrefix(v, "url(")
	v = strings.TrimSuffix(v, ")")
	return strings.Trim(v, `'"`)
}

// EmojiImageURL derives the CDN image location from the character's code
// points, so the same character always maps to the same image.
func EmojiImageURL(char string) string {
	codes := make([]string, 0, 2)
	for _, r := range char {
		codes = append(codes, fmt.Sprintf("%x", r))
	}
	return "https://cdn.jsdelivr.net/gh/twitter/twemoji@latest/assets/svg/" + strings.Join(codes, "-") + ".svg"
}
