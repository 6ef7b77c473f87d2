// Package resize makes embedded content interactively resizable. An observer
// watches each region for newly added nodes and attaches a size binding to
// every eligible element exactly once.
package resize

import (
	"sync"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"wsc/config"
	"wsc/dom"
	"wsc/region"
)

// Observer tracks resizable elements across every attached region.
// Attachment state lives here, keyed by node identity, so re-scanning the
// same subtree never double-binds an element.
type Observer struct {
	cfg config.ResizeConfig
	log *zap.Logger

	mu       sync.Mutex
	bindings map[*etree.Element]*Binding
	cancels  []func()
}

func NewObserver(cfg config.ResizeConfig, log *zap.Logger) *Observer {
	return &Observer{
		cfg:      cfg,
		log:      log,
		bindings: make(map[*etree.Element]*Binding),
	}
}

// Attach subscribes to the region's node additions and scans content the
// editor already holds.
func (o *Observer) Attach(r *region.Region) {
	cancel := r.Editor.OnNodeAdded(func(el *etree.Element) {
		o.Scan(el)
	})

	o.mu.Lock()
	o.cancels = append(o.cancels, cancel)
	o.mu.Unlock()

	o.Scan(r.Editor.Root())
}

// Detach drops every subscription. Existing bindings stay usable.
func (o *Observer) Detach() {
	o.mu.Lock()
	cancels := o.cancels
	o.cancels = nil
	o.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Scan walks el and its descendants binding every eligible element that is
// not bound yet.
func (o *Observer) Scan(el *etree.Element) {
	if el == nil {
		return
	}
	if eligible(el) {
		o.bind(el)
	}
	for _, child := range el.ChildElements() {
		o.Scan(child)
	}
}

// eligible: plain images but not emoji glyphs, and shape background spans.
func eligible(el *etree.Element) bool {
	if el.Tag == "img" {
		return el.SelectAttrValue("data-emoji", "") != "true"
	}
	return dom.HasClass(el, "svg-shape-background")
}

func (o *Observer) bind(el *etree.Element) *Binding {
	o.mu.Lock()
	defer o.mu.Unlock()
	if b, ok := o.bindings[el]; ok {
		return b
	}
	b := &Binding{el: el, cfg: o.cfg}
	o.bindings[el] = b
	o.log.Debug("Resizable element bound", zap.String("tag", el.Tag))
	return b
}

// Binding returns the binding attached to el, if any.
func (o *Observer) Binding(el *etree.Element) (*Binding, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.bindings[el]
	return b, ok
}

// BoundCount reports how many elements currently carry a binding.
func (o *Observer) BoundCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.bindings)
}

// Binding resizes one element within the configured limits.
type Binding struct {
	el  *etree.Element
	cfg config.ResizeConfig
}

// Element returns the bound node.
func (b *Binding) Element() *etree.Element {
	return b.el
}

// Resize clamps the requested rect to the configured bounds and writes it
// into the element's inline style. It returns the applied size.
func (b *Binding) Resize(w, h int) (int, int) {
	w = clamp(w, b.cfg.MinWidth, b.cfg.MaxWidth)
	h = clamp(h, b.cfg.MinHeight, b.cfg.MaxHeight)

	st := dom.ElementStyle(b.el)
	st.SetPx("width", w)
	st.SetPx("height", h)
	st.Apply(b.el)
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
