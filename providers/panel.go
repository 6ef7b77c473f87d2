// Package providers implements the asset panels of the composer: remote
// image and sticker search, the bundled emoji and shape catalogs and local
// uploads. Every provider renders into a Panel and hands out drag payloads.
package providers

import (
	"fmt"
	"sync"

	"github.com/beevik/etree"

	"wsc/dom"
	"wsc/dragdrop"
)

// State is the render surface's lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateResults
	StateEmpty
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateResults:
		return "results"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Candidate is one search result before rendering.
type Candidate struct {
	Key         string // dedupe identity
	Title       string
	DisplayURL  string // what the panel shows
	FallbackURL string // tried once if the display source fails
	Payload     dragdrop.Payload
}

// Item is a rendered, draggable panel entry.
type Item struct {
	Key     string
	Element *etree.Element
	Payload dragdrop.Payload

	fallbackURL   string
	fallbackTried bool
}

// Panel is the render surface shared by all providers. It is safe for
// concurrent use, search pipelines and error callbacks run on their own
// goroutines.
type Panel struct {
	mu       sync.Mutex
	state    State
	err      error
	items    []*Item
	index    map[string]*Item
	onRemove func(key string)
}

func NewPanel() *Panel {
	return &Panel{index: make(map[string]*Item)}
}

// OnRemove installs a hook invoked when an item is dropped from the panel
// after its sources failed. Providers use it to release dedupe keys.
func (p *Panel) OnRemove(fn func(key string)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onRemove = fn
}

// Loading clears the panel and shows the progress state.
func (p *Panel) Loading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateLoading
	p.err = nil
	p.items = nil
	p.index = make(map[string]*Item)
}

// Fail puts the panel into the error state.
func (p *Panel) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StateError
	p.err = err
	p.items = nil
	p.index = make(map[string]*Item)
}

// Render replaces the panel content with the given candidates. Duplicate
// keys within one render are dropped. An empty result set shows the empty
// state.
func (p *Panel) Render(cands []Candidate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.err = nil
	p.items = nil
	p.index = make(map[string]*Item)
	for _, c := range cands {
		if _, dup := p.index[c.Key]; dup {
			continue
		}
		item := &Item{
			Key:         c.Key,
			Element:     renderItem(c),
			Payload:     c.Payload,
			fallbackURL: c.FallbackURL,
		}
		p.items = append(p.items, item)
		p.index[c.Key] = item
	}
	if len(p.items) == 0 {
		p.state = StateEmpty
		return
	}
	p.state = StateResults
}

// State returns the current phase.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure behind the error state.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Items returns the rendered entries in display order.
func (p *Panel) Items() []*Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Item, len(p.items))
	copy(out, p.items)
	return out
}

// Item looks an entry up by key.
func (p *Panel) Item(key string) (*Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.index[key]
	return it, ok
}

// Len returns the number of rendered entries.
func (p *Panel) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// HandleImageError reacts to a display source failing to load. The first
// failure swaps in the fallback source when the item has one; any further
// failure removes the item so it does not occupy blank space. It reports
// whether the item is still present.
func (p *Panel) HandleImageError(key string) bool {
	p.mu.Lock()

	it, ok := p.index[key]
	if !ok {
		p.mu.Unlock()
		return false
	}
	if len(it.fallbackURL) > 0 && !it.fallbackTried {
		it.fallbackTried = true
		swapItemSource(it.Element, it.fallbackURL)
		it.Payload.PrimaryValue = it.fallbackURL
		p.mu.Unlock()
		return true
	}

	delete(p.index, key)
	for i, cur := range p.items {
		if cur == it {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	if len(p.items) == 0 && p.state == StateResults {
		p.state = StateEmpty
	}
	onRemove := p.onRemove
	p.mu.Unlock()

	if onRemove != nil {
		onRemove(key)
	}
	return false
}

// renderItem builds the draggable element for a candidate. Emoji entries
// are glyph spans, everything else is an image tile.
func renderItem(c Candidate) *etree.Element {
	var el *etree.Element
	if c.Payload.Type == dragdrop.TypeEmoji {
		el = etree.NewElement("span")
		el.AddChild(etree.NewText(c.Payload.PrimaryValue))
	} else {
		el = etree.NewElement("img")
		el.CreateAttr("src", c.DisplayURL)
		if len(c.Title) > 0 {
			el.CreateAttr("alt", c.Title)
		}
	}
	dom.AddClass(el, "draggable-item")
	el.CreateAttr("draggable", "true")
	el.CreateAttr("data-type", string(c.Payload.Type))
	el.CreateAttr("data-src", dataSrc(c))
	return el
}

func dataSrc(c Candidate) string {
	if len(c.Payload.PrimaryValue) > 0 {
		return c.Payload.PrimaryValue
	}
	return c.DisplayURL
}

func swapItemSource(el *etree.Element, src string) {
	if el.SelectAttr("src") != nil {
		el.CreateAttr("src", src)
	}
	el.CreateAttr("data-src", src)
}
