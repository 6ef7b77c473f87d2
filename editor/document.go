package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"

	"wsc/dom"
	"wsc/embeds"
)

// EmptyParagraph is the canonical representation of a region without content.
const EmptyParagraph = "<p><br/></p>"

// Document is an etree-backed Editor. It models content as a sequence of
// blocks: paragraphs with inline children, and non-editable block embeds
// (page breaks). Inline text counts one unit per rune, inline embeds count
// one unit each, every paragraph adds one boundary unit and a block embed is
// exactly one unit. A placeholder <br/> inside an otherwise empty paragraph
// is zero width.
type Document struct {
	registry *embeds.Registry
	root     *etree.Element

	sel     int
	haveSel bool

	focusFns []func()
	addedFns map[int]func(*etree.Element)
	nextSub  int
}

var _ Editor = (*Document)(nil)

// NewDocument returns an empty document holding a single empty paragraph.
func NewDocument(registry *embeds.Registry) *Document {
	d := &Document{
		registry: registry,
		root:     etree.NewElement("div"),
		addedFns: make(map[int]func(*etree.Element)),
	}
	d.appendEmptyParagraph()
	return d
}

func (d *Document) appendEmptyParagraph() *etree.Element {
	p := d.root.CreateElement("p")
	p.CreateElement("br")
	return p
}

func (d *Document) Root() *etree.Element { return d.root }

func (d *Document) blocks() []*etree.Element {
	return d.root.ChildElements()
}

func isParagraph(el *etree.Element) bool {
	return strings.ToLower(el.Tag) == "p"
}

func inlineUnits(p *etree.Element) int {
	total := 0
	for _, child := range p.Child {
		switch n := child.(type) {
		case *etree.CharData:
			total += utf8.RuneCountInString(n.Data)
		case *etree.Element:
			if strings.ToLower(n.Tag) != "br" {
				total++
			}
		}
	}
	return total
}

func blockUnits(b *etree.Element) int {
	if isParagraph(b) {
		return inlineUnits(b) + 1
	}
	return 1
}

func (d *Document) Length() int {
	total := 0
	for _, b := range d.blocks() {
		total += blockUnits(b)
	}
	return total
}

func (d *Document) Selection() (int, bool) {
	return d.sel, d.haveSel
}

func (d *Document) SetSelection(index int) {
	if index < 0 {
		index = 0
	}
	if max := d.Length(); index > max {
		index = max
	}
	d.sel = index
	d.haveSel = true
}

func (d *Document) Focus() {
	for _, fn := range d.focusFns {
		fn()
	}
}

func (d *Document) OnFocus(fn func()) {
	d.focusFns = append(d.focusFns, fn)
}

func (d *Document) OnNodeAdded(fn func(*etree.Element)) func() {
	id := d.nextSub
	d.nextSub++
	d.addedFns[id] = fn
	return func() { delete(d.addedFns, id) }
}

func (d *Document) notifyAdded(el *etree.Element) {
	for _, fn := range d.addedFns {
		fn(el)
	}
}

// locate finds the block containing index and the inline offset within it.
// Indices past the end land at the end of the last block.
func (d *Document) locate(index int) (*etree.Element, int) {
	blocks := d.blocks()
	acc := 0
	for _, b := range blocks {
		bl := blockUnits(b)
		if index < acc+bl {
			return b, index - acc
		}
		acc += bl
	}
	last := blocks[len(blocks)-1]
	if isParagraph(last) {
		return last, inlineUnits(last)
	}
	return last, 0
}

// stripPlaceholder removes the zero-width <br/> from an empty paragraph
// before real content goes in.
func stripPlaceholder(p *etree.Element) {
	if inlineUnits(p) != 0 {
		return
	}
	for i := len(p.Child) - 1; i >= 0; i-- {
		if el, ok := p.Child[i].(*etree.Element); ok && strings.ToLower(el.Tag) == "br" {
			p.RemoveChildAt(i)
		}
	}
}

// insertInline places a detached node (or text) at offset within paragraph p.
// Exactly one of node/text is used.
func insertInline(p *etree.Element, offset int, node *etree.Element, text string) {
	stripPlaceholder(p)

	acc := 0
	for i := 0; i < len(p.Child); i++ {
		switch n := p.Child[i].(type) {
		case *etree.CharData:
			rl := utf8.RuneCountInString(n.Data)
			if offset < acc+rl {
				// split the text run
				runes := []rune(n.Data)
				head, tail := string(runes[:offset-acc]), string(runes[offset-acc:])
				n.Data = head
				p.InsertChildAt(i+1, etree.NewText(tail))
				insertChildAt(p, i+1, node, text)
				return
			}
			if offset == acc+rl {
				insertChildAt(p, i+1, node, text)
				return
			}
			acc += rl
		case *etree.Element:
			if strings.ToLower(n.Tag) == "br" {
				continue
			}
			if offset == acc {
				insertChildAt(p, i, node, text)
				return
			}
			acc++
		}
	}
	insertChildAt(p, len(p.Child), node, text)
}

func insertChildAt(p *etree.Element, i int, node *etree.Element, text string) {
	if node != nil {
		p.InsertChildAt(i, node)
		return
	}
	p.InsertChildAt(i, etree.NewText(text))
}

// ensureParagraphAt returns a paragraph to take an inline insertion at index.
// When index lands on a block embed a fresh paragraph is created before it.
func (d *Document) ensureParagraphAt(index int) (*etree.Element, int) {
	b, offset := d.locate(index)
	if isParagraph(b) {
		return b, offset
	}
	p := etree.NewElement("p")
	d.insertBlockBefore(b, p)
	return p, 0
}

func (d *Document) insertBlockBefore(anchor, block *etree.Element) {
	for i, child := range d.root.Child {
		if el, ok := child.(*etree.Element); ok && el == anchor {
			d.root.InsertChildAt(i, block)
			return
		}
	}
	d.root.AddChild(block)
}

func (d *Document) InsertText(index int, text string) error {
	if len(text) == 0 {
		return nil
	}
	p, offset := d.ensureParagraphAt(index)
	insertInline(p, offset, nil, text)
	return nil
}

func (d *Document) InsertEmbed(index int, v embeds.Variant, value string) error {
	node, err := d.registry.Create(v, value)
	if err != nil {
		return fmt.Errorf("unable to construct %s embed: %w", v, err)
	}

	if v == embeds.PageBreak {
		d.insertBlock(index, node)
	} else {
		p, offset := d.ensureParagraphAt(index)
		insertInline(p, offset, node, "")
	}
	d.notifyAdded(node)
	return nil
}

// insertBlock splits the paragraph at index when the index falls inside one,
// otherwise places the block between blocks.
func (d *Document) insertBlock(index int, block *etree.Element) {
	b, offset := d.locate(index)
	if !isParagraph(b) {
		d.insertBlockBefore(b, block)
		return
	}
	if offset == 0 {
		d.insertBlockBefore(b, block)
		return
	}
	if offset >= inlineUnits(b) {
		d.insertBlockAfter(b, block)
		return
	}

	// split the paragraph
	tail := etree.NewElement("p")
	moveInlineTail(b, offset, tail)
	d.insertBlockAfter(b, block)
	d.insertBlockAfter(block, tail)
}

func (d *Document) insertBlockAfter(anchor, block *etree.Element) {
	for i, child := range d.root.Child {
		if el, ok := child.(*etree.Element); ok && el == anchor {
			d.root.InsertChildAt(i+1, block)
			return
		}
	}
	d.root.AddChild(block)
}

// moveInlineTail moves the inline content of p from offset onward into dst.
func moveInlineTail(p *etree.Element, offset int, dst *etree.Element) {
	acc := 0
	split := -1
	for i := 0; i < len(p.Child); i++ {
		switch n := p.Child[i].(type) {
		case *etree.CharData:
			rl := utf8.RuneCountInString(n.Data)
			if offset > acc && offset < acc+rl {
				runes := []rune(n.Data)
				head, tailText := string(runes[:offset-acc]), string(runes[offset-acc:])
				n.Data = head
				p.InsertChildAt(i+1, etree.NewText(tailText))
				split = i + 1
			} else if offset <= acc {
				split = i
			}
			acc += rl
		case *etree.Element:
			if strings.ToLower(n.Tag) != "br" {
				if offset <= acc && split < 0 {
					split = i
				}
				acc++
			}
		}
		if split >= 0 {
			break
		}
	}
	if split < 0 {
		return
	}
	for len(p.Child) > split {
		tok := p.RemoveChildAt(split)
		dst.AddChild(tok)
	}
}

func (d *Document) PasteHTML(index int, fragment string) error {
	els, err := dom.ParseFragment(fragment)
	if err != nil {
		return fmt.Errorf("unable to paste fragment: %w", err)
	}
	at := index
	for _, el := range els {
		if isBlockTag(el.Tag) {
			d.insertBlock(at, el)
		} else {
			p, offset := d.ensureParagraphAt(at)
			insertInline(p, offset, el, "")
		}
		d.notifyAdded(el)
		at++
	}
	return nil
}

func isBlockTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "p", "div", "hr", "blockquote", "ul", "ol", "table":
		return true
	}
	return false
}

func (d *Document) HTML() string {
	return dom.SerializeChildren(d.root)
}

func (d *Document) SetHTML(content string) error {
	els, err := dom.ParseFragment(content)
	if err != nil {
		return fmt.Errorf("unable to set content: %w", err)
	}

	d.root.Child = nil
	var open *etree.Element // paragraph collecting stray inline nodes
	for _, el := range els {
		if isBlockTag(el.Tag) {
			d.root.AddChild(el)
			open = nil
			continue
		}
		if open == nil {
			open = d.root.CreateElement("p")
		}
		open.AddChild(el)
	}
	if len(d.root.ChildElements()) == 0 {
		d.appendEmptyParagraph()
	}
	return nil
}
