// Package dom provides the HTML node model for the composition engine. Nodes
// are etree elements; fragments move in and out as HTML text.
package dom

import (
	"strings"

	"github.com/beevik/etree"
)

// Void elements are serialized without end tags.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// HasClass reports whether the element's class attribute contains name.
func HasClass(el *etree.Element, name string) bool {
	for _, c := range strings.Fields(el.SelectAttrValue("class", "")) {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends name to the element's class attribute if not present.
func AddClass(el *etree.Element, name string) {
	if HasClass(el, name) {
		return
	}
	cur := el.SelectAttrValue("class", "")
	if len(cur) == 0 {
		el.CreateAttr("class", name)
		return
	}
	el.CreateAttr("class", cur+" "+name)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func escapeAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// SerializeElement writes the element and its subtree as HTML.
func SerializeElement(el *etree.Element) string {
	var b strings.Builder
	writeElement(&b, el)
	return b.String()
}

// SerializeChildren writes the element's child nodes as an HTML fragment.
func SerializeChildren(el *etree.Element) string {
	var b strings.Builder
	for _, child := range el.Child {
		writeNode(&b, child)
	}
	return b.String()
}

// SerializeElements writes a list of sibling elements as an HTML fragment.
func SerializeElements(els []*etree.Element) string {
	var b strings.Builder
	for _, el := range els {
		writeElement(&b, el)
	}
	return b.String()
}

func writeNode(b *strings.Builder, token etree.Token) {
	switch n := token.(type) {
	case *etree.Element:
		writeElement(b, n)
	case *etree.CharData:
		b.WriteString(escapeText(n.Data))
	}
}

func writeElement(b *strings.Builder, el *etree.Element) {
	tag := strings.ToLower(el.Tag)
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range el.Attr {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(a.Value))
		b.WriteByte('"')
	}
	if voidElements[tag] && len(el.Child) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	for _, child := range el.Child {
		writeNode(b, child)
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
}

// Text returns the concatenated character data of the subtree.
func Text(el *etree.Element) string {
	var b strings.Builder
	collectText(&b, el)
	return b.String()
}

func collectText(b *strings.Builder, el *etree.Element) {
	for _, child := range el.Child {
		switch n := child.(type) {
		case *etree.Element:
			collectText(b, n)
		case *etree.CharData:
			b.WriteString(n.Data)
		}
	}
}
