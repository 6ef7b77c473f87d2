package dom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses an HTML fragment into etree elements. Text inside
// elements is kept; bare text between top-level elements is ignored, pasted
// content is always element-wrapped.
func ParseFragment(s string) ([]*etree.Element, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to parse HTML fragment: %w", err)
	}

	var out []*etree.Element
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		out = append(out, convertElement(n))
	}
	return out, nil
}

func convertElement(n *html.Node) *etree.Element {
	doc := etree.NewDocument()
	el := doc.CreateElement(n.Data)
	for _, a := range n.Attr {
		el.CreateAttr(a.Key, a.Val)
	}
	convertChildren(el, n)
	return el
}

func convertChildren(parent *etree.Element, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			child := parent.CreateElement(c.Data)
			for _, a := range c.Attr {
				child.CreateAttr(a.Key, a.Val)
			}
			convertChildren(child, c)
		case html.TextNode:
			parent.CreateText(c.Data)
		}
	}
}
