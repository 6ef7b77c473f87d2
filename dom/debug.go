package dom

import (
	"strings"

	"github.com/beevik/etree"

	"wsc/utils/debug"
)

// DumpTree returns a readable tree of a content element for manual inspection
// during debugging. Attribute values stay inline, text nodes are quoted via
// escaped control sequences.
func DumpTree(el *etree.Element) string {
	if el == nil {
		return "<nil element>"
	}
	tw := debug.NewTreeWriter()
	dumpElement(tw, el, 0)
	return tw.String()
}

func dumpElement(tw *debug.TreeWriter, el *etree.Element, depth int) {
	var attrs strings.Builder
	for _, a := range el.Attr {
		attrs.WriteString(" ")
		attrs.WriteString(a.Key)
		attrs.WriteString("=")
		attrs.WriteString(a.Value)
	}
	tw.Line(depth, "<%s>%s", el.Tag, attrs.String())

	for _, child := range el.Child {
		switch n := child.(type) {
		case *etree.Element:
			dumpElement(tw, n, depth+1)
		case *etree.CharData:
			if len(strings.TrimSpace(n.Data)) > 0 {
				tw.TextBlock(depth+1, "text", n.Data)
			}
		}
	}
}
