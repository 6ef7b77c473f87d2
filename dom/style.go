package dom

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Style is an ordered set of inline CSS declarations. Order is preserved so
// that serialized style attributes stay stable across round-trips.
type Style struct {
	decls []decl
}

type decl struct {
	prop string
	val  string
}

// ParseStyle parses the content of a style attribute. Unparseable input
// yields an empty style rather than an error, browsers are just as lenient.
func ParseStyle(s string) *Style {
	st := &Style{}
	if len(strings.TrimSpace(s)) == 0 {
		return st
	}

	p := css.NewParser(parse.NewInput(bytes.NewReader([]byte(s))), true)
	for {
		gt, _, data := p.Next()
		if gt == css.ErrorGrammar {
			return st
		}
		if gt != css.DeclarationGrammar && gt != css.CustomPropertyGrammar {
			continue
		}
		var val strings.Builder
		for _, tok := range p.Values() {
			val.Write(tok.Data)
		}
		st.Set(string(data), strings.TrimSpace(val.String()))
	}
}

// ElementStyle parses the element's style attribute.
func ElementStyle(el *etree.Element) *Style {
	return ParseStyle(el.SelectAttrValue("style", ""))
}

// Get returns the value for prop, empty string when absent.
func (s *Style) Get(prop string) string {
	for _, d := range s.decls {
		if d.prop == prop {
			return d.val
		}
	}
	return ""
}

// Set adds or replaces a declaration, keeping the original position on update.
func (s *Style) Set(prop, val string) {
	for i, d := range s.decls {
		if d.prop == prop {
			s.decls[i].val = val
			return
		}
	}
	s.decls = append(s.decls, decl{prop: prop, val: val})
}

// Px returns the numeric value of a pixel-sized declaration.
func (s *Style) Px(prop string) (int, bool) {
	v := s.Get(prop)
	if !strings.HasSuffix(v, "px") {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, "px"), 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// SetPx sets a pixel-sized declaration.
func (s *Style) SetPx(prop string, v int) {
	s.Set(prop, fmt.Sprintf("%dpx", v))
}

func (s *Style) Len() int {
	return len(s.decls)
}

// String serializes declarations back into style attribute form.
func (s *Style) String() string {
	var b strings.Builder
	for i, d := range s.decls {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(d.prop)
		b.WriteByte(':')
		b.WriteString(d.val)
	}
	return b.String()
}

// Apply writes the style back into the element's style attribute.
func (s *Style) Apply(el *etree.Element) {
	el.CreateAttr("style", s.String())
}
