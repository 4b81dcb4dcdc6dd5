package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Declaration is one CSS property: value pair of an inline style.
type Declaration struct {
	Prop  string
	Value string
}

// ParseStyle splits inline CSS text into declarations. Semicolons inside
// parentheses or quotes (url(data:...), content strings) do not split.
func ParseStyle(css string) []Declaration {
	var out []Declaration
	var cur strings.Builder
	depth := 0
	var quote rune
	flush := func() {
		decl := strings.TrimSpace(cur.String())
		cur.Reset()
		if decl == "" {
			return
		}
		i := strings.IndexByte(decl, ':')
		if i <= 0 {
			return
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:i]))
		val := strings.TrimSpace(decl[i+1:])
		if prop == "" {
			return
		}
		out = append(out, Declaration{Prop: prop, Value: val})
	}
	for _, r := range css {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case r == ';' && depth == 0:
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return out
}

// FormatStyle serializes declarations as "prop: value;" pairs.
func FormatStyle(decls []Declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.Prop+": "+d.Value+";")
	}
	return strings.Join(parts, " ")
}

// ComposeStyle applies overrides on top of a base CSS text. Overrides
// replace a matching property in place or are appended; an empty override
// value removes the property.
func ComposeStyle(base string, overrides ...Declaration) string {
	decls := ParseStyle(base)
	for _, o := range overrides {
		prop := strings.ToLower(strings.TrimSpace(o.Prop))
		idx := -1
		for i := range decls {
			if decls[i].Prop == prop {
				idx = i
			}
		}
		switch {
		case o.Value == "" && idx >= 0:
			decls = append(decls[:idx], decls[idx+1:]...)
		case o.Value == "":
		case idx >= 0:
			decls[idx].Value = o.Value
		default:
			decls = append(decls, Declaration{Prop: prop, Value: o.Value})
		}
	}
	return FormatStyle(decls)
}

// NormalizeStyle rewrites CSS text into the canonical FormatStyle form so
// equal styles compare equal.
func NormalizeStyle(css string) string { return FormatStyle(ParseStyle(css)) }

// StyleProp reads one property of n's inline style.
func StyleProp(n *html.Node, prop string) string {
	prop = strings.ToLower(prop)
	val := ""
	for _, d := range ParseStyle(GetAttr(n, "style")) {
		if d.Prop == prop {
			val = d.Value
		}
	}
	return val
}

// SetStyle writes n's style attribute in canonical form when it differs.
func (d *Document) SetStyle(n *html.Node, css string) bool {
	norm := NormalizeStyle(css)
	if cur, ok := Attr(n, "style"); ok && cur == norm {
		return false
	}
	if _, ok := Attr(n, "style"); !ok && norm == "" {
		return false
	}
	return d.SetAttr(n, "style", norm)
}

// SetStyleProp updates a single property of n's inline style.
func (d *Document) SetStyleProp(n *html.Node, prop, val string) bool {
	if n == nil {
		return false
	}
	return d.SetStyle(n, ComposeStyle(GetAttr(n, "style"), Declaration{Prop: prop, Value: val}))
}
