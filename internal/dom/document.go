package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is an in-memory HTML page. All writes go through the mutator
// methods, which compare before writing and count effective changes.
// A Document is not safe for concurrent use; callers serialize access.
type Document struct {
	root      *html.Node
	mutations uint64
}

// Parse builds a Document from full page markup.
func Parse(markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{root: root}, nil
}

// MustParse is Parse for fixed markup.
func MustParse(markup string) *Document {
	d, err := Parse(markup)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Document) Root() *html.Node { return d.root }

// Body returns the body element. html.Parse always synthesizes one.
func (d *Document) Body() *html.Node {
	return Find(d.root, Tag("body"))
}

// Mutations is the number of effective writes since creation.
func (d *Document) Mutations() uint64 { return d.mutations }

func (d *Document) touch() { d.mutations++ }

// ByID finds the element with the given id attribute.
func (d *Document) ByID(id string) *html.Node {
	if id == "" {
		return nil
	}
	return Find(d.root, ID(id))
}

// Render serializes the whole document.
func (d *Document) Render() string {
	var b bytes.Buffer
	if err := html.Render(&b, d.root); err != nil {
		return ""
	}
	return b.String()
}

// SetAttr writes key=val when it differs. It reports whether it wrote.
func (d *Document) SetAttr(n *html.Node, key, val string) bool {
	if n == nil {
		return false
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			if n.Attr[i].Val == val {
				return false
			}
			n.Attr[i].Val = val
			d.touch()
			return true
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	d.touch()
	return true
}

// RemoveAttr deletes key if present.
func (d *Document) RemoveAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			d.touch()
			return true
		}
	}
	return false
}

// SetText replaces the children of n with a single text node.
func (d *Document) SetText(n *html.Node, text string) bool {
	if n == nil {
		return false
	}
	if c := n.FirstChild; c != nil && c.NextSibling == nil && c.Type == html.TextNode && c.Data == text {
		return false
	}
	if n.FirstChild == nil && text == "" {
		return false
	}
	clearChildren(n)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	d.touch()
	return true
}

// SetInnerHTML swaps the children of n for the parsed markup. Identical
// markup is not rewritten.
func (d *Document) SetInnerHTML(n *html.Node, markup string) (bool, error) {
	if n == nil {
		return false, nil
	}
	nodes, err := ParseFragment(n, markup)
	if err != nil {
		return false, err
	}
	if renderNodes(nodes) == InnerHTML(n) {
		return false, nil
	}
	clearChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	d.touch()
	return true, nil
}

// AppendChild attaches child as the last child of parent, detaching it
// from a previous parent first.
func (d *Document) AppendChild(parent, child *html.Node) {
	if parent == nil || child == nil {
		return
	}
	if child.Parent == parent && parent.LastChild == child {
		return
	}
	detach(child)
	parent.AppendChild(child)
	d.touch()
}

// InsertBefore places child before ref. A nil ref appends.
func (d *Document) InsertBefore(parent, child, ref *html.Node) {
	if parent == nil || child == nil || child == ref {
		return
	}
	if ref == nil {
		d.AppendChild(parent, child)
		return
	}
	if ref.Parent != parent {
		return
	}
	if child.Parent == parent && child.NextSibling == ref {
		return
	}
	detach(child)
	parent.InsertBefore(child, ref)
	d.touch()
}

// Prepend places child as the first child of parent.
func (d *Document) Prepend(parent, child *html.Node) {
	if parent == nil {
		return
	}
	if parent.FirstChild == nil {
		d.AppendChild(parent, child)
		return
	}
	d.InsertBefore(parent, child, parent.FirstChild)
}

// Remove detaches n from the tree.
func (d *Document) Remove(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	d.touch()
	return true
}

// ToggleClass adds or removes class name.
func (d *Document) ToggleClass(n *html.Node, class string, on bool) bool {
	if n == nil || class == "" {
		return false
	}
	fields := strings.Fields(GetAttr(n, "class"))
	has := false
	out := fields[:0]
	for _, f := range fields {
		if f == class {
			has = true
			if !on {
				continue
			}
		}
		out = append(out, f)
	}
	if has == on {
		return false
	}
	if on {
		out = append(out, class)
	}
	return d.SetAttr(n, "class", strings.Join(out, " "))
}

// SetValue sets a form control value: textarea content, select option
// selection, or the value attribute otherwise.
func (d *Document) SetValue(n *html.Node, val string) bool {
	if n == nil {
		return false
	}
	switch n.DataAtom {
	case atom.Textarea:
		return d.SetText(n, val)
	case atom.Select:
		changed := false
		for _, opt := range FindAll(n, Tag("option")) {
			if GetAttr(opt, "value") == val {
				changed = d.SetAttr(opt, "selected", "selected") || changed
			} else {
				changed = d.RemoveAttr(opt, "selected") || changed
			}
		}
		return changed
	default:
		return d.SetAttr(n, "value", val)
	}
}

// Value reads a form control value the same way SetValue writes it. A
// select without an explicitly selected option reports its first option.
func Value(n *html.Node) string {
	if n == nil {
		return ""
	}
	switch n.DataAtom {
	case atom.Textarea:
		return Text(n)
	case atom.Select:
		opts := FindAll(n, Tag("option"))
		for _, opt := range opts {
			if _, ok := Attr(opt, "selected"); ok {
				return GetAttr(opt, "value")
			}
		}
		if len(opts) > 0 {
			return GetAttr(opts[0], "value")
		}
		return ""
	default:
		return GetAttr(n, "value")
	}
}

// Element builds a detached element. attrs are key, value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// ParseFragment parses markup in the context of the given element.
func ParseFragment(context *html.Node, markup string) ([]*html.Node, error) {
	if context == nil || context.Type != html.ElementNode {
		context = &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// InnerHTML renders the children of n.
func InnerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var list []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		list = append(list, c)
	}
	return renderNodes(list)
}

// OuterHTML renders n itself.
func OuterHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b bytes.Buffer
	_ = html.Render(&b, n)
	return b.String()
}

func renderNodes(nodes []*html.Node) string {
	var b bytes.Buffer
	for _, c := range nodes {
		_ = html.Render(&b, c)
	}
	return b.String()
}

func clearChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
