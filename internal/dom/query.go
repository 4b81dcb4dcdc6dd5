package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// Matcher selects element nodes.
type Matcher func(n *html.Node) bool

func Tag(name string) Matcher {
	return func(n *html.Node) bool { return n.Data == name }
}

func ID(id string) Matcher {
	return func(n *html.Node) bool { return GetAttr(n, "id") == id }
}

func Class(name string) Matcher {
	return func(n *html.Node) bool { return HasClass(n, name) }
}

// AttrEq matches key=val.
func AttrEq(key, val string) Matcher {
	return func(n *html.Node) bool {
		v, ok := Attr(n, key)
		return ok && v == val
	}
}

// DataID matches data-id=id.
func DataID(id string) Matcher { return AttrEq("data-id", id) }

// And combines matchers.
func And(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Any matches when one of ms matches.
func Any(ms ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// Find returns the first descendant element of root (root excluded)
// matched by m, in document order.
func Find(root *html.Node, m Matcher) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && m(c) {
			return c
		}
		if found := Find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant element matched by m in document order.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Children returns the element children of n matched by m. A nil m
// matches all element children.
func Children(n *html.Node, m Matcher) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if m == nil || m(c) {
			out = append(out, c)
		}
	}
	return out
}

// Attr reads an attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// GetAttr reads an attribute, empty when absent.
func GetAttr(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

func HasClass(n *html.Node, class string) bool {
	for _, f := range strings.Fields(GetAttr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(Text(c))
	}
	return b.String()
}

// Closest walks up from n (inclusive) to the first element matched by m.
func Closest(n *html.Node, m Matcher) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && m(p) {
			return p
		}
	}
	return nil
}
