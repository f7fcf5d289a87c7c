package analyzers

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseHTML(body []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(body))
}

// walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// findAll returns every element matching pred, in document order
func findAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

func isElement(a atom.Atom) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.DataAtom == a }
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

// hasClass reports whether any class of n contains one of the fragments
func hasClass(n *html.Node, fragments ...string) bool {
	classes := strings.Fields(attrValue(n, "class"))
	for _, c := range classes {
		for _, f := range fragments {
			if strings.Contains(c, f) {
				return true
			}
		}
	}
	return false
}

// metaContent returns the content of <meta name=name>
func metaContent(root *html.Node, name string) (string, bool) {
	for _, m := range findAll(root, isElement(atom.Meta)) {
		if strings.EqualFold(attrValue(m, "name"), name) {
			return attrValue(m, "content"), true
		}
	}
	return "", false
}

// textContent collects the visible text under n with whitespace collapsed
func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		switch c.Type {
		case html.ElementNode:
			if c.DataAtom == atom.Script || c.DataAtom == atom.Style || c.DataAtom == atom.Noscript {
				return false
			}
		case html.TextNode:
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// stripTags renders an HTML fragment as plain text
func stripTags(fragment string) string {
	doc, err := parseHTML([]byte(fragment))
	if err != nil {
		return fragment
	}
	return textContent(doc)
}
