package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document owns the parsed tree plus listener bookkeeping.
type Document struct {
	mu        sync.RWMutex
	root      *html.Node
	elements  map[*html.Node]*Element
	listeners map[*html.Node][]*listener
	nextID    uint64
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return newDocument(root), nil
}

// ParseString is a convenience wrapper around Parse.
func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// MustParseString panics on parse failure. Intended for tests.
func MustParseString(markup string) *Document {
	doc, err := ParseString(markup)
	if err != nil {
		panic(err)
	}
	return doc
}

func newDocument(root *html.Node) *Document {
	return &Document{
		root:      root,
		elements:  make(map[*html.Node]*Element),
		listeners: make(map[*html.Node][]*listener),
	}
}

// Render writes the current tree, including edited values, as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

// Body returns the <body> element, if any.
func (d *Document) Body() *Element {
	return d.findFirst(func(n *html.Node) bool {
		return n.DataAtom == atom.Body
	})
}

// ByID returns the element with the given id attribute.
func (d *Document) ByID(id string) *Element {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	return d.findFirst(func(n *html.Node) bool {
		return attr(n, "id") == id
	})
}

// Forms returns every <form> element in document order.
func (d *Document) Forms() []*Element {
	return d.findAll(d.root, func(n *html.Node) bool {
		return n.DataAtom == atom.Form
	})
}

// FirstForm returns the first <form>, or nil.
func (d *Document) FirstForm() *Element {
	return d.findFirst(func(n *html.Node) bool {
		return n.DataAtom == atom.Form
	})
}

// WithAttr returns elements carrying the named attribute, in document order.
func (d *Document) WithAttr(name string) []*Element {
	return d.findAll(d.root, func(n *html.Node) bool {
		_, ok := lookupAttr(n, name)
		return ok
	})
}

// AddEventListener registers a document-level listener. Every event that
// bubbles out of a connected element reaches it.
func (d *Document) AddEventListener(eventType string, fn Listener) (remove func()) {
	return d.addListener(d.root, eventType, fn)
}

// ListenerCount reports the number of registered listeners.
func (d *Document) ListenerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	total := 0
	for _, items := range d.listeners {
		total += len(items)
	}
	return total
}

func (d *Document) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

func (d *Document) findFirst(match func(*html.Node) bool) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var found *html.Node
	walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return d.wrap(found)
}

func (d *Document) findAll(from *html.Node, match func(*html.Node) bool) []*Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Element
	walk(from, func(n *html.Node) bool {
		if n != from && n.Type == html.ElementNode && match(n) {
			out = append(out, d.wrap(n))
		}
		return true
	})
	return out
}

// walk visits nodes depth-first in document order until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if !walk(child, visit) {
			return false
		}
	}
	return true
}

func lookupAttr(n *html.Node, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func attr(n *html.Node, name string) string {
	v, _ := lookupAttr(n, name)
	return v
}

func setAttr(n *html.Node, name, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(name), Val: value})
}

func removeAttr(n *html.Node, name string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(node *html.Node) bool {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		return true
	})
	return b.String()
}

func setTextContent(n *html.Node, value string) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		n.RemoveChild(child)
		child = next
	}
	if value != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: value})
	}
}
