// Package htmldoc adapts a parsed HTML page to the dispatcher's Document.
// Clicks bubble to ancestors the way they do in a browser.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"valve_control/internal/dispatcher"

	"golang.org/x/net/html"
)

type Document struct {
	uri  string
	root *html.Node

	mu       sync.Mutex
	elems    map[*html.Node]*Element
	reloads  int
	onReload func()
}

// Parse reads an HTML page served from uri.
func Parse(r io.Reader, uri string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", uri, err)
	}
	return &Document{uri: uri, root: root, elems: make(map[*html.Node]*Element)}, nil
}

// Fetch GETs uri with client and parses the response.
func Fetch(ctx context.Context, client dispatcher.Doer, uri string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", uri, resp.StatusCode)
	}
	return Parse(resp.Body, uri)
}

func (d *Document) URI() string { return d.uri }

// OnReload sets a hook run on every Reload.
func (d *Document) OnReload(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onReload = fn
}

func (d *Document) Reload() {
	d.mu.Lock()
	d.reloads++
	fn := d.onReload
	d.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Reloads reports how many times Reload ran.
func (d *Document) Reloads() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reloads
}

func (d *Document) ElementsByClass(class string) []dispatcher.Element {
	found := d.ByClass(class)
	out := make([]dispatcher.Element, len(found))
	for i, el := range found {
		out[i] = el
	}
	return out
}

// ByClass returns the elements carrying class, in document order.
func (d *Document) ByClass(class string) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) {
		if hasClass(n, class) {
			out = append(out, d.element(n))
		}
	})
	return out
}

// ByTag returns the elements with the given tag name, in document order.
func (d *Document) ByTag(tag string) []*Element {
	var out []*Element
	walk(d.root, func(n *html.Node) {
		if n.Data == tag {
			out = append(out, d.element(n))
		}
	})
	return out
}

func (d *Document) element(n *html.Node) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.elems[n]
	if !ok {
		el = &Element{doc: d, node: n}
		d.elems[n] = el
	}
	return el
}

type Element struct {
	doc  *Document
	node *html.Node

	mu       sync.Mutex
	handlers []func()
}

// Attr returns a raw attribute.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

func (e *Element) Data(name string) (string, bool) {
	return attr(e.node, "data-"+name)
}

// Value is the value attribute; for a form it is the value of its checked input.
func (e *Element) Value() string {
	if e.node.Data == "form" {
		var v string
		var found bool
		walk(e.node, func(n *html.Node) {
			if found || n.Data != "input" {
				return
			}
			if _, checked := attr(n, "checked"); checked {
				v, _ = attr(n, "value")
				found = true
			}
		})
		return v
	}
	v, _ := attr(e.node, "value")
	return v
}

func (e *Element) OnClick(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

// Click checks a radio input, then runs the listeners of the element and
// of each ancestor that has any.
func (e *Element) Click() {
	if e.node.Data == "input" {
		if t, _ := attr(e.node, "type"); strings.EqualFold(t, "radio") {
			e.doc.check(e.node)
		}
	}
	for n := e.node; n != nil; n = n.Parent {
		e.doc.mu.Lock()
		el := e.doc.elems[n]
		e.doc.mu.Unlock()
		if el == nil {
			continue
		}
		el.mu.Lock()
		hs := append([]func(){}, el.handlers...)
		el.mu.Unlock()
		for _, h := range hs {
			h()
		}
	}
}

// check marks radio checked and clears the rest of its name group.
func (d *Document) check(radio *html.Node) {
	name, _ := attr(radio, "name")
	d.mu.Lock()
	defer d.mu.Unlock()
	walk(d.root, func(n *html.Node) {
		if n.Data != "input" {
			return
		}
		if other, _ := attr(n, "name"); other == name && name != "" || n == radio {
			removeAttr(n, "checked")
		}
	})
	radio.Attr = append(radio.Attr, html.Attribute{Key: "checked"})
}

func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
