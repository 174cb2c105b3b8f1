//go:build js && wasm

// Package domjs binds the dispatcher to the browser DOM.
package domjs

import (
	"syscall/js"

	"valve_control/internal/dispatcher"
)

type Document struct {
	doc js.Value
	win js.Value
}

func New() *Document {
	return &Document{doc: js.Global().Get("document"), win: js.Global().Get("window")}
}

// Ready blocks until the DOM has been parsed.
func (d *Document) Ready() {
	if d.doc.Get("readyState").String() != "loading" {
		return
	}
	done := make(chan struct{})
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		close(done)
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", cb)
	<-done
}

func (d *Document) ElementsByClass(class string) []dispatcher.Element {
	coll := d.doc.Call("getElementsByClassName", class)
	n := coll.Length()
	out := make([]dispatcher.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{v: coll.Index(i)})
	}
	return out
}

func (d *Document) URI() string {
	return d.doc.Get("documentURI").String()
}

func (d *Document) Reload() {
	d.win.Get("location").Call("reload")
}

type Element struct {
	v js.Value
}

func (e *Element) Data(name string) (string, bool) {
	v := e.v.Get("dataset").Get(name)
	if v.IsUndefined() || v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// Value of a form is the value of its checked input.
func (e *Element) Value() string {
	if e.v.Get("tagName").String() == "FORM" {
		checked := e.v.Call("querySelector", "input:checked")
		if checked.IsNull() {
			return ""
		}
		return checked.Get("value").String()
	}
	return e.v.Get("value").String()
}

// OnClick adds a listener that lives as long as the page.
func (e *Element) OnClick(fn func()) {
	e.v.Call("addEventListener", "click", js.FuncOf(func(js.Value, []js.Value) any {
		fn()
		return nil
	}))
}
