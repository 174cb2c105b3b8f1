package dispatcher_test

import (
	"sync"
	"sync/atomic"

	"valve_control/internal/dispatcher"
)

type fakeElement struct {
	data  map[string]string
	value string

	mu       sync.Mutex
	handlers []func()
}

func (e *fakeElement) Data(name string) (string, bool) {
	v, ok := e.data[name]
	return v, ok
}

func (e *fakeElement) Value() string { return e.value }

func (e *fakeElement) OnClick(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, fn)
}

func (e *fakeElement) Click() {
	e.mu.Lock()
	hs := append([]func(){}, e.handlers...)
	e.mu.Unlock()
	for _, h := range hs {
		h()
	}
}

func (e *fakeElement) bound() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

type fakeDocument struct {
	uri     string
	byClass map[string][]*fakeElement
	reloads atomic.Int32
}

func newFakeDocument(uri string) *fakeDocument {
	return &fakeDocument{uri: uri, byClass: make(map[string][]*fakeElement)}
}

func (d *fakeDocument) add(class string, data map[string]string, value string) *fakeElement {
	el := &fakeElement{data: data, value: value}
	d.byClass[class] = append(d.byClass[class], el)
	return el
}

func (d *fakeDocument) ElementsByClass(class string) []dispatcher.Element {
	out := make([]dispatcher.Element, 0, len(d.byClass[class]))
	for _, el := range d.byClass[class] {
		out = append(out, el)
	}
	return out
}

func (d *fakeDocument) URI() string { return d.uri }

func (d *fakeDocument) Reload() { d.reloads.Add(1) }
