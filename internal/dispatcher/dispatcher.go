// Package dispatcher turns clicks on the valve pages into REST mutations and
// reloads the page once the server has answered.
package dispatcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"valve_control/internal/logger"
)

// ErrAlreadyInitialized is returned by a second Init call.
var ErrAlreadyInitialized = errors.New("dispatcher already initialized")

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Dispatcher struct {
	doc        Document
	client     Doer
	log        *logger.Logger
	valveAttrs []string

	mu    sync.Mutex
	bound bool
	wg    sync.WaitGroup
}

type Option func(*Dispatcher)

// WithClient sets the HTTP client; http.DefaultClient otherwise.
func WithClient(c Doer) Option {
	return func(d *Dispatcher) { d.client = c }
}

func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithValveAttributes sets the data attributes tried, in order, for the valve
// identifier. The default is valve_number, then index.
func WithValveAttributes(names ...string) Option {
	return func(d *Dispatcher) {
		if len(names) > 0 {
			d.valveAttrs = names
		}
	}
}

func New(doc Document, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		doc:        doc,
		client:     http.DefaultClient,
		log:        logger.Nop(),
		valveAttrs: []string{AttrValveNumber, AttrIndex},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Init binds every control on the page. Controls with missing attributes are
// skipped, logged once and reported in the joined error; the rest stay bound.
func (d *Dispatcher) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bound {
		return ErrAlreadyInitialized
	}
	d.bound = true

	err := errors.Join(d.BindStatusControls(), d.BindDeleteValve(), d.BindDeleteSchedule())
	if err != nil {
		d.log.Errorw("dispatcher_bind_incomplete", "uri", d.doc.URI(), "err", err)
	}
	return err
}

// BindStatusControls makes each status control POST its value to
// /valves/{id}/status as a JSON string.
func (d *Dispatcher) BindStatusControls() error {
	var errs []error
	for _, class := range []string{ClassStatusRadio, ClassStatusForm} {
		for _, el := range d.doc.ElementsByClass(class) {
			id, err := attr(el, class, d.valveAttrs...)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			el.OnClick(func() {
				// read on click so grouped forms report the current choice
				d.updateStatus(id, el.Value())
			})
		}
	}
	return errors.Join(errs...)
}

// BindDeleteValve makes each delete button send DELETE /valves/{id}/.
func (d *Dispatcher) BindDeleteValve() error {
	var errs []error
	for _, el := range d.doc.ElementsByClass(ClassDeleteValve) {
		id, err := attr(el, ClassDeleteValve, d.valveAttrs...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		el.OnClick(func() { d.deleteValve(id) })
	}
	return errors.Join(errs...)
}

// BindDeleteSchedule makes each schedule delete button send
// DELETE {page}/timetable with the entry it belongs to.
func (d *Dispatcher) BindDeleteSchedule() error {
	var errs []error
	for _, el := range d.doc.ElementsByClass(ClassDeleteSchedule) {
		var e ScheduleEntry
		var err error
		if e.Day, err = attr(el, ClassDeleteSchedule, AttrDay); err != nil {
			errs = append(errs, err)
			continue
		}
		if e.StartTime, err = attr(el, ClassDeleteSchedule, AttrBegin); err != nil {
			errs = append(errs, err)
			continue
		}
		if e.EndTime, err = attr(el, ClassDeleteSchedule, AttrEnd); err != nil {
			errs = append(errs, err)
			continue
		}
		el.OnClick(func() { d.deleteSchedule(e) })
	}
	return errors.Join(errs...)
}

// Wait blocks until every request fired so far has settled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// ScheduleEntry is the body of a timetable delete.
type ScheduleEntry struct {
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (d *Dispatcher) updateStatus(id, status string) {
	body, _ := json.Marshal(status)
	d.send("update_status", http.MethodPost, d.valveURL(id)+"/status", body)
}

func (d *Dispatcher) deleteValve(id string) {
	d.send("delete_valve", http.MethodDelete, d.valveURL(id)+"/", nil)
}

func (d *Dispatcher) deleteSchedule(e ScheduleEntry) {
	body, _ := json.Marshal(e)
	d.send("delete_schedule", http.MethodDelete, timetableURL(d.doc.URI()), body)
}

func (d *Dispatcher) valveURL(id string) string {
	return origin(d.doc.URI()) + "/valves/" + url.PathEscape(id)
}

// send fires the request in the background. Any response reloads the page
// once; a transport failure is logged and the page stays as it is.
func (d *Dispatcher) send(action, method, target string, body []byte) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		req, err := newRequest(method, target, body)
		if err != nil {
			d.log.Errorw("dispatch_build_failed", "action", action, "url", target, "err", err)
			return
		}
		resp, err := d.client.Do(req)
		if err != nil {
			d.log.Errorw("dispatch_failed", "action", action, "method", method, "url", target, "err", err)
			return
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		d.log.Debugw("dispatch_done", "action", action, "url", target, "status", resp.StatusCode)

		d.doc.Reload()
	}()
}

func newRequest(method, target string, body []byte) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, target, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// no-referrer
	req.Header.Del("Referer")
	return req, nil
}

// origin returns scheme://host of uri, or "" when uri is not absolute.
func origin(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

// timetableURL appends /timetable to the document path, dropping any query or
// fragment.
func timetableURL(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimSuffix(uri, "/") + "/timetable"
	}
	u.RawQuery, u.Fragment, u.RawFragment = "", "", ""
	u.Path = strings.TrimSuffix(u.Path, "/") + "/timetable"
	u.RawPath = ""
	return u.String()
}
