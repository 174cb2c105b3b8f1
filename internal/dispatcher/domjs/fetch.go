//go:build js && wasm

package domjs

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"syscall/js"
)

// Fetch sends requests through window.fetch with referrerPolicy no-referrer.
// The response body is not read.
type Fetch struct{}

type fetchResult struct {
	resp js.Value
	err  error
}

func (Fetch) Do(req *http.Request) (*http.Response, error) {
	headers := js.Global().Get("Headers").New()
	for k, vs := range req.Header {
		for _, v := range vs {
			headers.Call("append", k, v)
		}
	}
	init := map[string]any{
		"method":         req.Method,
		"headers":        headers,
		"referrerPolicy": "no-referrer",
	}
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			init["body"] = string(b)
		}
	}

	ch := make(chan fetchResult, 1)
	onOK := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- fetchResult{resp: args[0]}
		return nil
	})
	onErr := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- fetchResult{err: errors.New(args[0].Call("toString").String())}
		return nil
	})
	defer onOK.Release()
	defer onErr.Release()

	js.Global().Call("fetch", req.URL.String(), init).Call("then", onOK, onErr)
	r := <-ch
	if r.err != nil {
		return nil, r.err
	}

	status := r.resp.Get("status").Int()
	return &http.Response{
		Status:     strconv.Itoa(status) + " " + r.resp.Get("statusText").String(),
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}
