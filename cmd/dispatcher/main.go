//go:build js && wasm

// Command dispatcher is the page script of the valve UI, built with
// GOOS=js GOARCH=wasm and served as /static/dispatcher.wasm.
package main

import (
	"valve_control/internal/dispatcher"
	"valve_control/internal/dispatcher/domjs"
	"valve_control/internal/logger"
)

func main() {
	// stdout ends up in the browser console
	log := logger.Get(logger.InfoLevel).Named("dispatcher")

	doc := domjs.New()
	doc.Ready()

	d := dispatcher.New(doc,
		dispatcher.WithClient(domjs.Fetch{}),
		dispatcher.WithLogger(log),
	)
	// Init logs unbound controls itself; the rest of the page still works
	_ = d.Init()

	// keep the listeners alive
	select {}
}
