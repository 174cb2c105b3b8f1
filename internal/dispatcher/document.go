package dispatcher

import "fmt"

// Element is a page element a handler can be bound to.
type Element interface {
	// Data returns the value of the data-{name} attribute.
	Data(name string) (string, bool)
	// Value returns the control's current value.
	Value() string
	// OnClick registers fn as a click listener.
	OnClick(fn func())
}

// Document is the page the dispatcher is wired into.
type Document interface {
	ElementsByClass(class string) []Element
	// URI is the absolute address of the current document.
	URI() string
	// Reload re-fetches the current document.
	Reload()
}

// CSS classes the server-rendered pages mark their controls with.
const (
	ClassStatusRadio    = "automation_status_radio"
	ClassStatusForm     = "automation_status_form"
	ClassDeleteValve    = "valve_delete_button"
	ClassDeleteSchedule = "schedule_delete_button"
)

// Data attribute names, without the data- prefix.
const (
	AttrValveNumber = "valve_number"
	AttrIndex       = "index"
	AttrDay         = "day"
	AttrBegin       = "begin"
	AttrEnd         = "end"
)

// AttributeError reports a control that lacks a required data attribute.
// The control is left unbound.
type AttributeError struct {
	Class string
	Attrs []string
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("element .%s has none of the data attributes %v", e.Class, e.Attrs)
}

// attr returns the first of names present on el.
func attr(el Element, class string, names ...string) (string, error) {
	for _, n := range names {
		if v, ok := el.Data(n); ok {
			return v, nil
		}
	}
	return "", &AttributeError{Class: class, Attrs: names}
}
