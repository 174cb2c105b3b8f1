package models

import "time"

// AutomationStatus is the operating mode an operator selects for a valve.
type AutomationStatus string

const (
	ForceOpen  AutomationStatus = "ForceOpen"
	Scheduled  AutomationStatus = "Scheduled"
	ForceClose AutomationStatus = "ForceClose"
)

// AutomationStatuses lists the accepted values in display order.
var AutomationStatuses = []AutomationStatus{ForceOpen, Scheduled, ForceClose}

// Valid reports whether s is one of the known automation statuses.
func (s AutomationStatus) Valid() bool {
	switch s {
	case ForceOpen, Scheduled, ForceClose:
		return true
	}
	return false
}

// ValveStatus is the physical state the controller should hold the valve in.
type ValveStatus string

const (
	Open  ValveStatus = "Open"
	Close ValveStatus = "Close"
)

// Valve is a controllable irrigation valve.
type Valve struct {
	Number           int              `json:"valve_number"`
	Name             string           `json:"name"`
	AutomationStatus AutomationStatus `json:"automation_status"`
	ValveStatus      ValveStatus      `json:"valve_status"`
	Schedule         []ScheduleEntry  `json:"schedule"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewValve returns a closed, force-closed valve with an empty schedule.
func NewValve(number int, name string) Valve {
	return Valve{
		Number:           number,
		Name:             name,
		AutomationStatus: ForceClose,
		ValveStatus:      Close,
		Schedule:         []ScheduleEntry{},
	}
}

// ShouldBeRunning reports whether any schedule entry covers t.
func (v Valve) ShouldBeRunning(t time.Time) bool {
	for _, e := range v.Schedule {
		if e.Covers(t) {
			return true
		}
	}
	return false
}

// DesiredStatus resolves the automation status into a valve status at t.
func (v Valve) DesiredStatus(t time.Time) ValveStatus {
	switch v.AutomationStatus {
	case ForceOpen:
		return Open
	case Scheduled:
		if v.ShouldBeRunning(t) {
			return Open
		}
		return Close
	default:
		return Close
	}
}
