package models

import "time"

// Event types recorded in the valve log.
const (
	EventValveCreated    = "VALVE_CREATED"
	EventValveDeleted    = "VALVE_DELETED"
	EventStatusChange    = "STATUS_CHANGE"
	EventScheduleAdded   = "SCHEDULE_ADDED"
	EventScheduleRemoved = "SCHEDULE_REMOVED"
	EventValveOpened     = "VALVE_OPENED"
	EventValveClosed     = "VALVE_CLOSED"
	EventControllerError = "CONTROLLER_ERROR"
)

// ValveEvent is a single audit log entry.
type ValveEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`
	ValveNumber int       `json:"valve_number"`
	Description string    `json:"description"`
	Metadata    any       `json:"metadata,omitempty"`
}
