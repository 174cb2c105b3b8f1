package service

import (
	"errors"
	"time"
)

// Domain errors; handlers map them to HTTP status codes.
var (
	ErrValveNotFound      = errors.New("valve not found")
	ErrValveExists        = errors.New("valve number already in use")
	ErrInvalidValveNumber = errors.New("valve number must be between 0 and 255")
	ErrInvalidValveName   = errors.New("valve name must not be empty")
	ErrInvalidStatus      = errors.New("invalid automation status: must be ForceOpen, Scheduled or ForceClose")
	ErrInvalidEntry       = errors.New("invalid schedule entry")
	ErrEntryNotFound      = errors.New("schedule entry not found")
	ErrEntryExists        = errors.New("schedule entry already exists")
	ErrInvalidTimeRange   = errors.New("invalid time range: From must be <= To")
)

const (
	minValveNumber = 0
	maxValveNumber = 255
)

// LogFilter supports history filtering by time range, type and valve.
type LogFilter struct {
	From  time.Time // inclusive; zero means no lower bound
	To    time.Time // inclusive; zero means no upper bound
	Type  string
	Valve *int
}
