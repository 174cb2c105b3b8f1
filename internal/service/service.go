package service

import (
	"context"
	"time"

	"valve_control/internal/logger"
	"valve_control/internal/models"
	"valve_control/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Valves manages the valve set and the operator-selected automation status.
type Valves interface {
	Create(ctx context.Context, number int, name string) (models.Valve, error)
	Delete(ctx context.Context, number int) error
	Get(ctx context.Context, number int) (models.Valve, error)
	SetAutomationStatus(ctx context.Context, number int, status models.AutomationStatus) (models.Valve, error)
}

// Schedule edits the weekly timetable of a valve.
type Schedule interface {
	AddEntry(ctx context.Context, number int, e models.ScheduleEntry) error
	RemoveEntry(ctx context.Context, number int, e models.ScheduleEntry) error
}

// Monitoring exposes read-only snapshots for pages, the API and the websocket.
type Monitoring interface {
	Snapshot(ctx context.Context) ([]models.Valve, error)
}

// EventLog exposes the append-only valve log with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ValveEvent, error)
}

// Executor drives the controller from the schedule until ctx is canceled.
type Executor interface {
	Run(ctx context.Context, tick time.Duration)
}

// Controller receives the status each valve should be in.
type Controller interface {
	Push(ctx context.Context, number int, status models.ValveStatus) error
}

// Service aggregates all sub-services.
type Service struct {
	Valves
	Schedule
	Monitoring
	EventLog
	Executor
	Authorization
}

// Deps carries what the services need beyond the repositories.
type Deps struct {
	Controller Controller
	Log        *logger.Logger
	SigningKey string
	TokenTTL   time.Duration
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Valves:        NewValveService(repos.ValveRepo, repos.EventRepo, deps.Controller, log.Named("valves")),
		Schedule:      NewScheduleService(repos.ValveRepo, repos.ScheduleRepo, repos.EventRepo, log.Named("schedule")),
		Monitoring:    NewMonitoringService(repos.ValveRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Executor:      NewExecutorService(repos.ValveRepo, repos.EventRepo, deps.Controller, log.Named("executor")),
		Authorization: NewAuthService(repos.Auth, deps.SigningKey, deps.TokenTTL),
	}
}
