package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"valve_control/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert hits an existing key.
	ErrDuplicate = errors.New("already exists")
	// ErrStale is returned when a guarded update finds the row changed or gone.
	ErrStale = errors.New("row changed since it was read")
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

type ValveRepo interface {
	Create(ctx context.Context, v models.Valve) error
	Get(ctx context.Context, number int) (models.Valve, error)
	List(ctx context.Context) ([]models.Valve, error)
	UpdateStatus(ctx context.Context, number int, auto models.AutomationStatus, st models.ValveStatus, at time.Time) error
	SetValveStatus(ctx context.Context, number int, expect models.AutomationStatus, st models.ValveStatus, at time.Time) error
	Delete(ctx context.Context, number int) error
}

type ScheduleRepo interface {
	Add(ctx context.Context, number int, e models.ScheduleEntry) error
	Remove(ctx context.Context, number int, e models.ScheduleEntry) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.ValveEvent) error
	List(ctx context.Context, q EventQuery) ([]models.ValveEvent, error)
}

// EventQuery filters the event log; zero fields do not filter.
type EventQuery struct {
	From  time.Time
	To    time.Time
	Type  string
	Valve *int
}

type Repository struct {
	ValveRepo    ValveRepo
	ScheduleRepo ScheduleRepo
	EventRepo    EventRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		ValveRepo:    NewValveSQLite(db),
		ScheduleRepo: NewScheduleSQLite(db),
		EventRepo:    NewEventSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
