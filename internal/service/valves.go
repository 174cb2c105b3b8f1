package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"valve_control/internal/logger"
	"valve_control/internal/models"
	"valve_control/internal/repository"

	"github.com/google/uuid"
)

type ValveService struct {
	valveRepo  repository.ValveRepo
	eventRepo  repository.EventRepo
	controller Controller
	log        *logger.Logger
	now        func() time.Time
}

// NewValveService returns the valve service; a nil controller skips the
// close pushed when a valve is deleted.
func NewValveService(valveRepo repository.ValveRepo, eventRepo repository.EventRepo, controller Controller, log *logger.Logger) *ValveService {
	if log == nil {
		log = logger.Nop()
	}
	return &ValveService{
		valveRepo:  valveRepo,
		eventRepo:  eventRepo,
		controller: controller,
		log:        log,
		now:        time.Now,
	}
}

func validValveNumber(number int) bool {
	return number >= minValveNumber && number <= maxValveNumber
}

// Create registers a closed, force-closed valve.
func (s *ValveService) Create(ctx context.Context, number int, name string) (models.Valve, error) {
	if !validValveNumber(number) {
		return models.Valve{}, ErrInvalidValveNumber
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Valve{}, ErrInvalidValveName
	}

	now := s.now()
	v := models.NewValve(number, name)
	v.UpdatedAt = now.UTC()
	if err := s.valveRepo.Create(ctx, v); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Valve{}, fmt.Errorf("%w: %d", ErrValveExists, number)
		}
		return models.Valve{}, err
	}

	recordEvent(ctx, s.eventRepo, s.log, models.ValveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        models.EventValveCreated,
		ValveNumber: number,
		Description: "Valve " + name + " created",
	})
	return v, nil
}

// Delete removes a valve and its schedule, then closes it on the controller.
func (s *ValveService) Delete(ctx context.Context, number int) error {
	if err := s.valveRepo.Delete(ctx, number); err != nil {
		return mapNotFound(err, ErrValveNotFound)
	}
	now := s.now().UTC()
	recordEvent(ctx, s.eventRepo, s.log, models.ValveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now,
		Type:        models.EventValveDeleted,
		ValveNumber: number,
		Description: "Valve deleted",
	})
	s.release(ctx, number, now)
	return nil
}

// release pushes Close for a deleted valve; the executor no longer drives it.
func (s *ValveService) release(ctx context.Context, number int, now time.Time) {
	if s.controller == nil {
		return
	}
	if err := s.controller.Push(ctx, number, models.Close); err != nil {
		s.log.Errorw("valve_release_failed", "valve", number, "err", err)
		recordEvent(ctx, s.eventRepo, s.log, models.ValveEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now,
			Type:        models.EventControllerError,
			ValveNumber: number,
			Description: "Controller push failed",
			Metadata:    map[string]any{"status": string(models.Close), "error": err.Error()},
		})
	}
}

// Get returns one valve with its schedule.
func (s *ValveService) Get(ctx context.Context, number int) (models.Valve, error) {
	v, err := s.valveRepo.Get(ctx, number)
	if err != nil {
		return models.Valve{}, mapNotFound(err, ErrValveNotFound)
	}
	return v, nil
}

// SetAutomationStatus stores the new automation status and resolves the
// valve status for the current instant right away; the executor only
// has to catch up on schedule boundaries.
func (s *ValveService) SetAutomationStatus(ctx context.Context, number int, status models.AutomationStatus) (models.Valve, error) {
	if !status.Valid() {
		return models.Valve{}, ErrInvalidStatus
	}
	v, err := s.Get(ctx, number)
	if err != nil {
		return models.Valve{}, err
	}

	now := s.now()
	prev := v.AutomationStatus
	v.AutomationStatus = status
	v.ValveStatus = v.DesiredStatus(now)
	v.UpdatedAt = now.UTC()

	if err := s.valveRepo.UpdateStatus(ctx, number, v.AutomationStatus, v.ValveStatus, v.UpdatedAt); err != nil {
		return models.Valve{}, mapNotFound(err, ErrValveNotFound)
	}

	recordEvent(ctx, s.eventRepo, s.log, models.ValveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  v.UpdatedAt,
		Type:        models.EventStatusChange,
		ValveNumber: number,
		Description: "Automation status changed to " + string(status),
		Metadata: map[string]any{
			"from":         string(prev),
			"to":           string(status),
			"valve_status": string(v.ValveStatus),
		},
	})
	return v, nil
}

func mapNotFound(err, target error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return target
	}
	return err
}
