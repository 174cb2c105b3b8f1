package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"valve_control/internal/logger"
	"valve_control/internal/models"
	"valve_control/internal/repository"

	"github.com/google/uuid"
)

type ScheduleService struct {
	valveRepo    repository.ValveRepo
	scheduleRepo repository.ScheduleRepo
	eventRepo    repository.EventRepo
	log          *logger.Logger
	now          func() time.Time
}

func NewScheduleService(valveRepo repository.ValveRepo, scheduleRepo repository.ScheduleRepo, eventRepo repository.EventRepo, log *logger.Logger) *ScheduleService {
	if log == nil {
		log = logger.Nop()
	}
	return &ScheduleService{valveRepo: valveRepo, scheduleRepo: scheduleRepo, eventRepo: eventRepo, log: log, now: time.Now}
}

// AddEntry appends a timetable entry to a valve.
func (s *ScheduleService) AddEntry(ctx context.Context, number int, e models.ScheduleEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if _, err := s.valveRepo.Get(ctx, number); err != nil {
		return mapNotFound(err, ErrValveNotFound)
	}
	if err := s.scheduleRepo.Add(ctx, number, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrEntryExists
		}
		return err
	}
	s.appendEntryEvent(ctx, number, models.EventScheduleAdded, "Schedule entry added", e)
	return nil
}

// RemoveEntry deletes the entry matching day, begin and end exactly.
func (s *ScheduleService) RemoveEntry(ctx context.Context, number int, e models.ScheduleEntry) error {
	if err := s.scheduleRepo.Remove(ctx, number, e); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// tell a missing valve apart from a missing entry
		if _, gerr := s.valveRepo.Get(ctx, number); gerr != nil {
			return mapNotFound(gerr, ErrValveNotFound)
		}
		return ErrEntryNotFound
	}
	s.appendEntryEvent(ctx, number, models.EventScheduleRemoved, "Schedule entry removed", e)
	return nil
}

func (s *ScheduleService) appendEntryEvent(ctx context.Context, number int, typ, desc string, e models.ScheduleEntry) {
	recordEvent(ctx, s.eventRepo, s.log, models.ValveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  s.now().UTC(),
		Type:        typ,
		ValveNumber: number,
		Description: desc,
		Metadata: map[string]any{
			"day":   e.Day.String(),
			"begin": e.Begin.String(),
			"end":   e.End.String(),
		},
	})
}
