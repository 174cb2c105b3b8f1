package service

import (
	"context"
	"strings"
	"time"

	"valve_control/internal/models"
	"valve_control/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (repository.EventQuery, error) {
	q := repository.EventQuery{
		From:  normalizeToUTC(f.From),
		To:    normalizeToUTC(f.To),
		Type:  normalizeEventType(f.Type),
		Valve: f.Valve,
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.EventQuery{}, ErrInvalidTimeRange
	}
	return q, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.ValveEvent, error) {
	q, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q)
}
