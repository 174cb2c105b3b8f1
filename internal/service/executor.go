package service

import (
	"context"
	"errors"
	"time"

	"valve_control/internal/logger"
	"valve_control/internal/models"
	"valve_control/internal/repository"

	"github.com/google/uuid"
)

// ExecutorService keeps valve statuses in line with their automation status
// and pushes the result to the controller on every tick.
type ExecutorService struct {
	valveRepo  repository.ValveRepo
	eventRepo  repository.EventRepo
	controller Controller
	log        *logger.Logger
	now        func() time.Time
}

// NewExecutorService returns an executor; a nil controller disables pushes.
func NewExecutorService(valveRepo repository.ValveRepo, eventRepo repository.EventRepo, controller Controller, log *logger.Logger) *ExecutorService {
	if log == nil {
		log = logger.Nop()
	}
	return &ExecutorService{
		valveRepo:  valveRepo,
		eventRepo:  eventRepo,
		controller: controller,
		log:        log,
		now:        time.Now,
	}
}

// Run ticks at the given interval until ctx is canceled.
func (s *ExecutorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Step(ctx)
		}
	}
}

// Step runs one reconciliation pass over all valves.
func (s *ExecutorService) Step(ctx context.Context) {
	now := s.now()
	valves, err := s.valveRepo.List(ctx)
	if err != nil {
		s.log.Errorw("executor_list_valves_failed", "err", err)
		return
	}
	for _, v := range valves {
		if ctx.Err() != nil {
			return
		}
		s.reconcile(ctx, v, now)
	}
}

func (s *ExecutorService) reconcile(ctx context.Context, v models.Valve, now time.Time) {
	desired := v.DesiredStatus(now)
	if desired != v.ValveStatus {
		err := s.valveRepo.SetValveStatus(ctx, v.Number, v.AutomationStatus, desired, now.UTC())
		switch {
		case errors.Is(err, repository.ErrStale):
			// an operator changed or deleted the valve after List; next tick reads the new row
			s.log.Debugw("executor_valve_changed", "valve", v.Number, "read_automation", v.AutomationStatus)
			return
		case err != nil:
			s.log.Warnw("executor_update_status_failed", "valve", v.Number, "err", err)
			return
		}
		s.appendTransition(ctx, v, desired, now)
	}

	if s.controller == nil {
		return
	}
	if err := s.controller.Push(ctx, v.Number, desired); err != nil {
		s.log.Errorw("executor_push_failed", "valve", v.Number, "status", desired, "err", err)
		s.appendEvent(ctx, models.ValveEvent{
			EventID:     uuid.NewString(),
			OccurredAt:  now.UTC(),
			Type:        models.EventControllerError,
			ValveNumber: v.Number,
			Description: "Controller push failed",
			Metadata:    map[string]any{"status": string(desired), "error": err.Error()},
		})
	}
}

func (s *ExecutorService) appendTransition(ctx context.Context, v models.Valve, to models.ValveStatus, now time.Time) {
	typ, desc := models.EventValveClosed, "Valve closed"
	if to == models.Open {
		typ, desc = models.EventValveOpened, "Valve opened"
	}
	s.log.Infow("valve_transition", "valve", v.Number, "from", v.ValveStatus, "to", to, "automation", v.AutomationStatus)
	s.appendEvent(ctx, models.ValveEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		ValveNumber: v.Number,
		Description: desc,
		Metadata: map[string]any{
			"from":       string(v.ValveStatus),
			"to":         string(to),
			"automation": string(v.AutomationStatus),
		},
	})
}

func (s *ExecutorService) appendEvent(ctx context.Context, e models.ValveEvent) {
	recordEvent(ctx, s.eventRepo, s.log, e)
}
