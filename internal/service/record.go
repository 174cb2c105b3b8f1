package service

import (
	"context"

	"valve_control/internal/logger"
	"valve_control/internal/models"
	"valve_control/internal/repository"
)

// recordEvent appends e to the event log. The change e describes is already
// stored, so a failed append is logged and not returned.
func recordEvent(ctx context.Context, repo repository.EventRepo, log *logger.Logger, e models.ValveEvent) {
	if err := repo.Append(ctx, e); err != nil {
		log.Errorw("append_event_failed", "type", e.Type, "valve", e.ValveNumber, "err", err)
	}
}
