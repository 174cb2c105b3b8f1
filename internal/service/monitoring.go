package service

import (
	"context"

	"valve_control/internal/models"
	"valve_control/internal/repository"
)

type MonitoringService struct {
	valveRepo repository.ValveRepo
}

func NewMonitoringService(valveRepo repository.ValveRepo) *MonitoringService {
	return &MonitoringService{valveRepo: valveRepo}
}

// Snapshot returns every valve ordered by number; never nil.
func (s *MonitoringService) Snapshot(ctx context.Context) ([]models.Valve, error) {
	valves, err := s.valveRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if valves == nil {
		valves = []models.Valve{}
	}
	return valves, nil
}
