package app

import (
	"context"
	"slices"
	"time"

	"presensi/internal/domain"
)

const (
	defaultSensorHistory = 20
	maxSensorHistory     = 500
)

// SensorService encapsulates IoT sensor ingestion and history use cases.
type SensorService struct {
	repo domain.SensorRepository
}

// NewSensorService creates a SensorService backed by the given repository.
func NewSensorService(repo domain.SensorRepository) *SensorService {
	return &SensorService{repo: repo}
}

// Record validates and stores a sensor reading.
func (s *SensorService) Record(ctx context.Context, temperature, humidity, light float64) (int64, error) {
	if temperature < -40 || temperature > 125 {
		return 0, NewValidationError("suhu must be within [-40, 125]")
	}
	if humidity < 0 || humidity > 100 {
		return 0, NewValidationError("kelembaban must be within [0, 100]")
	}
	if light < 0 {
		return 0, NewValidationError("cahaya must be >= 0")
	}
	id, err := s.repo.AddReading(ctx, domain.SensorReading{
		Temperature: temperature,
		Humidity:    humidity,
		Light:       light,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return 0, NewInternalError("failed to save sensor reading", err)
	}
	return id, nil
}

// History returns the latest limit readings in chronological order, with
// temperatures converted to unit ("C" or "F").
func (s *SensorService) History(ctx context.Context, limit int, unit string) ([]domain.SensorReading, error) {
	if unit == "" {
		unit = "C"
	}
	if unit != "C" && unit != "F" {
		return nil, NewValidationError("unit must be \"C\" or \"F\"")
	}
	if limit <= 0 {
		limit = defaultSensorHistory
	}
	if limit > maxSensorHistory {
		limit = maxSensorHistory
	}

	items, err := s.repo.ListRecentReadings(ctx, limit)
	if err != nil {
		return nil, NewInternalError("failed to load sensor history", err)
	}
	slices.Reverse(items)
	for i := range items {
		items[i].Temperature = domain.ConvertTemperature(items[i].Temperature, "C", unit)
	}
	return items, nil
}

// Latest returns the most recent reading, or nil if none exist.
func (s *SensorService) Latest(ctx context.Context) (*domain.SensorReading, error) {
	items, err := s.repo.ListRecentReadings(ctx, 1)
	if err != nil {
		return nil, NewInternalError("failed to load sensor history", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}
