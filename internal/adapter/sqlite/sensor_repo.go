package sqlite

import (
	"context"

	"presensi/internal/domain"
)

var _ domain.SensorRepository = (*DB)(nil)

// AddReading inserts a sensor reading.
func (d *DB) AddReading(ctx context.Context, r domain.SensorReading) (int64, error) {
	m := sensorReadingModel{
		Suhu:       r.Temperature,
		Kelembaban: r.Humidity,
		Cahaya:     r.Light,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if err := d.gorm.WithContext(ctx).Create(&m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// ListRecentReadings returns the most recent readings up to limit, newest first.
func (d *DB) ListRecentReadings(ctx context.Context, limit int) ([]domain.SensorReading, error) {
	var models []sensorReadingModel
	err := d.gorm.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.SensorReading, 0, len(models))
	for _, m := range models {
		out = append(out, domain.SensorReading{
			ID:          m.ID,
			Temperature: m.Suhu,
			Humidity:    m.Kelembaban,
			Light:       m.Cahaya,
			CreatedAt:   m.CreatedAt.UTC(),
		})
	}
	return out, nil
}
