package domain

import (
	"context"
	"time"
)

// SensorReading is a single sample pushed by the IoT device.
type SensorReading struct {
	ID          int64     `json:"id"`
	Temperature float64   `json:"suhu"`
	Humidity    float64   `json:"kelembaban"`
	Light       float64   `json:"cahaya"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SensorRepository is the port for sensor persistence.
type SensorRepository interface {
	AddReading(ctx context.Context, r SensorReading) (int64, error)
	ListRecentReadings(ctx context.Context, limit int) ([]SensorReading, error)
}
