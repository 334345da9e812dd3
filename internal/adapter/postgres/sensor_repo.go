package postgres

import (
	"context"

	"presensi/internal/domain"
)

var _ domain.SensorRepository = (*DB)(nil)

// AddReading inserts a sensor reading.
func (d *DB) AddReading(ctx context.Context, r domain.SensorReading) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO sensor_readings(suhu, kelembaban, cahaya, created_at) VALUES($1, $2, $3, $4) RETURNING id;",
		r.Temperature, r.Humidity, r.Light, r.CreatedAt.UTC(),
	).Scan(&id)
	return id, err
}

// ListRecentReadings returns the most recent readings up to limit, newest first.
func (d *DB) ListRecentReadings(ctx context.Context, limit int) ([]domain.SensorReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, suhu, kelembaban, cahaya, created_at FROM sensor_readings ORDER BY created_at DESC, id DESC LIMIT $1;", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.SensorReading, 0, limit)
	for rows.Next() {
		var r domain.SensorReading
		if err := rows.Scan(&r.ID, &r.Temperature, &r.Humidity, &r.Light, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
