// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"presensi/internal/domain"
)

const (
	constraintOpenSession = "uq_presensi_open_per_user"
	constraintUserEmail   = "uq_users_email"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			nama TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'karyawan' CHECK (role IN ('karyawan','admin')),
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT ` + constraintUserEmail + ` UNIQUE (email)
		);`,
		`CREATE TABLE IF NOT EXISTS presensi (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			check_in TIMESTAMPTZ NOT NULL,
			check_out TIMESTAMPTZ,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			bukti_foto TEXT
		);`,
		"CREATE INDEX IF NOT EXISTS idx_presensi_check_in ON presensi(check_in);",
		// At most one open session per user, whatever the application does.
		"CREATE UNIQUE INDEX IF NOT EXISTS " + constraintOpenSession + " ON presensi(user_id) WHERE check_out IS NULL;",
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id BIGSERIAL PRIMARY KEY,
			suhu DOUBLE PRECISION NOT NULL,
			kelembaban DOUBLE PRECISION NOT NULL,
			cahaya DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_sensor_readings_created_at ON sensor_readings(created_at);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// mapUniqueViolation translates unique violations on known constraints into
// domain errors. Other errors are returned unchanged.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case constraintOpenSession:
		return domain.ErrOpenSessionExists
	case constraintUserEmail:
		return domain.ErrEmailTaken
	}
	return err
}
