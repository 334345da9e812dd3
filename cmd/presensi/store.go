package main

import (
	"context"
	"fmt"
	"log/slog"

	"presensi/internal/adapter/memory"
	"presensi/internal/adapter/postgres"
	"presensi/internal/adapter/sqlite"
	"presensi/internal/config"
	"presensi/internal/domain"
)

type attendanceStore interface {
	domain.AttendanceRepository
	domain.ReportRepository
}

// store bundles the repositories of one database backend.
type store struct {
	users      domain.UserRepository
	attendance attendanceStore
	sensors    domain.SensorRepository
	ping       func(context.Context) error
	close      func() error
}

// openStore connects to the configured backend and applies its schema.
func openStore(cfg config.DatabaseConfig, log *slog.Logger) (*store, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &store{users: db, attendance: postgres.NewAttendanceRepo(db), sensors: db, ping: db.Ping, close: db.Close}, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return &store{users: db, attendance: sqlite.NewAttendanceRepo(db), sensors: db, ping: db.Ping, close: db.Close}, nil
	case "memory":
		log.Warn("using in-memory storage; data is lost on exit")
		db := memory.New()
		return &store{users: db, attendance: db.NewAttendanceRepo(), sensors: db, close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
