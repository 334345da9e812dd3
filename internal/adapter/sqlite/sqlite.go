// Package sqlite implements the domain repositories on an embedded SQLite
// database through gorm, for single-node deployments.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"presensi/internal/domain"
)

// DB wraps a *gorm.DB and implements domain repository interfaces.
type DB struct {
	gorm *gorm.DB
}

type userModel struct {
	ID           int64  `gorm:"primaryKey"`
	Nama         string `gorm:"not null"`
	Email        string `gorm:"not null;uniqueIndex:uq_users_email"`
	PasswordHash string `gorm:"not null;default:''"`
	Role         string `gorm:"not null;default:karyawan"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type presensiModel struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"not null;index"`
	CheckIn   time.Time `gorm:"not null;index"`
	CheckOut  *time.Time
	Latitude  *float64
	Longitude *float64
	BuktiFoto *string
}

func (presensiModel) TableName() string { return "presensi" }

type sensorReadingModel struct {
	ID         int64     `gorm:"primaryKey"`
	Suhu       float64   `gorm:"not null"`
	Kelembaban float64   `gorm:"not null"`
	Cahaya     float64   `gorm:"not null"`
	CreatedAt  time.Time `gorm:"index"`
}

func (sensorReadingModel) TableName() string { return "sensor_readings" }

// Open opens (creating if needed) the database at dsn and runs migrations.
// ":memory:" gives a private in-memory database.
func Open(dsn string) (*DB, error) {
	g, err := gorm.Open(sqlite.Open(withPragmas(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := g.DB()
	if err != nil {
		return nil, err
	}
	// One connection: SQLite serializes writers anyway, and an in-memory
	// database exists per connection.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{gorm: g}
	if err := d.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DB) migrate() error {
	if err := d.gorm.AutoMigrate(&userModel{}, &presensiModel{}, &sensorReadingModel{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	// gorm has no tag for partial indexes.
	if err := d.gorm.Exec("CREATE UNIQUE INDEX IF NOT EXISTS uq_presensi_open_per_user ON presensi(user_id) WHERE check_out IS NULL").Error; err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// mapUniqueViolation translates SQLite unique violations on known indexes
// into domain errors.
func mapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: presensi.user_id"):
		return domain.ErrOpenSessionExists
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return domain.ErrEmailTaken
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
