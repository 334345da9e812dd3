package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"presensi/internal/domain"
)

var (
	_ domain.AttendanceRepository = (*AttendanceRepo)(nil)
	_ domain.ReportRepository     = (*AttendanceRepo)(nil)
)

const attendanceColumns = "p.id, p.user_id, p.check_in, p.check_out, p.latitude, p.longitude, p.bukti_foto"

// AttendanceRepo implements attendance persistence on DB.
type AttendanceRepo struct {
	db *DB
}

// NewAttendanceRepo wraps a DB as an AttendanceRepository.
func NewAttendanceRepo(db *DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

type attendanceRow struct {
	a        domain.Attendance
	checkOut sql.NullTime
	lat, lng sql.NullFloat64
	photo    sql.NullString
}

func (r *attendanceRow) dest() []any {
	return []any{&r.a.ID, &r.a.UserID, &r.a.CheckIn, &r.checkOut, &r.lat, &r.lng, &r.photo}
}

func (r *attendanceRow) attendance() domain.Attendance {
	a := r.a
	a.CheckIn = a.CheckIn.UTC()
	if r.checkOut.Valid {
		t := r.checkOut.Time.UTC()
		a.CheckOut = &t
	}
	if r.lat.Valid {
		a.Latitude = &r.lat.Float64
	}
	if r.lng.Valid {
		a.Longitude = &r.lng.Float64
	}
	if r.photo.Valid {
		a.PhotoRef = &r.photo.String
	}
	return a
}

func (r *AttendanceRepo) queryOne(ctx context.Context, query string, args ...any) (*domain.Attendance, error) {
	var row attendanceRow
	err := r.db.sql.QueryRowContext(ctx, query, args...).Scan(row.dest()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a := row.attendance()
	return &a, nil
}

// FindOpenByUser returns the user's session without a check-out, if any.
func (r *AttendanceRepo) FindOpenByUser(ctx context.Context, userID int64) (*domain.Attendance, error) {
	return r.queryOne(ctx,
		"SELECT "+attendanceColumns+" FROM presensi p WHERE p.user_id = $1 AND p.check_out IS NULL", userID)
}

// Create inserts a session. A second open session for the same user fails
// with domain.ErrOpenSessionExists.
func (r *AttendanceRepo) Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	created, err := r.queryOne(ctx,
		`INSERT INTO presensi AS p (user_id, check_in, check_out, latitude, longitude, bukti_foto)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+attendanceColumns,
		a.UserID, a.CheckIn.UTC(), a.CheckOut, a.Latitude, a.Longitude, a.PhotoRef,
	)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return created, nil
}

// Save overwrites the mutable columns of an existing session.
func (r *AttendanceRepo) Save(ctx context.Context, a *domain.Attendance) error {
	_, err := r.db.sql.ExecContext(ctx,
		"UPDATE presensi SET check_in = $1, check_out = $2, latitude = $3, longitude = $4, bukti_foto = $5 WHERE id = $6",
		a.CheckIn.UTC(), a.CheckOut, a.Latitude, a.Longitude, a.PhotoRef, a.ID,
	)
	return mapUniqueViolation(err)
}

// GetByID retrieves a session by ID.
func (r *AttendanceRepo) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	return r.queryOne(ctx, "SELECT "+attendanceColumns+" FROM presensi p WHERE p.id = $1", id)
}

// Delete removes a session by ID.
func (r *AttendanceRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM presensi WHERE id = $1", id)
	return err
}

// ListReport returns sessions joined with their owners, newest check-in first.
func (r *AttendanceRepo) ListReport(ctx context.Context, f domain.ReportFilter) ([]domain.ReportRow, error) {
	query, args, err := reportQuery(f)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.ReportRow, 0)
	for rows.Next() {
		var row attendanceRow
		var rr domain.ReportRow
		if err := rows.Scan(append(row.dest(), &rr.UserName, &rr.UserEmail)...); err != nil {
			return nil, err
		}
		rr.Attendance = row.attendance()
		out = append(out, rr)
	}
	return out, rows.Err()
}

func reportQuery(f domain.ReportFilter) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	if f.Name != "" {
		args = append(args, "%"+escapeLike(f.Name)+"%")
		where = append(where, fmt.Sprintf("u.nama ILIKE $%d", len(args)))
	}
	if f.Day != "" {
		start, end, err := domain.DayBounds(f.Day, f.Loc)
		if err != nil {
			return "", nil, err
		}
		args = append(args, start.UTC(), end.UTC())
		where = append(where, fmt.Sprintf("p.check_in >= $%d AND p.check_in < $%d", len(args)-1, len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + attendanceColumns + ", u.nama, u.email FROM presensi p JOIN users u ON u.id = p.user_id")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY p.check_in DESC, p.id DESC")
	return b.String(), args, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
