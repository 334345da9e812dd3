package sqlite

import (
	"context"
	"strings"

	"presensi/internal/domain"
)

var (
	_ domain.AttendanceRepository = (*AttendanceRepo)(nil)
	_ domain.ReportRepository     = (*AttendanceRepo)(nil)
)

// AttendanceRepo implements attendance persistence on DB.
type AttendanceRepo struct {
	db *DB
}

// NewAttendanceRepo wraps a DB as an AttendanceRepository.
func NewAttendanceRepo(db *DB) *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

func (m *presensiModel) toDomain() *domain.Attendance {
	a := &domain.Attendance{
		ID:        m.ID,
		UserID:    m.UserID,
		CheckIn:   m.CheckIn.UTC(),
		Latitude:  m.Latitude,
		Longitude: m.Longitude,
		PhotoRef:  m.BuktiFoto,
	}
	if m.CheckOut != nil {
		t := m.CheckOut.UTC()
		a.CheckOut = &t
	}
	return a
}

func fromDomain(a *domain.Attendance) presensiModel {
	m := presensiModel{
		ID:        a.ID,
		UserID:    a.UserID,
		CheckIn:   a.CheckIn.UTC(),
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		BuktiFoto: a.PhotoRef,
	}
	if a.CheckOut != nil {
		t := a.CheckOut.UTC()
		m.CheckOut = &t
	}
	return m
}

func (r *AttendanceRepo) find(ctx context.Context, query string, args ...any) (*domain.Attendance, error) {
	var m presensiModel
	err := r.db.gorm.WithContext(ctx).Where(query, args...).Take(&m).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

// FindOpenByUser returns the user's session without a check-out, if any.
func (r *AttendanceRepo) FindOpenByUser(ctx context.Context, userID int64) (*domain.Attendance, error) {
	return r.find(ctx, "user_id = ? AND check_out IS NULL", userID)
}

// Create inserts a session. A second open session for the same user fails
// with domain.ErrOpenSessionExists.
func (r *AttendanceRepo) Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	m := fromDomain(a)
	m.ID = 0
	if err := r.db.gorm.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, mapUniqueViolation(err)
	}
	return m.toDomain(), nil
}

// Save overwrites the mutable columns of an existing session.
func (r *AttendanceRepo) Save(ctx context.Context, a *domain.Attendance) error {
	m := fromDomain(a)
	err := r.db.gorm.WithContext(ctx).Model(&presensiModel{}).Where("id = ?", a.ID).Updates(map[string]any{
		"check_in":   m.CheckIn,
		"check_out":  m.CheckOut,
		"latitude":   m.Latitude,
		"longitude":  m.Longitude,
		"bukti_foto": m.BuktiFoto,
	}).Error
	return mapUniqueViolation(err)
}

// GetByID retrieves a session by ID.
func (r *AttendanceRepo) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	return r.find(ctx, "id = ?", id)
}

// Delete removes a session by ID.
func (r *AttendanceRepo) Delete(ctx context.Context, id int64) error {
	return r.db.gorm.WithContext(ctx).Delete(&presensiModel{}, id).Error
}

type reportModel struct {
	presensiModel `gorm:"embedded"`
	UserNama      string
	UserEmail     string
}

// ListReport returns sessions joined with their owners, newest check-in first.
func (r *AttendanceRepo) ListReport(ctx context.Context, f domain.ReportFilter) ([]domain.ReportRow, error) {
	q := r.db.gorm.WithContext(ctx).
		Table("presensi").
		Select("presensi.*, users.nama AS user_nama, users.email AS user_email").
		Joins("JOIN users ON users.id = presensi.user_id")

	if f.Name != "" {
		q = q.Where(`LOWER(users.nama) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(f.Name))+"%")
	}
	if f.Day != "" {
		start, end, err := domain.DayBounds(f.Day, f.Loc)
		if err != nil {
			return nil, err
		}
		q = q.Where("presensi.check_in >= ? AND presensi.check_in < ?", start.UTC(), end.UTC())
	}

	var models []reportModel
	if err := q.Order("presensi.check_in DESC").Order("presensi.id DESC").Scan(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domain.ReportRow, 0, len(models))
	for i := range models {
		out = append(out, domain.ReportRow{
			Attendance: *models[i].toDomain(),
			UserName:   models[i].UserNama,
			UserEmail:  models[i].UserEmail,
		})
	}
	return out, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
