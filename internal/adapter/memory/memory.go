// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"presensi/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu         sync.Mutex
	users      []*domain.User
	attendance []domain.Attendance
	readings   []domain.SensorReading

	userIDCounter       int64
	attendanceIDCounter int64
	readingIDCounter    int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.AttendanceRepository = (*AttendanceRepo)(nil)
var _ domain.ReportRepository = (*AttendanceRepo)(nil)
var _ domain.SensorRepository = (*DB)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	db.userIDCounter++
	stored := *u
	stored.ID = db.userIDCounter
	stored.CreatedAt = time.Now().UTC()
	db.users = append(db.users, &stored)

	cp := stored
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- AttendanceRepository ---

// AttendanceRepo implements attendance persistence on DB.
type AttendanceRepo struct {
	db *DB
}

// NewAttendanceRepo creates a new attendance repository.
func (db *DB) NewAttendanceRepo() *AttendanceRepo {
	return &AttendanceRepo{db: db}
}

// FindOpenByUser returns the user's session without a check-out, if any.
func (r *AttendanceRepo) FindOpenByUser(ctx context.Context, userID int64) (*domain.Attendance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if i := r.db.openIndex(userID, 0); i >= 0 {
		return cloneAttendance(r.db.attendance[i]), nil
	}
	return nil, nil
}

// Create stores a new session, refusing a second open session for the same user.
func (r *AttendanceRepo) Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if a.CheckOut == nil && r.db.openIndex(a.UserID, 0) >= 0 {
		return nil, domain.ErrOpenSessionExists
	}

	r.db.attendanceIDCounter++
	stored := *cloneAttendance(*a)
	stored.ID = r.db.attendanceIDCounter
	r.db.attendance = append(r.db.attendance, stored)
	return cloneAttendance(stored), nil
}

// Save overwrites an existing session.
func (r *AttendanceRepo) Save(ctx context.Context, a *domain.Attendance) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if a.CheckOut == nil && r.db.openIndex(a.UserID, a.ID) >= 0 {
		return domain.ErrOpenSessionExists
	}
	for i := range r.db.attendance {
		if r.db.attendance[i].ID == a.ID {
			r.db.attendance[i] = *cloneAttendance(*a)
			return nil
		}
	}
	// Saving a deleted row is a no-op, like an UPDATE matching nothing.
	return nil
}

// GetByID retrieves a session by ID.
func (r *AttendanceRepo) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, a := range r.db.attendance {
		if a.ID == id {
			return cloneAttendance(a), nil
		}
	}
	return nil, nil
}

// Delete removes a session by ID.
func (r *AttendanceRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, a := range r.db.attendance {
		if a.ID == id {
			r.db.attendance = append(r.db.attendance[:i], r.db.attendance[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListReport returns sessions joined with their owners, newest check-in first.
func (r *AttendanceRepo) ListReport(ctx context.Context, f domain.ReportFilter) ([]domain.ReportRow, error) {
	var start, end time.Time
	if f.Day != "" {
		var err error
		start, end, err = domain.DayBounds(f.Day, f.Loc)
		if err != nil {
			return nil, err
		}
	}
	name := strings.ToLower(f.Name)

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	users := make(map[int64]*domain.User, len(r.db.users))
	for _, u := range r.db.users {
		users[u.ID] = u
	}

	out := make([]domain.ReportRow, 0)
	for _, a := range r.db.attendance {
		u, ok := users[a.UserID]
		if !ok {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(u.Name), name) {
			continue
		}
		if f.Day != "" && (a.CheckIn.Before(start) || !a.CheckIn.Before(end)) {
			continue
		}
		out = append(out, domain.ReportRow{
			Attendance: *cloneAttendance(a),
			UserName:   u.Name,
			UserEmail:  u.Email,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckIn.After(out[j].CheckIn)
	})
	return out, nil
}

// openIndex returns the index of userID's open session other than exceptID, or -1.
func (db *DB) openIndex(userID, exceptID int64) int {
	for i, a := range db.attendance {
		if a.UserID == userID && a.CheckOut == nil && a.ID != exceptID {
			return i
		}
	}
	return -1
}

// cloneAttendance copies a session including its pointer fields so callers
// cannot mutate stored state.
func cloneAttendance(a domain.Attendance) *domain.Attendance {
	cp := a
	if a.CheckOut != nil {
		t := *a.CheckOut
		cp.CheckOut = &t
	}
	if a.Latitude != nil {
		v := *a.Latitude
		cp.Latitude = &v
	}
	if a.Longitude != nil {
		v := *a.Longitude
		cp.Longitude = &v
	}
	if a.PhotoRef != nil {
		v := *a.PhotoRef
		cp.PhotoRef = &v
	}
	return &cp
}

// --- SensorRepository ---

// AddReading adds a sensor reading.
func (db *DB) AddReading(ctx context.Context, r domain.SensorReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.readingIDCounter++
	r.ID = db.readingIDCounter
	r.CreatedAt = r.CreatedAt.UTC()
	db.readings = append(db.readings, r)
	return r.ID, nil
}

// ListRecentReadings lists the most recent readings, newest first.
func (db *DB) ListRecentReadings(ctx context.Context, limit int) ([]domain.SensorReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.SensorReading, len(db.readings))
	copy(result, db.readings)

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
