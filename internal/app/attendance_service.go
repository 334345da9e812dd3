package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"presensi/internal/domain"
)

var (
	// ErrMissingEvidence is returned when a check-in carries no photo.
	ErrMissingEvidence = NewValidationError("photo evidence (buktiFoto) is required")
	// ErrSessionAlreadyOpen is returned when the user checks in twice without checking out.
	ErrSessionAlreadyOpen = NewConflictError("already checked in and not yet checked out; the uploaded photo was discarded", domain.ErrOpenSessionExists)
	// ErrNoOpenSession is returned by CheckOut when there is nothing to close.
	ErrNoOpenSession = NewNotFoundError("not checked in, or already checked out")
	// ErrAttendanceNotFound is returned by admin operations for an unknown record id.
	ErrAttendanceNotFound = NewNotFoundError("attendance record not found")
)

// PhotoUpload is the evidence photo attached to a check-in.
type PhotoUpload struct {
	Body        io.Reader
	Ext         string
	ContentType string
}

// OptionalTime distinguishes an absent field from an explicit value or null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// AttendancePatch is an admin correction of a session's timestamps. Only
// fields with Set are applied; CheckOut set with a nil Value reopens the session.
type AttendancePatch struct {
	CheckIn  OptionalTime
	CheckOut OptionalTime
}

// Empty reports whether the patch carries no fields.
func (p AttendancePatch) Empty() bool {
	return !p.CheckIn.Set && !p.CheckOut.Set
}

// AttendanceService runs the check-in/check-out state machine and owns the
// lifecycle of the photo stored for each check-in.
type AttendanceService struct {
	repo   domain.AttendanceRepository
	photos domain.PhotoStore
	log    *slog.Logger
	now    func() time.Time
	locks  *userLocks
}

// NewAttendanceService creates an AttendanceService. A nil logger uses slog.Default().
func NewAttendanceService(repo domain.AttendanceRepository, photos domain.PhotoStore, logger *slog.Logger) *AttendanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceService{
		repo:   repo,
		photos: photos,
		log:    logger.With("component", "attendance"),
		now:    time.Now,
		locks:  newUserLocks(),
	}
}

// WithClock replaces the time source.
func (s *AttendanceService) WithClock(now func() time.Time) *AttendanceService {
	s.now = now
	return s
}

// CheckIn stores the photo, then opens a new session for userID. Any exit
// that does not commit the session deletes the stored photo again.
//
// The call is detached from ctx cancellation once the photo is accepted so a
// disconnecting client cannot leave an orphaned file behind.
func (s *AttendanceService) CheckIn(ctx context.Context, userID int64, geo domain.GeoPoint, photo *PhotoUpload) (*domain.Attendance, error) {
	if photo == nil || photo.Body == nil {
		return nil, ErrMissingEvidence
	}
	ctx = context.WithoutCancel(ctx)

	name, err := s.photos.Store(ctx, userID, photo.Body, photo.Ext, photo.ContentType)
	switch {
	case errors.Is(err, domain.ErrUnsupportedMedia):
		return nil, NewUnsupportedMediaError(err.Error())
	case errors.Is(err, domain.ErrPhotoTooLarge):
		return nil, NewValidationError(err.Error())
	case err != nil:
		return nil, NewInternalError("failed to store photo", err)
	}

	committed := false
	defer func() {
		if !committed {
			s.discardPhoto(name)
		}
	}()

	unlock := s.locks.lock(userID)
	defer unlock()

	open, err := s.repo.FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to look up open session", err)
	}
	if open != nil {
		return nil, ErrSessionAlreadyOpen
	}

	ref := s.photos.Ref(name)
	created, err := s.repo.Create(ctx, &domain.Attendance{
		UserID:    userID,
		CheckIn:   s.now().UTC(),
		Latitude:  geo.Latitude,
		Longitude: geo.Longitude,
		PhotoRef:  &ref,
	})
	if errors.Is(err, domain.ErrOpenSessionExists) {
		return nil, ErrSessionAlreadyOpen
	}
	if err != nil {
		return nil, NewInternalError("failed to save attendance", err)
	}
	committed = true
	s.log.Info("checked in", "user_id", userID, "attendance_id", created.ID, "photo", name)
	return created, nil
}

// CheckOut closes the user's open session.
func (s *AttendanceService) CheckOut(ctx context.Context, userID int64) (*domain.Attendance, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	open, err := s.repo.FindOpenByUser(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to look up open session", err)
	}
	if open == nil {
		return nil, ErrNoOpenSession
	}

	now := s.now().UTC()
	open.CheckOut = &now
	if err := s.repo.Save(ctx, open); err != nil {
		return nil, NewInternalError("failed to save attendance", err)
	}
	s.log.Info("checked out", "user_id", userID, "attendance_id", open.ID)
	return open, nil
}

// AdminUpdate applies an admin correction to any session, bypassing the
// check-in state machine. Reopening a session still cannot produce a second
// open session for the same user.
func (s *AttendanceService) AdminUpdate(ctx context.Context, id int64, patch AttendancePatch) (*domain.Attendance, error) {
	if patch.Empty() {
		return nil, NewValidationError("no valid fields (checkIn/checkOut) to update")
	}
	if patch.CheckIn.Set && patch.CheckIn.Value == nil {
		return nil, NewValidationError("checkIn cannot be cleared")
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to load attendance", err)
	}
	if rec == nil {
		return nil, ErrAttendanceNotFound
	}

	unlock := s.locks.lock(rec.UserID)
	defer unlock()

	// Re-read under the lock: a check-out may have committed since the first
	// read, and Save writes the whole record back.
	rec, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to load attendance", err)
	}
	if rec == nil {
		return nil, ErrAttendanceNotFound
	}

	if patch.CheckIn.Set {
		rec.CheckIn = patch.CheckIn.Value.UTC()
	}
	if patch.CheckOut.Set {
		if patch.CheckOut.Value == nil {
			rec.CheckOut = nil
		} else {
			out := patch.CheckOut.Value.UTC()
			rec.CheckOut = &out
		}
	}
	if rec.CheckOut != nil && rec.CheckOut.Before(rec.CheckIn) {
		return nil, NewValidationError("checkOut must not be earlier than checkIn")
	}

	err = s.repo.Save(ctx, rec)
	if errors.Is(err, domain.ErrOpenSessionExists) {
		return nil, NewConflictError("user already has another open session", err)
	}
	if err != nil {
		return nil, NewInternalError("failed to save attendance", err)
	}
	s.log.Info("attendance updated by admin", "attendance_id", id)
	return rec, nil
}

// AdminDelete removes a session and its photo. Deleting an unknown id is not
// an error; deleted reports whether a record existed.
func (s *AttendanceService) AdminDelete(ctx context.Context, id int64) (bool, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, NewInternalError("failed to load attendance", err)
	}
	if rec == nil {
		return false, nil
	}

	// The photo goes first; if the row then survives, its buktiFoto dangles.
	if rec.PhotoRef != nil && *rec.PhotoRef != "" {
		s.discardPhoto(s.photos.NameFromRef(*rec.PhotoRef))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		attrs := []any{"attendance_id", id, "error", err}
		if rec.PhotoRef != nil && *rec.PhotoRef != "" {
			attrs = append(attrs, "dangling_photo_ref", *rec.PhotoRef)
		}
		s.log.Error("failed to delete attendance after removing its photo", attrs...)
		return false, NewInternalError("failed to delete attendance", err)
	}
	s.log.Info("attendance deleted by admin", "attendance_id", id)
	return true, nil
}

// discardPhoto deletes a stored artifact; failures are logged only.
func (s *AttendanceService) discardPhoto(name string) {
	if name == "" {
		return
	}
	if err := s.photos.Delete(name); err != nil {
		s.log.Error("failed to delete photo", "photo", name, "error", err)
		return
	}
	s.log.Debug("photo deleted", "photo", name)
}

// userLocks serializes state transitions per user. Entries are dropped when
// no goroutine holds or waits on them.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{m: make(map[int64]*userLock)}
}

func (l *userLocks) lock(userID int64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.m[userID]
	if !ok {
		e = &userLock{}
		l.m[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, userID)
		}
		l.mu.Unlock()
	}
}
