package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi/internal/adapter/memory"
	"presensi/internal/adapter/photostore"
	"presensi/internal/app"
	"presensi/internal/domain"
)

// ---------------------------------------------------------------------------
// Mocks (function-fields pattern)
// ---------------------------------------------------------------------------

type mockAttendanceRepo struct {
	findOpenFn func(ctx context.Context, userID int64) (*domain.Attendance, error)
	createFn   func(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error)
	saveFn     func(ctx context.Context, a *domain.Attendance) error
	getFn      func(ctx context.Context, id int64) (*domain.Attendance, error)
	deleteFn   func(ctx context.Context, id int64) error

	writes atomic.Int32
}

func (m *mockAttendanceRepo) FindOpenByUser(ctx context.Context, userID int64) (*domain.Attendance, error) {
	if m.findOpenFn != nil {
		return m.findOpenFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, a *domain.Attendance) (*domain.Attendance, error) {
	m.writes.Add(1)
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	cp := *a
	cp.ID = 1
	return &cp, nil
}

func (m *mockAttendanceRepo) Save(ctx context.Context, a *domain.Attendance) error {
	m.writes.Add(1)
	if m.saveFn != nil {
		return m.saveFn(ctx, a)
	}
	return nil
}

func (m *mockAttendanceRepo) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id int64) error {
	m.writes.Add(1)
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockPhotoStore struct {
	storeFn  func(ctx context.Context, userID int64, body io.Reader, ext, contentType string) (string, error)
	deleteFn func(name string) error

	mu      sync.Mutex
	stored  []string
	deleted []string
}

func (m *mockPhotoStore) IsAcceptableUpload(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

func (m *mockPhotoStore) Store(ctx context.Context, userID int64, body io.Reader, ext, contentType string) (string, error) {
	if m.storeFn != nil {
		return m.storeFn(ctx, userID, body, ext, contentType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	name := "photo" + ext
	m.stored = append(m.stored, name)
	return name, nil
}

func (m *mockPhotoStore) Delete(name string) error {
	m.mu.Lock()
	m.deleted = append(m.deleted, name)
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(name)
	}
	return nil
}

func (m *mockPhotoStore) Ref(name string) string        { return "uploads/" + name }
func (m *mockPhotoStore) NameFromRef(ref string) string { return strings.TrimPrefix(ref, "uploads/") }
func (m *mockPhotoStore) ResolveURL(name string) string { return "http://test/uploads/" + name }

func jpeg() *app.PhotoUpload {
	return &app.PhotoUpload{Body: strings.NewReader("jpegbytes"), Ext: ".jpg", ContentType: "image/jpeg"}
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// CheckIn
// ---------------------------------------------------------------------------

func TestCheckIn_MissingPhoto(t *testing.T) {
	repo := &mockAttendanceRepo{}
	photos := &mockPhotoStore{}
	svc := app.NewAttendanceService(repo, photos, nil)

	_, err := svc.CheckIn(context.Background(), 1, domain.GeoPoint{}, nil)
	require.ErrorIs(t, err, app.ErrMissingEvidence)
	assert.True(t, app.IsKind(err, app.KindValidation))
	assert.Empty(t, photos.stored)
	assert.Zero(t, repo.writes.Load())
}

func TestCheckIn_Success(t *testing.T) {
	now := time.Date(2025, 12, 12, 1, 2, 3, 0, time.UTC)
	var got *domain.Attendance
	repo := &mockAttendanceRepo{
		createFn: func(_ context.Context, a *domain.Attendance) (*domain.Attendance, error) {
			got = a
			cp := *a
			cp.ID = 42
			return &cp, nil
		},
	}
	photos := &mockPhotoStore{}
	svc := app.NewAttendanceService(repo, photos, nil).WithClock(func() time.Time { return now })

	geo := domain.GeoPoint{Latitude: ptr(-6.2), Longitude: ptr(106.8)}
	rec, err := svc.CheckIn(context.Background(), 7, geo, jpeg())
	require.NoError(t, err)

	assert.Equal(t, int64(42), rec.ID)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, now, got.CheckIn)
	assert.Nil(t, got.CheckOut)
	assert.Equal(t, -6.2, *got.Latitude)
	assert.Equal(t, "uploads/photo.jpg", *got.PhotoRef)
	assert.Empty(t, photos.deleted)
}

func TestCheckIn_AlreadyOpenDeletesPhoto(t *testing.T) {
	existing := &domain.Attendance{ID: 1, UserID: 7, CheckIn: time.Now()}
	repo := &mockAttendanceRepo{
		findOpenFn: func(_ context.Context, _ int64) (*domain.Attendance, error) { return existing, nil },
	}
	photos := &mockPhotoStore{}
	svc := app.NewAttendanceService(repo, photos, nil)

	_, err := svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
	require.ErrorIs(t, err, app.ErrSessionAlreadyOpen)
	assert.True(t, app.IsKind(err, app.KindConflict))
	assert.Equal(t, 400, app.StatusOf(err))
	assert.Equal(t, []string{"photo.jpg"}, photos.deleted)
	assert.Zero(t, repo.writes.Load())
}

func TestCheckIn_StorageUniqueViolationDeletesPhoto(t *testing.T) {
	repo := &mockAttendanceRepo{
		createFn: func(_ context.Context, _ *domain.Attendance) (*domain.Attendance, error) {
			return nil, domain.ErrOpenSessionExists
		},
	}
	photos := &mockPhotoStore{}
	svc := app.NewAttendanceService(repo, photos, nil)

	_, err := svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
	require.ErrorIs(t, err, app.ErrSessionAlreadyOpen)
	assert.Equal(t, []string{"photo.jpg"}, photos.deleted)
}

func TestCheckIn_RepositoryFailureDeletesPhoto(t *testing.T) {
	tests := []struct {
		name string
		repo *mockAttendanceRepo
	}{
		{
			name: "lookup fails",
			repo: &mockAttendanceRepo{
				findOpenFn: func(_ context.Context, _ int64) (*domain.Attendance, error) {
					return nil, errors.New("connection reset")
				},
			},
		},
		{
			name: "insert fails",
			repo: &mockAttendanceRepo{
				createFn: func(_ context.Context, _ *domain.Attendance) (*domain.Attendance, error) {
					return nil, errors.New("disk full")
				},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			photos := &mockPhotoStore{}
			svc := app.NewAttendanceService(tc.repo, photos, nil)

			_, err := svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
			require.Error(t, err)
			assert.True(t, app.IsKind(err, app.KindInternal))
			assert.Equal(t, 500, app.StatusOf(err))
			assert.Equal(t, []string{"photo.jpg"}, photos.deleted)
		})
	}
}

func TestCheckIn_PanicStillDeletesPhoto(t *testing.T) {
	repo := &mockAttendanceRepo{
		createFn: func(_ context.Context, _ *domain.Attendance) (*domain.Attendance, error) {
			panic("driver bug")
		},
	}
	photos := &mockPhotoStore{}
	svc := app.NewAttendanceService(repo, photos, nil)

	assert.Panics(t, func() {
		_, _ = svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
	})
	assert.Equal(t, []string{"photo.jpg"}, photos.deleted)
}

func TestCheckIn_CompensationFailureKeepsOriginalError(t *testing.T) {
	repo := &mockAttendanceRepo{
		findOpenFn: func(_ context.Context, _ int64) (*domain.Attendance, error) {
			return &domain.Attendance{ID: 1}, nil
		},
	}
	photos := &mockPhotoStore{deleteFn: func(string) error { return errors.New("read-only fs") }}
	svc := app.NewAttendanceService(repo, photos, nil)

	_, err := svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
	require.ErrorIs(t, err, app.ErrSessionAlreadyOpen)
}

func TestCheckIn_PhotoStoreErrors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		kind     app.Kind
	}{
		{"not an image", domain.ErrUnsupportedMedia, app.KindUnsupportedMedia},
		{"too large", domain.ErrPhotoTooLarge, app.KindValidation},
		{"io failure", errors.New("no space left"), app.KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockAttendanceRepo{}
			photos := &mockPhotoStore{
				storeFn: func(context.Context, int64, io.Reader, string, string) (string, error) {
					return "", tc.storeErr
				},
			}
			svc := app.NewAttendanceService(repo, photos, nil)

			_, err := svc.CheckIn(context.Background(), 7, domain.GeoPoint{}, jpeg())
			assert.True(t, app.IsKind(err, tc.kind), "got %v", err)
			assert.Zero(t, repo.writes.Load())
			assert.Empty(t, photos.deleted)
		})
	}
}

func TestCheckIn_IgnoresCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := &mockAttendanceRepo{
		findOpenFn: func(ctx context.Context, _ int64) (*domain.Attendance, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	_, err := svc.CheckIn(ctx, 7, domain.GeoPoint{}, jpeg())
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// CheckOut
// ---------------------------------------------------------------------------

func TestCheckOut_NoOpenSession(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	_, err := svc.CheckOut(context.Background(), 7)
	require.ErrorIs(t, err, app.ErrNoOpenSession)
	assert.Equal(t, 404, app.StatusOf(err))
	assert.Zero(t, repo.writes.Load())
}

func TestCheckOut_Success(t *testing.T) {
	checkIn := time.Date(2025, 12, 12, 1, 0, 0, 0, time.UTC)
	now := checkIn.Add(8 * time.Hour)
	var saved *domain.Attendance
	repo := &mockAttendanceRepo{
		findOpenFn: func(_ context.Context, _ int64) (*domain.Attendance, error) {
			return &domain.Attendance{ID: 3, UserID: 7, CheckIn: checkIn}, nil
		},
		saveFn: func(_ context.Context, a *domain.Attendance) error {
			saved = a
			return nil
		},
	}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil).WithClock(func() time.Time { return now })

	rec, err := svc.CheckOut(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	assert.Equal(t, now, *rec.CheckOut)
	assert.Equal(t, checkIn, saved.CheckIn)
}

func TestCheckOut_SaveFailure(t *testing.T) {
	repo := &mockAttendanceRepo{
		findOpenFn: func(_ context.Context, _ int64) (*domain.Attendance, error) {
			return &domain.Attendance{ID: 3, UserID: 7}, nil
		},
		saveFn: func(context.Context, *domain.Attendance) error { return errors.New("timeout") },
	}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	_, err := svc.CheckOut(context.Background(), 7)
	assert.True(t, app.IsKind(err, app.KindInternal))
}

// ---------------------------------------------------------------------------
// Admin operations
// ---------------------------------------------------------------------------

func TestAdminUpdate(t *testing.T) {
	checkIn := time.Date(2025, 12, 12, 1, 0, 0, 0, time.UTC)
	checkOut := checkIn.Add(9 * time.Hour)

	tests := []struct {
		name     string
		patch    app.AttendancePatch
		wantKind app.Kind
		check    func(t *testing.T, a *domain.Attendance)
	}{
		{
			name:     "no fields",
			patch:    app.AttendancePatch{},
			wantKind: app.KindValidation,
		},
		{
			name:     "clear checkIn",
			patch:    app.AttendancePatch{CheckIn: app.OptionalTime{Set: true}},
			wantKind: app.KindValidation,
		},
		{
			name: "set checkIn only",
			patch: app.AttendancePatch{
				CheckIn: app.OptionalTime{Set: true, Value: ptr(checkIn.Add(-30 * time.Minute))},
			},
			check: func(t *testing.T, a *domain.Attendance) {
				assert.Equal(t, checkIn.Add(-30*time.Minute), a.CheckIn)
				assert.Equal(t, checkOut, *a.CheckOut)
			},
		},
		{
			name: "explicit null reopens",
			patch: app.AttendancePatch{
				CheckOut: app.OptionalTime{Set: true},
			},
			check: func(t *testing.T, a *domain.Attendance) {
				assert.Nil(t, a.CheckOut)
				assert.Equal(t, checkIn, a.CheckIn)
			},
		},
		{
			name: "checkOut before checkIn",
			patch: app.AttendancePatch{
				CheckOut: app.OptionalTime{Set: true, Value: ptr(checkIn.Add(-time.Hour))},
			},
			wantKind: app.KindValidation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockAttendanceRepo{
				getFn: func(_ context.Context, id int64) (*domain.Attendance, error) {
					out := checkOut
					return &domain.Attendance{ID: id, UserID: 7, CheckIn: checkIn, CheckOut: &out}, nil
				},
			}
			svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

			rec, err := svc.AdminUpdate(context.Background(), 5, tc.patch)
			if tc.wantKind != "" {
				assert.True(t, app.IsKind(err, tc.wantKind), "got %v", err)
				assert.Zero(t, repo.writes.Load())
				return
			}
			require.NoError(t, err)
			tc.check(t, rec)
			assert.Equal(t, int32(1), repo.writes.Load())
		})
	}
}

func TestAdminUpdate_NotFound(t *testing.T) {
	svc := app.NewAttendanceService(&mockAttendanceRepo{}, &mockPhotoStore{}, nil)

	_, err := svc.AdminUpdate(context.Background(), 99, app.AttendancePatch{
		CheckIn: app.OptionalTime{Set: true, Value: ptr(time.Now())},
	})
	require.ErrorIs(t, err, app.ErrAttendanceNotFound)
}

func TestAdminUpdate_ReopenConflict(t *testing.T) {
	repo := &mockAttendanceRepo{
		getFn: func(_ context.Context, id int64) (*domain.Attendance, error) {
			out := time.Now()
			return &domain.Attendance{ID: id, UserID: 7, CheckIn: out.Add(-time.Hour), CheckOut: &out}, nil
		},
		saveFn: func(context.Context, *domain.Attendance) error { return domain.ErrOpenSessionExists },
	}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	_, err := svc.AdminUpdate(context.Background(), 5, app.AttendancePatch{CheckOut: app.OptionalTime{Set: true}})
	assert.True(t, app.IsKind(err, app.KindConflict))
}

// hookedAttendanceRepo runs afterGet once, right after the first GetByID
// returns, to interleave another operation with the caller.
type hookedAttendanceRepo struct {
	*memory.AttendanceRepo
	afterGet func()
}

func (r *hookedAttendanceRepo) GetByID(ctx context.Context, id int64) (*domain.Attendance, error) {
	a, err := r.AttendanceRepo.GetByID(ctx, id)
	if hook := r.afterGet; hook != nil {
		r.afterGet = nil
		hook()
	}
	return a, err
}

func TestAdminUpdate_KeepsCheckOutCommittedDuringUpdate(t *testing.T) {
	ctx := context.Background()
	repo := &hookedAttendanceRepo{AttendanceRepo: memory.New().NewAttendanceRepo()}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	checkIn := time.Now().UTC().Add(-8 * time.Hour).Truncate(time.Second)
	open, err := repo.Create(ctx, &domain.Attendance{UserID: 7, CheckIn: checkIn})
	require.NoError(t, err)

	repo.afterGet = func() {
		_, err := svc.CheckOut(ctx, 7)
		require.NoError(t, err)
	}

	earlier := checkIn.Add(-time.Hour)
	rec, err := svc.AdminUpdate(ctx, open.ID, app.AttendancePatch{
		CheckIn: app.OptionalTime{Set: true, Value: &earlier},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut, "check-out committed during the update was lost")
	assert.True(t, rec.CheckIn.Equal(earlier))

	stored, err := repo.AttendanceRepo.GetByID(ctx, open.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CheckOut)
	assert.True(t, stored.CheckIn.Equal(earlier))

	still, err := repo.FindOpenByUser(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, still)
}

func TestAdminUpdate_RecordDeletedDuringUpdate(t *testing.T) {
	ctx := context.Background()
	repo := &hookedAttendanceRepo{AttendanceRepo: memory.New().NewAttendanceRepo()}
	svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

	rec, err := repo.Create(ctx, &domain.Attendance{UserID: 7, CheckIn: time.Now().UTC()})
	require.NoError(t, err)
	repo.afterGet = func() { require.NoError(t, repo.Delete(ctx, rec.ID)) }

	_, err = svc.AdminUpdate(ctx, rec.ID, app.AttendancePatch{CheckOut: app.OptionalTime{Set: true}})
	assert.ErrorIs(t, err, app.ErrAttendanceNotFound)

	gone, _ := repo.AttendanceRepo.GetByID(ctx, rec.ID)
	assert.Nil(t, gone)
}

func TestAdminDelete(t *testing.T) {
	t.Run("unknown id succeeds", func(t *testing.T) {
		repo := &mockAttendanceRepo{}
		svc := app.NewAttendanceService(repo, &mockPhotoStore{}, nil)

		deleted, err := svc.AdminDelete(context.Background(), 99)
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Zero(t, repo.writes.Load())
	})

	t.Run("removes photo then record", func(t *testing.T) {
		var order []string
		repo := &mockAttendanceRepo{
			getFn: func(_ context.Context, id int64) (*domain.Attendance, error) {
				return &domain.Attendance{ID: id, UserID: 7, PhotoRef: ptr("uploads/7-1.jpg")}, nil
			},
			deleteFn: func(context.Context, int64) error {
				order = append(order, "record")
				return nil
			},
		}
		photos := &mockPhotoStore{deleteFn: func(string) error {
			order = append(order, "photo")
			return nil
		}}
		svc := app.NewAttendanceService(repo, photos, nil)

		deleted, err := svc.AdminDelete(context.Background(), 5)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []string{"7-1.jpg"}, photos.deleted)
		assert.Equal(t, []string{"photo", "record"}, order)
	})

	t.Run("photo delete failure is not fatal", func(t *testing.T) {
		repo := &mockAttendanceRepo{
			getFn: func(_ context.Context, id int64) (*domain.Attendance, error) {
				return &domain.Attendance{ID: id, PhotoRef: ptr("uploads/7-1.jpg")}, nil
			},
		}
		photos := &mockPhotoStore{deleteFn: func(string) error { return errors.New("permission denied") }}
		svc := app.NewAttendanceService(repo, photos, nil)

		deleted, err := svc.AdminDelete(context.Background(), 5)
		require.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("record delete failure logs the dangling photo", func(t *testing.T) {
		repo := &mockAttendanceRepo{
			getFn: func(_ context.Context, id int64) (*domain.Attendance, error) {
				return &domain.Attendance{ID: id, UserID: 7, PhotoRef: ptr("uploads/7-1.jpg")}, nil
			},
			deleteFn: func(context.Context, int64) error { return errors.New("locked") },
		}
		var buf bytes.Buffer
		photos := &mockPhotoStore{}
		svc := app.NewAttendanceService(repo, photos, slog.New(slog.NewTextHandler(&buf, nil)))

		_, err := svc.AdminDelete(context.Background(), 5)
		assert.True(t, app.IsKind(err, app.KindInternal))
		assert.Equal(t, []string{"7-1.jpg"}, photos.deleted)
		assert.Contains(t, buf.String(), "dangling_photo_ref=uploads/7-1.jpg")
		assert.Contains(t, buf.String(), "attendance_id=5")
	})
}

// ---------------------------------------------------------------------------
// End-to-end against the memory repository and an in-memory photo store
// ---------------------------------------------------------------------------

func newRealService(t *testing.T) (*app.AttendanceService, *memory.AttendanceRepo, *photostore.Store, *time.Time) {
	t.Helper()
	clock := time.Date(2025, 12, 12, 1, 0, 0, 0, time.UTC)
	photos, err := photostore.New(afero.NewMemMapFs(), photostore.Config{Dir: "uploads"})
	require.NoError(t, err)
	photos.WithClock(func() time.Time { return clock })
	repo := memory.New().NewAttendanceRepo()
	svc := app.NewAttendanceService(repo, photos, nil).WithClock(func() time.Time { return clock })
	return svc, repo, photos, &clock
}

func TestAttendanceScenario(t *testing.T) {
	svc, repo, photos, clock := newRealService(t)
	ctx := context.Background()
	const userA = int64(1)

	// T0: first check-in creates R1.
	r1, err := svc.CheckIn(ctx, userA, domain.GeoPoint{}, jpeg())
	require.NoError(t, err)
	p1 := photos.NameFromRef(*r1.PhotoRef)
	assert.True(t, photos.Exists(p1))
	assert.True(t, r1.IsOpen())

	// T1: duplicate check-in is rejected and its photo removed.
	*clock = clock.Add(time.Minute)
	_, err = svc.CheckIn(ctx, userA, domain.GeoPoint{}, jpeg())
	require.ErrorIs(t, err, app.ErrSessionAlreadyOpen)
	p2 := "1-" + itoa(clock.UnixMilli()) + ".jpg"
	assert.False(t, photos.Exists(p2))
	open, _ := repo.FindOpenByUser(ctx, userA)
	require.NotNil(t, open)
	assert.Equal(t, r1.ID, open.ID)
	assert.True(t, photos.Exists(p1))

	// T2: check-out closes R1.
	*clock = clock.Add(8 * time.Hour)
	closed, err := svc.CheckOut(ctx, userA)
	require.NoError(t, err)
	assert.Equal(t, r1.ID, closed.ID)
	assert.Equal(t, *clock, *closed.CheckOut)
	assert.Equal(t, r1.CheckIn, closed.CheckIn)

	// T3: a new check-in creates R2 independent of R1.
	*clock = clock.Add(16 * time.Hour)
	r2, err := svc.CheckIn(ctx, userA, domain.GeoPoint{}, jpeg())
	require.NoError(t, err)
	assert.NotEqual(t, r1.ID, r2.ID)
	assert.True(t, r2.IsOpen())
	stored1, _ := repo.GetByID(ctx, r1.ID)
	assert.False(t, stored1.IsOpen())

	// Admin delete removes both the record and the file.
	deleted, err := svc.AdminDelete(ctx, r2.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, photos.Exists(photos.NameFromRef(*r2.PhotoRef)))
	gone, _ := repo.GetByID(ctx, r2.ID)
	assert.Nil(t, gone)
}

func TestCheckIn_ConcurrentSameUserOpensOneSession(t *testing.T) {
	photos, err := photostore.New(afero.NewMemMapFs(), photostore.Config{Dir: "uploads"})
	require.NoError(t, err)
	repo := memory.New().NewAttendanceRepo()
	svc := app.NewAttendanceService(repo, photos, nil)

	const n = 16
	var wg sync.WaitGroup
	var ok atomic.Int32
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CheckIn(context.Background(), 1, domain.GeoPoint{}, jpeg()); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	open, _ := repo.FindOpenByUser(context.Background(), 1)
	require.NotNil(t, open)
	assert.True(t, photos.Exists(photos.NameFromRef(*open.PhotoRef)))
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
