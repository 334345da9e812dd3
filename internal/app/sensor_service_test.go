package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presensi/internal/app"
	"presensi/internal/domain"
)

type mockSensorRepo struct {
	addFn  func(ctx context.Context, r domain.SensorReading) (int64, error)
	listFn func(ctx context.Context, limit int) ([]domain.SensorReading, error)
}

func (m *mockSensorRepo) AddReading(ctx context.Context, r domain.SensorReading) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 0, nil
}

func (m *mockSensorRepo) ListRecentReadings(ctx context.Context, limit int) ([]domain.SensorReading, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func TestRecordReading_Validation(t *testing.T) {
	svc := app.NewSensorService(&mockSensorRepo{})

	tests := []struct {
		name                 string
		suhu, lembab, cahaya float64
	}{
		{"too cold", -41, 50, 100},
		{"too hot", 126, 50, 100},
		{"humidity negative", 25, -1, 100},
		{"humidity above 100", 25, 101, 100},
		{"negative light", 25, 50, -5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), tc.suhu, tc.lembab, tc.cahaya)
			assert.True(t, app.IsKind(err, app.KindValidation), "got %v", err)
		})
	}
}

func TestRecordReading_Success(t *testing.T) {
	var got domain.SensorReading
	repo := &mockSensorRepo{
		addFn: func(_ context.Context, r domain.SensorReading) (int64, error) {
			got = r
			return 42, nil
		},
	}
	id, err := app.NewSensorService(repo).Record(context.Background(), 28.5, 70, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, 28.5, got.Temperature)
	assert.Equal(t, 70.0, got.Humidity)
	assert.Equal(t, 300.0, got.Light)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRecordReading_RepoError(t *testing.T) {
	repo := &mockSensorRepo{
		addFn: func(context.Context, domain.SensorReading) (int64, error) { return 0, errors.New("db down") },
	}
	_, err := app.NewSensorService(repo).Record(context.Background(), 25, 50, 10)
	assert.True(t, app.IsKind(err, app.KindInternal))
}

func TestSensorHistory(t *testing.T) {
	now := time.Now()
	newestFirst := []domain.SensorReading{
		{ID: 3, Temperature: 100, CreatedAt: now},
		{ID: 2, Temperature: 0, CreatedAt: now.Add(-time.Minute)},
		{ID: 1, Temperature: 20, CreatedAt: now.Add(-2 * time.Minute)},
	}
	var gotLimit int
	repo := &mockSensorRepo{
		listFn: func(_ context.Context, limit int) ([]domain.SensorReading, error) {
			gotLimit = limit
			out := make([]domain.SensorReading, len(newestFirst))
			copy(out, newestFirst)
			return out, nil
		},
	}
	svc := app.NewSensorService(repo)

	items, err := svc.History(context.Background(), 0, "")
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit)
	require.Len(t, items, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, 20.0, items[0].Temperature)

	items, err = svc.History(context.Background(), 10000, "F")
	require.NoError(t, err)
	assert.Equal(t, 500, gotLimit)
	assert.InDelta(t, 68.0, items[0].Temperature, 0.001)
	assert.InDelta(t, 212.0, items[2].Temperature, 0.001)

	_, err = svc.History(context.Background(), 5, "K")
	assert.True(t, app.IsKind(err, app.KindValidation))
}

func TestSensorLatest(t *testing.T) {
	repo := &mockSensorRepo{}
	latest, err := app.NewSensorService(repo).Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)

	repo.listFn = func(_ context.Context, limit int) ([]domain.SensorReading, error) {
		assert.Equal(t, 1, limit)
		return []domain.SensorReading{{ID: 9, Temperature: 31}}, nil
	}
	latest, err = app.NewSensorService(repo).Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), latest.ID)
}
