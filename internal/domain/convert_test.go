package domain_test

import (
	"math"
	"testing"
	"time"

	"presensi/internal/domain"
)

func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		want     float64
	}{
		{"C to F", 100.0, "C", "F", 212.0},
		{"F to C", 212.0, "F", "C", 100.0},
		{"freezing", 0, "C", "F", 32},
		{"same unit C", 28.5, "C", "C", 28.5},
		{"unknown units", 50.0, "K", "C", 50.0},
		{"negative", -40, "C", "F", -40},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := domain.ConvertTemperature(tc.value, tc.from, tc.to)
			if !almostEqual(got, tc.want, 0.001) {
				t.Errorf("ConvertTemperature(%v, %q, %q) = %v; want %v",
					tc.value, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	start, end, err := domain.DayBounds("2025-12-12", loc)
	if err != nil {
		t.Fatalf("DayBounds: %v", err)
	}
	if got := start.UTC().Format(time.RFC3339); got != "2025-12-11T17:00:00Z" {
		t.Errorf("start = %s", got)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("expected a 24h window, got %v", end.Sub(start))
	}
	if _, _, err := domain.DayBounds("12/12/2025", loc); err == nil {
		t.Error("expected parse error")
	}
}
