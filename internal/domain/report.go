package domain

import (
	"context"
	"time"
)

// ReportFilter narrows the attendance report.
type ReportFilter struct {
	// Name matches users whose display name contains it, case-insensitively.
	Name string
	// Day restricts rows to check-ins on a local calendar day (YYYY-MM-DD).
	Day string
	// Loc is the timezone Day is interpreted in. Nil means time.Local.
	Loc *time.Location
}

// ReportRow is an attendance session joined with its owner.
type ReportRow struct {
	Attendance
	UserName  string `json:"-"`
	UserEmail string `json:"-"`
}

// ReportRepository is the read-side port used by the report path.
type ReportRepository interface {
	ListReport(ctx context.Context, f ReportFilter) ([]ReportRow, error)
}

// DayBounds returns the [start, end) instants of a local calendar day.
func DayBounds(day string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	start, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 0, 1), nil
}
