package app

import (
	"context"
	"time"

	"presensi/internal/domain"
)

// ReportService encapsulates the attendance report used by administrators.
type ReportService struct {
	repo   domain.ReportRepository
	photos domain.PhotoStore
	loc    *time.Location
}

// NewReportService creates a ReportService. Days are interpreted in loc.
func NewReportService(repo domain.ReportRepository, photos domain.PhotoStore, loc *time.Location) *ReportService {
	if loc == nil {
		loc = time.Local
	}
	return &ReportService{repo: repo, photos: photos, loc: loc}
}

// ReportUser is the owner summary embedded in each report row.
type ReportUser struct {
	Name  string `json:"nama"`
	Email string `json:"email"`
}

// ReportItem is a single row of the attendance report.
type ReportItem struct {
	domain.Attendance
	PhotoURL *string    `json:"photoUrl"`
	User     ReportUser `json:"user"`
}

// Daily lists attendance sessions matching name, optionally limited to one
// local day (YYYY-MM-DD). Photo references are resolved to public URLs.
func (s *ReportService) Daily(ctx context.Context, name, day string) ([]ReportItem, error) {
	if day != "" {
		if _, _, err := domain.DayBounds(day, s.loc); err != nil {
			return nil, NewValidationError("date must be formatted as YYYY-MM-DD")
		}
	}

	rows, err := s.repo.ListReport(ctx, domain.ReportFilter{Name: name, Day: day, Loc: s.loc})
	if err != nil {
		return nil, NewInternalError("failed to load report", err)
	}

	items := make([]ReportItem, 0, len(rows))
	for _, r := range rows {
		item := ReportItem{
			Attendance: r.Attendance,
			User:       ReportUser{Name: r.UserName, Email: r.UserEmail},
		}
		if r.PhotoRef != nil && *r.PhotoRef != "" {
			url := s.photos.ResolveURL(s.photos.NameFromRef(*r.PhotoRef))
			item.PhotoURL = &url
		}
		items = append(items, item)
	}
	return items, nil
}
