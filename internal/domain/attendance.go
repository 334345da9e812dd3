package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrOpenSessionExists is returned by AttendanceRepository when a write would
	// leave a user with more than one open session.
	ErrOpenSessionExists = errors.New("user already has an open attendance session")
	// ErrUnsupportedMedia is returned by PhotoStore for uploads not declared as images.
	ErrUnsupportedMedia = errors.New("only image uploads are allowed")
	// ErrPhotoTooLarge is returned by PhotoStore when an upload exceeds its size limit.
	ErrPhotoTooLarge = errors.New("photo exceeds the maximum upload size")
)

// Attendance is one check-in/check-out pair. A nil CheckOut means the session is open.
type Attendance struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	CheckIn   time.Time  `json:"checkIn"`
	CheckOut  *time.Time `json:"checkOut"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	PhotoRef  *string    `json:"buktiFoto"`
}

// IsOpen reports whether the session has not been checked out yet.
func (a *Attendance) IsOpen() bool {
	return a.CheckOut == nil
}

// GeoPoint is the optional location captured at check-in.
type GeoPoint struct {
	Latitude  *float64
	Longitude *float64
}

// AttendanceRepository is the port for attendance persistence.
//
// Implementations must refuse to hold two open sessions for the same user
// and report it as ErrOpenSessionExists. Lookups return nil, nil when
// nothing matches.
type AttendanceRepository interface {
	FindOpenByUser(ctx context.Context, userID int64) (*Attendance, error)
	Create(ctx context.Context, a *Attendance) (*Attendance, error)
	Save(ctx context.Context, a *Attendance) error
	GetByID(ctx context.Context, id int64) (*Attendance, error)
	Delete(ctx context.Context, id int64) error
}

// PhotoStore is the port for attendance photo artifacts.
type PhotoStore interface {
	IsAcceptableUpload(contentType string) bool
	Store(ctx context.Context, userID int64, body io.Reader, ext, contentType string) (string, error)
	Delete(name string) error
	Ref(name string) string
	NameFromRef(ref string) string
	ResolveURL(name string) string
}
