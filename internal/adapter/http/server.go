package adapthttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"presensi/internal/app"
	"presensi/internal/domain"
)

// PhotoFiles is the photo store as seen by the HTTP adapter: the domain port
// plus a read-only view for serving stored photos.
type PhotoFiles interface {
	domain.PhotoStore
	Exists(name string) bool
	FileSystem() http.FileSystem
}

// Deps are the collaborators of a Server.
type Deps struct {
	Attendance *app.AttendanceService
	Reports    *app.ReportService
	Sensors    *app.SensorService
	Auth       *app.AuthService
	Photos     PhotoFiles
	// SSO is nil when single sign-on is not configured.
	SSO *SSO
	// Ping reports storage health. Nil means always healthy.
	Ping func(context.Context) error

	WebDir string
	// MaxUploadBytes bounds a check-in photo.
	MaxUploadBytes int64
	// Location is used for user-facing times and report days.
	Location *time.Location
	Logger   *slog.Logger
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	attendance *app.AttendanceService
	reports    *app.ReportService
	sensors    *app.SensorService
	auth       *app.AuthService
	photos     PhotoFiles
	sso        *SSO
	ping       func(context.Context) error
	webDir     string
	maxUpload  int64
	loc        *time.Location
	log        *slog.Logger
}

// New creates a Server wired to the given application services.
func New(d Deps) *Server {
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = discardLogger()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	return &Server{
		attendance: d.Attendance,
		reports:    d.Reports,
		sensors:    d.Sensors,
		auth:       d.Auth,
		photos:     d.Photos,
		sso:        d.SSO,
		ping:       d.Ping,
		webDir:     d.WebDir,
		maxUpload:  d.MaxUploadBytes,
		loc:        d.Location,
		log:        d.Logger.With("component", "http"),
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("GET /health", s.handleHealth)

	api.HandleFunc("POST /auth/register", s.handleRegister)
	api.HandleFunc("POST /auth/login", s.handleLogin)
	api.HandleFunc("GET /auth/me", s.requireUser(s.handleMe))
	api.HandleFunc("GET /auth/config", s.handleConfig)
	api.HandleFunc("GET /auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("GET /auth/sso/callback", s.handleSSOCallback)

	api.HandleFunc("POST /presensi/checkin", s.requireUser(s.handleCheckIn))
	api.HandleFunc("POST /presensi/checkout", s.requireUser(s.handleCheckOut))
	api.HandleFunc("PUT /presensi/{id}", s.requireAdmin(s.handleUpdateAttendance))
	api.HandleFunc("DELETE /presensi/{id}", s.requireAdmin(s.handleDeleteAttendance))

	api.HandleFunc("GET /reports/daily", s.requireAdmin(s.handleDailyReport))

	api.HandleFunc("POST /iot/data", s.handleSensorData)
	api.HandleFunc("GET /iot/history", s.handleSensorHistory)
	api.HandleFunc("GET /iot/latest", s.handleSensorLatest)

	api.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found", nil)
	})

	root := http.NewServeMux()
	root.Handle("/api/", withNoCache(http.StripPrefix("/api", api)))
	root.Handle("/uploads/", http.StripPrefix("/uploads", servePhotos(s.photos)))
	if s.webDir != "" {
		root.Handle("/", spaFromDisk(s.webDir))
	} else {
		root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte("Home Page for API"))
		})
	}

	return s.loggingMiddleware(s.recoverMiddleware(withCORS(root)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.log.WarnContext(ctx, "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
