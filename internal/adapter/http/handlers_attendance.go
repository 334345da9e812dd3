package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"presensi/internal/app"
	"presensi/internal/domain"
)

const photoField = "buktiFoto"

type checkInForm struct {
	Latitude  string `form:"latitude" validate:"omitempty,latitude"`
	Longitude string `form:"longitude" validate:"omitempty,longitude"`
}

type updateAttendanceRequest struct {
	CheckIn  *string `json:"checkIn" validate:"omitnil,iso8601"`
	CheckOut *string `json:"checkOut" validate:"omitnil,iso8601"`
}

// clock formats t as a wall-clock time in the server timezone, e.g. "08:01:02 WIB".
func (s *Server) clock(t time.Time) string {
	return t.In(s.loc).Format("15:04:05 MST")
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)

	// Room for the photo plus the small text fields.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+64<<10)
	photo, form, cleanup, err := s.readCheckInForm(r)
	defer cleanup()
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	geo, err := parseGeo(form)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	rec, err := s.attendance.CheckIn(r.Context(), user.ID, geo, photo)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": fmt.Sprintf("Hello %s, check-in recorded at %s", user.Name, s.clock(rec.CheckIn)),
		"data":    rec,
	})
}

// readCheckInForm parses the multipart body. The declared media type of the
// photo is checked before its bytes are opened. A request without a photo
// yields a nil upload so the service reports the missing evidence.
func (s *Server) readCheckInForm(r *http.Request) (*app.PhotoUpload, checkInForm, func(), error) {
	cleanup := func() {}
	var form checkInForm

	err := r.ParseMultipartForm(1 << 20)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nil, form, cleanup, app.NewValidationError(domain.ErrPhotoTooLarge.Error())
	case errors.Is(err, http.ErrNotMultipart):
		return nil, form, cleanup, nil
	case err != nil:
		return nil, form, cleanup, app.NewValidationError(fmt.Sprintf("invalid multipart body: %v", err))
	}
	cleanup = func() { _ = r.MultipartForm.RemoveAll() }

	form.Latitude = r.FormValue("latitude")
	form.Longitude = r.FormValue("longitude")

	files := r.MultipartForm.File[photoField]
	if len(files) == 0 {
		return nil, form, cleanup, nil
	}
	header := files[0]
	contentType := header.Header.Get("Content-Type")
	if !s.photos.IsAcceptableUpload(contentType) {
		return nil, form, cleanup, app.NewUnsupportedMediaError(domain.ErrUnsupportedMedia.Error())
	}

	f, err := header.Open()
	if err != nil {
		return nil, form, cleanup, app.NewInternalError("failed to read upload", err)
	}
	prev := cleanup
	cleanup = func() {
		_ = f.Close()
		prev()
	}
	return &app.PhotoUpload{
		Body:        f,
		Ext:         filepath.Ext(header.Filename),
		ContentType: contentType,
	}, form, cleanup, nil
}

func parseGeo(form checkInForm) (domain.GeoPoint, error) {
	var geo domain.GeoPoint
	if err := validateStruct(form); err != nil {
		return geo, err
	}
	if form.Latitude != "" {
		v, _ := strconv.ParseFloat(form.Latitude, 64)
		geo.Latitude = &v
	}
	if form.Longitude != "" {
		v, _ := strconv.ParseFloat(form.Longitude, 64)
		geo.Longitude = &v
	}
	return geo, nil
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	rec, err := s.attendance.CheckOut(r.Context(), user.ID)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Goodbye %s, check-out recorded at %s", user.Name, s.clock(*rec.CheckOut)),
		"data":    rec,
	})
}

func (s *Server) handleUpdateAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	patch, err := s.decodePatch(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	rec, err := s.attendance.AdminUpdate(r.Context(), id, patch)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "attendance updated", "data": rec})
}

// decodePatch reads checkIn/checkOut with explicit presence: an absent key
// leaves the field alone, null clears it, a string sets it.
func (s *Server) decodePatch(r *http.Request) (app.AttendancePatch, error) {
	var patch app.AttendancePatch

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return patch, app.NewValidationError(fmt.Sprintf("invalid json: %v", err))
	}
	var req updateAttendanceRequest
	for key, dst := range map[string]**string{"checkIn": &req.CheckIn, "checkOut": &req.CheckOut} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return patch, app.NewValidationError(fmt.Sprintf("%s must be a string or null", key))
		}
	}
	if err := validateStruct(req); err != nil {
		return patch, err
	}

	var err error
	if patch.CheckIn, err = s.optionalTime(raw, "checkIn", req.CheckIn); err != nil {
		return patch, err
	}
	if patch.CheckOut, err = s.optionalTime(raw, "checkOut", req.CheckOut); err != nil {
		return patch, err
	}
	return patch, nil
}

func (s *Server) optionalTime(raw map[string]json.RawMessage, key string, v *string) (app.OptionalTime, error) {
	if _, ok := raw[key]; !ok {
		return app.OptionalTime{}, nil
	}
	if v == nil {
		return app.OptionalTime{Set: true}, nil
	}
	t, err := parseISO8601(*v, s.loc)
	if err != nil {
		return app.OptionalTime{}, app.NewValidationError(fmt.Sprintf("%s must be a valid ISO-8601 date", key))
	}
	return app.OptionalTime{Set: true, Value: &t}, nil
}

func (s *Server) handleDeleteAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	deleted, err := s.attendance.AdminDelete(r.Context(), id)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	msg := "attendance deleted"
	if !deleted {
		msg = "attendance not found or already deleted"
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": msg})
}
