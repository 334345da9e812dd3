package adapthttp

import (
	"net/http"
	"strings"
)

type sensorDataRequest struct {
	Temperature *float64 `json:"suhu" validate:"required"`
	Humidity    *float64 `json:"kelembaban" validate:"required"`
	Light       *float64 `json:"cahaya" validate:"required"`
}

func (s *Server) handleSensorData(w http.ResponseWriter, r *http.Request) {
	var req sensorDataRequest
	if err := parseJSON(r, &req); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	id, err := s.sensors.Record(r.Context(), *req.Temperature, *req.Humidity, *req.Light)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "sensor data saved", "id": id})
}

func (s *Server) handleSensorHistory(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	unit := strings.ToUpper(r.URL.Query().Get("unit"))
	if unit == "" {
		unit = "C"
	}

	items, err := s.sensors.History(r.Context(), limit, unit)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unit": unit, "data": items})
}

func (s *Server) handleSensorLatest(w http.ResponseWriter, r *http.Request) {
	reading, err := s.sensors.Latest(r.Context())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": reading})
}
