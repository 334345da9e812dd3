package adapthttp

import "net/http"

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("nama")
	day := q.Get("date")

	items, err := s.reports.Daily(r.Context(), name, day)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	body := map[string]any{"data": items}
	if day != "" {
		body["reportDate"] = day
	}
	writeJSON(w, http.StatusOK, body)
}
