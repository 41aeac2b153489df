package http

import (
	"net/http"
	"time"

	"moneytrack/internal/core"
)

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	rng := s.filters.Range()
	writeJSON(w, http.StatusOK, map[string]any{
		"month":         string(s.filters.Month()),
		"form_open":     s.filters.FormOpen(),
		"refresh_count": s.filters.RefreshCount(),
		"range": map[string]string{
			"start": rng.Start.Format(time.RFC3339Nano),
			"end":   rng.End.Format(time.RFC3339Nano),
		},
	})
}

// handleSetMonth switches the shared month filter; dependent views re-fetch
// through the bumped refresh counter.
func (s *Server) handleSetMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month string `json:"month"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.filters.SetMonth(core.Month(req.Month)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_month", err.Error())
		return
	}
	s.filters.Refresh()
	writeJSON(w, http.StatusOK, map[string]any{
		"month":         req.Month,
		"refresh_count": s.filters.RefreshCount(),
	})
}

func (s *Server) handleSetFormOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Open bool `json:"open"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.filters.SetFormOpen(req.Open)
	writeJSON(w, http.StatusOK, map[string]bool{"form_open": req.Open})
}
