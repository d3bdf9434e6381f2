package http

import (
	"net/http"
)

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request, userID int64) {
	if s.insights == nil {
		writeError(w, http.StatusServiceUnavailable, "insights are not configured")
		return
	}

	report, err := s.insights.Generate(r.Context(), userID)
	if err != nil {
		s.logDomainError(r, "insights", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsightsResponse(report))
}
