package http

import (
	"fmt"
	"net/http"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, userID int64) {
	filter, err := parseTransactionFilter(r, userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := summaryKeyPrefix(userID) + fmt.Sprintf("%d:%s:%s:%t:%d:%d",
		filter.AccountID,
		filter.From.Format("2006-01-02"),
		filter.To.Format("2006-01-02"),
		filter.OnlyUncategorized,
		filter.Limit,
		filter.Offset)

	if cached, ok := s.summaryCache.Get(key); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(cached))
		return
	}

	summary, err := s.ledger.Summarize(r.Context(), filter)
	if err != nil {
		s.logDomainError(r, "summary", err)
		writeDomainError(w, err)
		return
	}

	s.summaryCache.Set(key, summary)
	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}
