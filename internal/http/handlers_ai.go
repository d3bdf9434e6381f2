package http

import (
	"net/http"

	"fintrack/internal/classifier"
	"fintrack/internal/core"
)

type suggestCategoryRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Merchant    string `json:"merchant"`
}

// handleSuggestCategory returns a category suggestion without touching any
// transaction. Mirrors the create-path classification, but the caller keeps
// the decision.
func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request, userID int64) {
	if s.suggester == nil || !s.suggester.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "AI categorization is not configured")
		return
	}

	var req suggestCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	category, origin := s.suggester.ClassifyWithOrigin(r.Context(),
		sanitizeInput(req.Description), amount, sanitizeInput(req.Merchant))

	confidence := "medium"
	if origin == classifier.OriginModel {
		confidence = "high"
	}

	writeJSON(w, http.StatusOK, suggestionResponse{
		Description:         req.Description,
		SuggestedCategory:   string(category),
		Confidence:          confidence,
		AvailableCategories: core.CategoryNames(),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID int64) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": core.CategoryNames(),
		"ai_enabled": s.suggester != nil && s.suggester.Enabled(),
	})
}
