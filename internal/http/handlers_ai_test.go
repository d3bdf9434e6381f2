package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/classifier"
	"fintrack/internal/core"
	"fintrack/internal/insights"
)

type stubSuggester struct {
	enabled  bool
	category core.Category
	origin   classifier.Origin

	lastDescription string
	lastAmount      decimal.Decimal
}

func (s *stubSuggester) Enabled() bool { return s.enabled }

func (s *stubSuggester) ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin) {
	s.lastDescription = description
	s.lastAmount = amount
	return s.category, s.origin
}

type stubInsights struct {
	report insights.Report
	err    error
	calls  int
	lastID int64
}

func (s *stubInsights) Generate(ctx context.Context, userID int64) (insights.Report, error) {
	s.calls++
	s.lastID = userID
	return s.report, s.err
}

func newAIServer(sug Suggester, ins Insights) *Server {
	return NewServer(":0", &stubLedger{}, &stubUsers{}, ins, sug, nil)
}

func TestSuggestCategoryHandler(t *testing.T) {
	sug := &stubSuggester{enabled: true, category: core.CategoryTransportation, origin: classifier.OriginModel}
	s := newAIServer(sug, nil)

	rec := do(t, s, http.MethodPost, "/api/ai/categorize",
		`{"description":"Shell Gas Station","amount":"-40.00"}`, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got suggestionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SuggestedCategory != "transportation" || got.Confidence != "high" {
		t.Errorf("suggestion = %+v", got)
	}
	if len(got.AvailableCategories) != len(core.Categories) {
		t.Errorf("available categories = %d, want %d", len(got.AvailableCategories), len(core.Categories))
	}
	if sug.lastDescription != "Shell Gas Station" || sug.lastAmount.StringFixed(2) != "-40.00" {
		t.Errorf("suggester got %q %s", sug.lastDescription, sug.lastAmount)
	}
}

func TestSuggestCategoryHandler_FallbackConfidence(t *testing.T) {
	sug := &stubSuggester{enabled: true, category: core.CategoryOther, origin: classifier.OriginFallback}
	s := newAIServer(sug, nil)

	rec := do(t, s, http.MethodPost, "/api/ai/categorize",
		`{"description":"Unknown Shop XYZ","amount":"-10.00"}`, "1")
	var got suggestionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Confidence != "medium" {
		t.Errorf("confidence = %q, want medium", got.Confidence)
	}
}

func TestSuggestCategoryHandler_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		suggester  Suggester
		body       string
		wantStatus int
	}{
		{
			name:       "model not configured",
			suggester:  &stubSuggester{enabled: false},
			body:       `{"description":"Coffee","amount":"-3.50"}`,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "no suggester wired",
			suggester:  nil,
			body:       `{"description":"Coffee","amount":"-3.50"}`,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing description",
			suggester:  &stubSuggester{enabled: true},
			body:       `{"amount":"-3.50"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad amount",
			suggester:  &stubSuggester{enabled: true},
			body:       `{"description":"Coffee","amount":"lots"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newAIServer(tt.suggester, nil)
			rec := do(t, s, http.MethodPost, "/api/ai/categorize", tt.body, "1")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestListCategoriesHandler(t *testing.T) {
	s := newAIServer(&stubSuggester{enabled: true}, nil)

	rec := do(t, s, http.MethodGet, "/api/ai/categories", "", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got struct {
		Categories []string `json:"categories"`
		AIEnabled  bool     `json:"ai_enabled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Categories) != len(core.Categories) || !got.AIEnabled {
		t.Errorf("response = %+v", got)
	}
}

func TestInsightsHandler(t *testing.T) {
	ins := &stubInsights{report: insights.Report{
		Summary: insights.Summary{
			TotalExpenses:    decimal.RequireFromString("240.00"),
			TotalIncome:      decimal.RequireFromString("3000.00"),
			TransactionCount: 4,
			AverageExpense:   decimal.RequireFromString("80.00"),
			DaysAnalyzed:     90,
		},
		Categories: map[string]decimal.Decimal{
			"groceries": decimal.RequireFromString("200.00"),
		},
		Recommendations: []string{"Keep it up."},
	}}
	s := newAIServer(nil, ins)

	rec := do(t, s, http.MethodGet, "/api/insights", "", "7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ins.lastID != 7 {
		t.Errorf("analyzer owner = %d, want 7", ins.lastID)
	}

	var got insightsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Summary.TotalExpenses != "240.00" || got.Summary.DaysAnalyzed != 90 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Categories["groceries"] != "200.00" {
		t.Errorf("categories = %v", got.Categories)
	}
	if len(got.Recommendations) != 1 {
		t.Errorf("recommendations = %v", got.Recommendations)
	}
}

func TestInsightsHandler_Unconfigured(t *testing.T) {
	s := newAIServer(nil, nil)
	rec := do(t, s, http.MethodGet, "/api/insights", "", "1")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
