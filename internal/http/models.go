package http

import (
	"time"

	"fintrack/internal/core"
	"fintrack/internal/insights"
)

// Wire representations. Monetary fields travel as fixed two-decimal
// strings, never as JSON numbers.
type (
	accountResponse struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Type      string    `json:"type"`
		Balance   string    `json:"balance"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	transactionResponse struct {
		ID                int64     `json:"id"`
		AccountID         int64     `json:"account_id"`
		Amount            string    `json:"amount"`
		Description       string    `json:"description"`
		Category          string    `json:"category"`
		Type              string    `json:"type"`
		Notes             string    `json:"notes,omitempty"`
		Reference         string    `json:"reference,omitempty"`
		TransferAccountID int64     `json:"transfer_account_id,omitempty"`
		TransferGroupID   string    `json:"transfer_group_id,omitempty"`
		Date              time.Time `json:"date"`
		CreatedAt         time.Time `json:"created_at"`
		UpdatedAt         time.Time `json:"updated_at"`
	}

	summaryResponse struct {
		TotalIncome      string `json:"total_income"`
		TotalExpenses    string `json:"total_expenses"`
		NetAmount        string `json:"net_amount"`
		TransactionCount int    `json:"transaction_count"`
	}

	userResponse struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}

	suggestionResponse struct {
		Description         string   `json:"description"`
		SuggestedCategory   string   `json:"suggested_category"`
		Confidence          string   `json:"confidence"`
		AvailableCategories []string `json:"available_categories"`
	}

	insightsResponse struct {
		Summary         insightsSummary   `json:"summary"`
		Categories      map[string]string `json:"categories"`
		Trends          insightsTrends    `json:"trends"`
		Anomalies       []insightsAnomaly `json:"anomalies"`
		AIInsights      []string          `json:"ai_insights"`
		Recommendations []string          `json:"recommendations"`
	}

	insightsSummary struct {
		TotalExpenses    string `json:"total_expenses"`
		TotalIncome      string `json:"total_income"`
		TransactionCount int    `json:"transaction_count"`
		AverageExpense   string `json:"average_expense"`
		DaysAnalyzed     int    `json:"days_analyzed"`
	}

	insightsTrends struct {
		Monthly insightsMonthly `json:"monthly"`
		Weekly  insightsWeekly  `json:"weekly"`
	}

	insightsMonthly struct {
		Totals       map[string]string `json:"monthly_totals"`
		TrendPercent string            `json:"trend_percentage"`
		Direction    string            `json:"trend_direction"`
	}

	insightsWeekly struct {
		DailyAverages map[string]string `json:"daily_averages"`
		HighestDay    string            `json:"highest_spending_day,omitempty"`
		LowestDay     string            `json:"lowest_spending_day,omitempty"`
	}

	insightsAnomaly struct {
		TransactionID   int64  `json:"transaction_id"`
		Description     string `json:"description"`
		Amount          string `json:"amount"`
		Date            string `json:"date"`
		Category        string `json:"category"`
		DeviationFactor string `json:"deviation_factor"`
	}
)

func toAccountResponse(a *core.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Balance:   core.FormatAmount(a.Balance),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toTransactionResponse(t *core.Transaction) transactionResponse {
	return transactionResponse{
		ID:                t.ID,
		AccountID:         t.AccountID,
		Amount:            core.FormatAmount(t.Amount),
		Description:       t.Description,
		Category:          string(t.Category),
		Type:              string(t.Type),
		Notes:             t.Notes,
		Reference:         t.Reference,
		TransferAccountID: t.TransferAccountID,
		TransferGroupID:   t.TransferGroupID,
		Date:              t.Date,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func toSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		TotalIncome:      core.FormatAmount(s.TotalIncome),
		TotalExpenses:    core.FormatAmount(s.TotalExpenses),
		NetAmount:        core.FormatAmount(s.NetAmount),
		TransactionCount: s.TransactionCount,
	}
}

func toInsightsResponse(r insights.Report) insightsResponse {
	resp := insightsResponse{
		Summary: insightsSummary{
			TotalExpenses:    core.FormatAmount(r.Summary.TotalExpenses),
			TotalIncome:      core.FormatAmount(r.Summary.TotalIncome),
			TransactionCount: r.Summary.TransactionCount,
			AverageExpense:   core.FormatAmount(r.Summary.AverageExpense),
			DaysAnalyzed:     r.Summary.DaysAnalyzed,
		},
		Categories: make(map[string]string, len(r.Categories)),
		Trends: insightsTrends{
			Monthly: insightsMonthly{
				Totals:       make(map[string]string, len(r.Trends.Monthly.Totals)),
				TrendPercent: r.Trends.Monthly.TrendPercent.String(),
				Direction:    r.Trends.Monthly.Direction,
			},
			Weekly: insightsWeekly{
				DailyAverages: make(map[string]string, len(r.Trends.Weekly.DailyAverages)),
				HighestDay:    r.Trends.Weekly.HighestDay,
				LowestDay:     r.Trends.Weekly.LowestDay,
			},
		},
		AIInsights:      r.AIInsights,
		Recommendations: r.Recommendations,
	}
	for name, total := range r.Categories {
		resp.Categories[name] = core.FormatAmount(total)
	}
	for month, total := range r.Trends.Monthly.Totals {
		resp.Trends.Monthly.Totals[month] = core.FormatAmount(total)
	}
	for day, avg := range r.Trends.Weekly.DailyAverages {
		resp.Trends.Weekly.DailyAverages[day] = core.FormatAmount(avg)
	}
	for _, a := range r.Anomalies {
		resp.Anomalies = append(resp.Anomalies, insightsAnomaly{
			TransactionID:   a.TransactionID,
			Description:     a.Description,
			Amount:          core.FormatAmount(a.Amount),
			Date:            a.Date,
			Category:        string(a.Category),
			DeviationFactor: a.DeviationFactor.String(),
		})
	}
	return resp
}
