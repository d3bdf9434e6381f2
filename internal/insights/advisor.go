package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// modelInsights asks the model for advice grounded in the report. Failures
// degrade to no advice; a non-JSON answer is passed through as one entry.
func (a *Analyzer) modelInsights(ctx context.Context, r Report) []string {
	if a.client == nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.client.GenerateInsights(cctx, buildInsightsPrompt(r))
	if err != nil {
		a.logger.ErrorContext(ctx, "Model insights failed", applog.FieldError, err.Error())
		return nil
	}

	raw = stripCodeFence(strings.TrimSpace(raw))
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return []string{raw}
	}
	return list
}

func buildInsightsPrompt(r Report) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Total spending: $%s over %d days",
		core.FormatAmount(r.Summary.TotalExpenses), r.Summary.DaysAnalyzed))
	lines = append(lines, fmt.Sprintf("Average transaction: $%s",
		core.FormatAmount(r.Summary.AverageExpense)))

	if top := topCategories(r.Categories, 3); len(top) > 0 {
		parts := make([]string, len(top))
		for i, c := range top {
			parts[i] = fmt.Sprintf("%s: $%s", c.name, core.FormatAmount(c.total))
		}
		lines = append(lines, "Top spending categories: "+strings.Join(parts, ", "))
	}
	if !r.Trends.Monthly.TrendPercent.IsZero() {
		lines = append(lines, fmt.Sprintf("Monthly trend: %s by %s%%",
			r.Trends.Monthly.Direction, r.Trends.Monthly.TrendPercent.Abs().String()))
	}
	if len(r.Anomalies) > 0 {
		lines = append(lines, fmt.Sprintf("Found %d unusual transactions", len(r.Anomalies)))
	}

	return fmt.Sprintf(`Analyze this user's spending data and provide 3-5 key insights:

%s

Generate insights that are:
1. Specific and actionable
2. Based on the data patterns
3. Helpful for financial improvement
4. Written in a friendly, conversational tone
5. Each insight should be 1-2 sentences

IMPORTANT: Return ONLY a valid JSON array of strings, nothing else. No explanations, no code blocks, no markdown formatting.

Example format:
["Your spending on restaurants increased by 30%% this month - consider meal prepping to save money.", "You've been consistent with your savings goals, keep it up!"]

JSON Response:`, strings.Join(lines, "\n"))
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type rankedCategory struct {
	name  string
	total decimal.Decimal
}

func topCategories(totals map[string]decimal.Decimal, n int) []rankedCategory {
	ranked := make([]rankedCategory, 0, len(totals))
	for name, total := range totals {
		ranked = append(ranked, rankedCategory{name: name, total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].total.Equal(ranked[j].total) {
			return ranked[i].total.GreaterThan(ranked[j].total)
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// recommendations derives rule-based advice that works without any model.
func recommendations(r Report) []string {
	var recs []string

	if top := topCategories(r.Categories, 1); len(top) > 0 &&
		top[0].total.GreaterThan(decimal.NewFromInt(500)) {
		recs = append(recs, fmt.Sprintf(
			"Consider setting a budget for %s, your highest spending category at $%s.",
			top[0].name, core.FormatAmount(top[0].total)))
	}

	trend := r.Trends.Monthly.TrendPercent
	if trend.GreaterThan(decimal.NewFromInt(20)) {
		recs = append(recs, "Your spending increased significantly this month. Review recent transactions to identify the cause.")
	} else if trend.LessThan(decimal.NewFromInt(-20)) {
		recs = append(recs, "Great job reducing your spending this month! Keep up the good work.")
	}

	weekly := r.Trends.Weekly
	if weekly.HighestDay != "" {
		if avg := weekly.DailyAverages[weekly.HighestDay]; avg.GreaterThan(decimal.NewFromInt(100)) {
			recs = append(recs, fmt.Sprintf(
				"You tend to spend more on %ss ($%s average). Plan ahead to keep those days in check.",
				weekly.HighestDay, core.FormatAmount(avg)))
		}
	}

	return recs
}
