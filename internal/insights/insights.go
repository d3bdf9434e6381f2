// Package insights analyzes a user's recent transactions into spending
// trends, anomalies and rule-based recommendations, optionally enriched
// with advice from an external model. Transfers move money between the
// user's own accounts and are excluded from the analysis.
package insights

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

const (
	// analysisWindowDays bounds how far back the analysis looks.
	analysisWindowDays = 90

	// anomalyMinExpenses is the smallest sample anomaly detection runs on.
	anomalyMinExpenses = 10

	// anomalyLimit caps how many anomalies a report carries.
	anomalyLimit = 5
)

// Store is the read surface the analyzer needs.
type Store interface {
	Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
}

// ModelClient generates free-text financial advice from a prompt.
// Implementations should answer with a JSON array of strings.
type ModelClient interface {
	GenerateInsights(ctx context.Context, prompt string) (string, error)
}

// Report is the full spending analysis for one user.
type Report struct {
	Summary         Summary
	Categories      map[string]decimal.Decimal
	Trends          Trends
	Anomalies       []Anomaly
	AIInsights      []string
	Recommendations []string
}

// Summary aggregates the analyzed window.
type Summary struct {
	TotalExpenses    decimal.Decimal
	TotalIncome      decimal.Decimal
	TransactionCount int
	AverageExpense   decimal.Decimal
	DaysAnalyzed     int
}

type Trends struct {
	Monthly MonthlyTrend
	Weekly  WeeklyPattern
}

// MonthlyTrend compares the latest month against the one before it.
// Direction is "up" or "down" past a five percent move, "stable" inside it.
type MonthlyTrend struct {
	Totals       map[string]decimal.Decimal
	TrendPercent decimal.Decimal
	Direction    string
}

// WeeklyPattern averages expenses per weekday.
type WeeklyPattern struct {
	DailyAverages map[string]decimal.Decimal
	HighestDay    string
	LowestDay     string
}

// Anomaly is an expense sitting more than two standard deviations above the
// user's mean expense.
type Anomaly struct {
	TransactionID   int64
	Description     string
	Amount          decimal.Decimal
	Date            string
	Category        core.Category
	DeviationFactor decimal.Decimal
}

// Analyzer builds spending reports. client may be nil, in which case reports
// carry no model advice.
type Analyzer struct {
	store   Store
	client  ModelClient
	timeout time.Duration
	logger  *applog.Logger
	now     func() time.Time
}

func New(store Store, client ModelClient, timeout time.Duration, logger *applog.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentInsights)
	}
	return &Analyzer{
		store:   store,
		client:  client,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Generate analyzes the user's last 90 days of activity.
func (a *Analyzer) Generate(ctx context.Context, userID int64) (Report, error) {
	const op = "insights.generate"

	to := a.now()
	from := to.AddDate(0, 0, -analysisWindowDays)
	txns, err := a.store.Transactions(ctx, core.TransactionFilter{UserID: userID, From: from, To: to})
	if err != nil {
		return Report{}, core.Internal(op, err)
	}

	var expenses, income []core.Transaction
	for _, t := range txns {
		if t.Type == core.Transfer {
			continue
		}
		if t.Amount.IsNegative() {
			expenses = append(expenses, t)
		} else if t.Amount.IsPositive() {
			income = append(income, t)
		}
	}

	report := Report{
		Summary:    summarize(expenses, income),
		Categories: categoryTotals(expenses),
		Trends: Trends{
			Monthly: monthlyTrend(expenses),
			Weekly:  weeklyPattern(expenses),
		},
		Anomalies: detectAnomalies(expenses),
	}
	report.AIInsights = a.modelInsights(ctx, report)
	report.Recommendations = recommendations(report)

	a.logger.InfoContext(ctx, "Spending report generated",
		applog.FieldUserID, userID,
		"expense_count", len(expenses),
		"anomaly_count", len(report.Anomalies))
	return report, nil
}

func summarize(expenses, income []core.Transaction) Summary {
	s := Summary{
		TransactionCount: len(expenses) + len(income),
		DaysAnalyzed:     analysisWindowDays,
	}
	for _, t := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(t.Amount.Abs())
	}
	for _, t := range income {
		s.TotalIncome = s.TotalIncome.Add(t.Amount)
	}
	if len(expenses) > 0 {
		s.AverageExpense = s.TotalExpenses.Div(decimal.NewFromInt(int64(len(expenses)))).Round(2)
	}
	return s
}

func categoryTotals(expenses []core.Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range expenses {
		key := string(t.Category)
		if key == "" {
			key = "uncategorized"
		}
		totals[key] = totals[key].Add(t.Amount.Abs())
	}
	return totals
}

func monthlyTrend(expenses []core.Transaction) MonthlyTrend {
	totals := make(map[string]decimal.Decimal)
	for _, t := range expenses {
		key := t.Date.Format("2006-01")
		totals[key] = totals[key].Add(t.Amount.Abs())
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	trend := decimal.Zero
	if len(months) >= 2 {
		current := totals[months[len(months)-1]]
		previous := totals[months[len(months)-2]]
		if previous.IsPositive() {
			trend = current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1)
		}
	}

	direction := "stable"
	band := decimal.NewFromInt(5)
	switch {
	case trend.GreaterThan(band):
		direction = "up"
	case trend.LessThan(band.Neg()):
		direction = "down"
	}

	return MonthlyTrend{Totals: totals, TrendPercent: trend, Direction: direction}
}

func weeklyPattern(expenses []core.Transaction) WeeklyPattern {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, t := range expenses {
		day := t.Date.Weekday().String()
		sums[day] = sums[day].Add(t.Amount.Abs())
		counts[day]++
	}

	averages := make(map[string]decimal.Decimal, len(sums))
	for day, sum := range sums {
		averages[day] = sum.Div(decimal.NewFromInt(int64(counts[day]))).Round(2)
	}

	// Deterministic selection: amount first, day name breaks ties.
	days := make([]string, 0, len(averages))
	for day := range averages {
		days = append(days, day)
	}
	sort.Strings(days)

	var highest, lowest string
	for _, day := range days {
		if highest == "" || averages[day].GreaterThan(averages[highest]) {
			highest = day
		}
		if lowest == "" || averages[day].LessThan(averages[lowest]) {
			lowest = day
		}
	}

	return WeeklyPattern{DailyAverages: averages, HighestDay: highest, LowestDay: lowest}
}

// detectAnomalies flags expenses above mean + 2 standard deviations. Small
// samples produce nothing, and amounts under 100 are never flagged.
func detectAnomalies(expenses []core.Transaction) []Anomaly {
	if len(expenses) < anomalyMinExpenses {
		return nil
	}

	amounts := make([]float64, len(expenses))
	var sum float64
	for i, t := range expenses {
		amounts[i] = t.Amount.Abs().InexactFloat64()
		sum += amounts[i]
	}
	mean := sum / float64(len(amounts))

	var variance float64
	for _, v := range amounts {
		variance += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(variance / float64(len(amounts)-1))
	threshold := mean + 2*stddev

	var anomalies []Anomaly
	for i, t := range expenses {
		if amounts[i] <= threshold || amounts[i] <= 100 {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			TransactionID:   t.ID,
			Description:     t.Description,
			Amount:          t.Amount.Abs(),
			Date:            t.Date.Format("2006-01-02"),
			Category:        t.Category,
			DeviationFactor: decimal.NewFromFloat(amounts[i] / mean).Round(1),
		})
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if !anomalies[i].DeviationFactor.Equal(anomalies[j].DeviationFactor) {
			return anomalies[i].DeviationFactor.GreaterThan(anomalies[j].DeviationFactor)
		}
		return anomalies[i].TransactionID < anomalies[j].TransactionID
	})
	if len(anomalies) > anomalyLimit {
		anomalies = anomalies[:anomalyLimit]
	}
	return anomalies
}
