package report

import "financeflow/internal/core"

// HealthScore is a coarse rating of income against expense.
type HealthScore struct {
	Score int
	Label string
}

const (
	healthySavings = 85
	breakEven      = 70
	overspending   = 45
	goodThreshold  = 70
)

// Health rates a summary. It is unavailable when there is neither income nor expense.
func Health(s core.Summary) (HealthScore, bool) {
	if s.TotalIncome.IsZero() && s.TotalExpense.IsZero() {
		return HealthScore{}, false
	}
	score := breakEven
	switch {
	case s.TotalIncome.Cents > s.TotalExpense.Cents:
		score = healthySavings
	case s.TotalIncome.Cents < s.TotalExpense.Cents:
		score = overspending
	}
	label := "Room for improvement."
	if score >= goodThreshold {
		label = "Good financial health!"
	}
	return HealthScore{Score: score, Label: label}, true
}
