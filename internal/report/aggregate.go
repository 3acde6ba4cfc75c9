// Package report derives summaries, groupings and orderings from a set of transactions.
// Every function here is pure: inputs are never modified.
package report

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
)

// CategoryGroup is the records sharing a category, in their original relative order.
type CategoryGroup struct {
	Category string
	Records  []core.Transaction
}

// Filter narrows records by kind and category. Empty or "all" means no constraint.
// Category matching ignores case.
type Filter struct {
	Kind     string
	Category string
}

// Page is one slice of a paginated list.
type Page struct {
	Items     []core.Transaction
	Offset    int
	Total     int
	Remaining int
}

// Summarize totals income and expense over records.
func Summarize(records []core.Transaction) core.Summary {
	var s core.Summary
	for _, r := range records {
		s.Count++
		switch r.Kind {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(r.Amount)
		case core.Expense:
			s.TotalExpense = s.TotalExpense.Add(r.Amount)
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// GroupByCategory groups records by category. Groups appear in first-appearance order.
func GroupByCategory(records []core.Transaction) []CategoryGroup {
	index := make(map[string]int)
	var groups []CategoryGroup
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(groups)
			index[r.Category] = i
			groups = append(groups, CategoryGroup{Category: r.Category})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// TopCategories sums expense amounts per category and returns at most n categories by descending sum.
// Equal sums keep the order in which the categories first appear in records.
func TopCategories(records []core.Transaction, n int) ([]core.CategoryTotal, error) {
	if n < 0 {
		return nil, apperrors.InvalidArgument("top-N must be non-negative, got %d", n)
	}
	index := make(map[string]int)
	var totals []core.CategoryTotal
	for _, r := range records {
		if r.Kind != core.Expense {
			continue
		}
		i, ok := index[r.Category]
		if !ok {
			i = len(totals)
			index[r.Category] = i
			totals = append(totals, core.CategoryTotal{Category: r.Category})
		}
		totals[i].Amount = totals[i].Amount.Add(r.Amount)
		totals[i].Count++
	}
	slices.SortStableFunc(totals, func(a, b core.CategoryTotal) int {
		return cmp.Compare(b.Amount.Cents, a.Amount.Cents)
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals, nil
}

// FilterBy keeps records matching f.
func FilterBy(records []core.Transaction, f Filter) []core.Transaction {
	kind := strings.ToLower(strings.TrimSpace(f.Kind))
	category := strings.TrimSpace(f.Category)
	out := make([]core.Transaction, 0, len(records))
	for _, r := range records {
		if kind != "" && kind != "all" && string(r.Kind) != kind {
			continue
		}
		if category != "" && !strings.EqualFold(category, "all") && !strings.EqualFold(r.Category, category) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// AverageExpense is the mean expense amount rounded half-up to the cent, zero with no expenses.
func AverageExpense(records []core.Transaction) core.Money {
	var sum core.Money
	count := 0
	for _, r := range records {
		if r.Kind == core.Expense {
			sum = sum.Add(r.Amount)
			count++
		}
	}
	if count == 0 {
		return core.Money{}
	}
	avg := decimal.NewFromInt(sum.Cents).Div(decimal.NewFromInt(int64(count))).Round(0)
	return core.Money{Cents: avg.IntPart()}
}

// Paginate returns up to limit records starting at offset.
func Paginate(records []core.Transaction, offset, limit int) Page {
	total := len(records)
	offset = max(0, min(offset, total))
	end := total
	if limit > 0 {
		end = min(offset+limit, total)
	}
	return Page{
		Items:     append([]core.Transaction{}, records[offset:end]...),
		Offset:    offset,
		Total:     total,
		Remaining: total - end,
	}
}
