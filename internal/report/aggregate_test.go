package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financeflow/internal/apperrors"
	"financeflow/internal/core"
)

var today = core.NewDate(2025, 6, 15)

func tx(id string, kind core.Kind, cents int64, category string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        kind,
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Description: "desc " + id,
		Date:        date,
		CreatedAt:   date.Time.Add(time.Hour),
	}
}

func TestSummarize(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Income, 100, "Salary", today),
		tx("2", core.Expense, 40, "Food", today),
		tx("3", core.Expense, 10, "Food", today),
	}
	s := Summarize(records)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, int64(100), s.TotalIncome.Cents)
	assert.Equal(t, int64(50), s.TotalExpense.Cents)
	assert.Equal(t, int64(50), s.Net.Cents)

	assert.Equal(t, core.Summary{}, Summarize(nil))
}

func TestTopCategoriesStableTieBreak(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Expense, 20, "A", today),
		tx("2", core.Expense, 20, "B", today),
		tx("3", core.Expense, 5, "C", today),
		tx("4", core.Income, 1000, "Salary", today),
	}
	top, err := TopCategories(records, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].Category)
	assert.Equal(t, "B", top[1].Category)
	assert.Equal(t, 1, top[0].Count)
}

func TestTopCategoriesSumsAndNeverPads(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Expense, 5, "C", today),
		tx("2", core.Expense, 10, "A", today),
		tx("3", core.Expense, 10, "C", today),
	}
	top, err := TopCategories(records, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, core.CategoryTotal{Category: "C", Amount: core.Money{Cents: 15}, Count: 2}, top[0])
	assert.Equal(t, "A", top[1].Category)

	top, err = TopCategories(records, 0)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = TopCategories(records, -1)
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestGroupByCategoryKeepsOrder(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Expense, 1, "Food", today),
		tx("2", core.Income, 1, "Salary", today),
		tx("3", core.Expense, 1, "Food", today),
	}
	groups := GroupByCategory(records)
	require.Len(t, groups, 2)
	assert.Equal(t, "Food", groups[0].Category)
	assert.Equal(t, []string{"1", "3"}, ids(groups[0].Records))
	assert.Equal(t, "Salary", groups[1].Category)
	assert.Empty(t, GroupByCategory(nil))
}

func TestFilterBy(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Expense, 1, "Food", today),
		tx("2", core.Income, 1, "Salary", today),
		tx("3", core.Expense, 1, "Travel", today),
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(FilterBy(records, Filter{Kind: "all", Category: "all"})))
	assert.Equal(t, []string{"1", "3"}, ids(FilterBy(records, Filter{Kind: "expense"})))
	assert.Equal(t, []string{"3"}, ids(FilterBy(records, Filter{Kind: "Expense", Category: "Travel"})))
	assert.Empty(t, FilterBy(records, Filter{Kind: "income", Category: "Travel"}))
	assert.Equal(t, []string{"1"}, ids(FilterBy(records, Filter{Category: "FOOD"})))
}

func TestAverageExpense(t *testing.T) {
	records := []core.Transaction{
		tx("1", core.Expense, 100, "A", today),
		tx("2", core.Expense, 101, "A", today),
		tx("3", core.Income, 9999, "S", today),
	}
	assert.Equal(t, int64(101), AverageExpense(records).Cents, "100.5 rounds half-up")
	assert.True(t, AverageExpense(records[2:]).IsZero())
}

func TestHealth(t *testing.T) {
	cases := []struct {
		name    string
		income  int64
		expense int64
		score   int
		label   string
		ok      bool
	}{
		{"saving", 100, 50, 85, "Good financial health!", true},
		{"break even", 100, 100, 70, "Good financial health!", true},
		{"overspending", 50, 100, 45, "Room for improvement.", true},
		{"no activity", 0, 0, 0, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, ok := Health(core.Summary{TotalIncome: core.Money{Cents: tc.income}, TotalExpense: core.Money{Cents: tc.expense}})
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.score, h.Score)
			assert.Equal(t, tc.label, h.Label)
		})
	}
}

func TestPaginate(t *testing.T) {
	var records []core.Transaction
	for i := 0; i < 25; i++ {
		records = append(records, tx(string(rune('a'+i)), core.Expense, 1, "A", today))
	}
	p := Paginate(records, 0, 10)
	assert.Len(t, p.Items, 10)
	assert.Equal(t, 15, p.Remaining)

	p = Paginate(records, 20, 10)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, 0, p.Remaining)

	p = Paginate(records, 40, 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 25, p.Offset)

	p = Paginate(records, -3, 0)
	assert.Len(t, p.Items, 25)
}

func ids(records []core.Transaction) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
