package core

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string
	Amount   Money
	Count    int
}

// Summary is the headline aggregate over a set of transactions.
type Summary struct {
	Count        int
	TotalIncome  Money
	TotalExpense Money
	Net          Money // TotalIncome - TotalExpense
}
