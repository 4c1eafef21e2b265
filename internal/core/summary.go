package core

// CategoryBreakdown holds the income and expense subtotals of one category.
type CategoryBreakdown struct {
	Category        Category `json:"category"`
	IncomeSubtotal  Money    `json:"incomeSubtotal"`
	ExpenseSubtotal Money    `json:"expenseSubtotal"`
}

// PeriodSummary is derived on demand from a transaction set and never stored.
type PeriodSummary struct {
	TotalIncome      Money               `json:"totalIncome"`
	TotalExpense     Money               `json:"totalExpense"`
	Balance          Money               `json:"balance"`
	ByCategory       []CategoryBreakdown `json:"byCategory"`
	TransactionCount int                 `json:"transactionCount"`
}

// Summarize aggregates txs. It performs no I/O and does not modify its input.
// Categories appear in ByCategory in order of first appearance.
func Summarize(txs []Transaction) PeriodSummary {
	s := PeriodSummary{ByCategory: []CategoryBreakdown{}}
	index := make(map[Category]int)

	for _, tx := range txs {
		i, ok := index[tx.Category]
		if !ok {
			i = len(s.ByCategory)
			index[tx.Category] = i
			s.ByCategory = append(s.ByCategory, CategoryBreakdown{Category: tx.Category})
		}
		row := &s.ByCategory[i]
		switch tx.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
			row.IncomeSubtotal = row.IncomeSubtotal.Add(tx.Amount)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
			row.ExpenseSubtotal = row.ExpenseSubtotal.Add(tx.Amount)
		}
		s.TransactionCount++
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}

// Category returns the breakdown row for c, if present.
func (s PeriodSummary) Category(c Category) (CategoryBreakdown, bool) {
	for _, row := range s.ByCategory {
		if row.Category == c {
			return row, true
		}
	}
	return CategoryBreakdown{}, false
}
