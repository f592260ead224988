package core

import "testing"

func expenseOn(budgetID string, cents int64) Transaction {
	return Transaction{
		Description: "expense",
		Amount:      Money{Cents: cents},
		Kind:        Expense,
		Date:        NewDate(2024, 5, 10),
		BudgetID:    budgetID,
	}
}

func TestSummarize(t *testing.T) {
	m := MonthData{
		InitialBalance: Money{Cents: 100000}, // 1000.00
		Transactions: []Transaction{
			{Description: "salary", Amount: Money{Cents: 50000}, Kind: Income, Date: NewDate(2024, 5, 1)},
			expenseOn("b1", 20000),
			expenseOn("", 5000), // unlinked expense counts in expenses, not in used
		},
		Budgets: []Budget{
			{ID: "b1", Name: "Mercado", Limit: Money{Cents: 30000}},
		},
	}

	s := Summarize(m)

	if s.TotalIncome.Cents != 50000 {
		t.Errorf("TotalIncome = %d, want 50000", s.TotalIncome.Cents)
	}
	if s.TotalExpenses.Cents != 25000 {
		t.Errorf("TotalExpenses = %d, want 25000", s.TotalExpenses.Cents)
	}
	if s.TotalUsed.Cents != 20000 {
		t.Errorf("TotalUsed = %d, want 20000", s.TotalUsed.Cents)
	}
	if s.Balance.Cents != 125000 {
		t.Errorf("Balance = %d, want 125000", s.Balance.Cents)
	}
	if s.TotalBudgeted.Cents != 30000 {
		t.Errorf("TotalBudgeted = %d, want 30000", s.TotalBudgeted.Cents)
	}
	if s.RemainingBudget.Cents != 10000 {
		t.Errorf("RemainingBudget = %d, want 10000", s.RemainingBudget.Cents)
	}
	if s.EstimatedBalance.Cents != 115000 {
		t.Errorf("EstimatedBalance = %d, want 115000", s.EstimatedBalance.Cents)
	}
}

func TestSummarizeEmptyMonth(t *testing.T) {
	s := Summarize(MonthData{})
	if s != (Summary{}) {
		t.Fatalf("empty month should produce zero summary, got %+v", s)
	}
}

func TestSummarizeInvestmentsReduceBalance(t *testing.T) {
	m := MonthData{
		Transactions: []Transaction{
			{Description: "salary", Amount: Money{Cents: 10000}, Kind: Income, Date: NewDate(2024, 5, 1)},
			{Description: "etf", Amount: Money{Cents: 3000}, Kind: Investment, Date: NewDate(2024, 5, 2)},
		},
	}

	s := Summarize(m)
	if s.TotalInvestments.Cents != 3000 {
		t.Errorf("TotalInvestments = %d, want 3000", s.TotalInvestments.Cents)
	}
	if s.Balance.Cents != 7000 {
		t.Errorf("Balance = %d, want 7000", s.Balance.Cents)
	}
	if s.TotalExpenses.Cents != 0 {
		t.Errorf("investments must not count as expenses, got %d", s.TotalExpenses.Cents)
	}
}

func TestSummarizeEstimatedBalanceZeroWithoutBudgets(t *testing.T) {
	m := MonthData{
		InitialBalance: Money{Cents: 100000},
		Transactions: []Transaction{
			{Description: "salary", Amount: Money{Cents: 50000}, Kind: Income, Date: NewDate(2024, 5, 1)},
		},
	}

	s := Summarize(m)
	if s.Balance.Cents != 150000 {
		t.Errorf("Balance = %d, want 150000", s.Balance.Cents)
	}
	// Positive balance, but without budgets the estimate stays zero.
	if s.EstimatedBalance.Cents != 0 {
		t.Errorf("EstimatedBalance = %d, want 0", s.EstimatedBalance.Cents)
	}
}

func TestSummarizeUsedNeverExceedsExpenses(t *testing.T) {
	m := MonthData{
		Transactions: []Transaction{
			expenseOn("b1", 100),
			expenseOn("b2", 200),
			expenseOn("", 300),
		},
		Budgets: []Budget{
			{ID: "b1", Name: "a", Limit: Money{Cents: 1000}},
			{ID: "b2", Name: "b", Limit: Money{Cents: 1000}},
		},
	}

	s := Summarize(m)
	if s.TotalUsed.Cents > s.TotalExpenses.Cents {
		t.Fatalf("TotalUsed %d exceeds TotalExpenses %d", s.TotalUsed.Cents, s.TotalExpenses.Cents)
	}
	if s.TotalUsed.Cents != 300 || s.TotalExpenses.Cents != 600 {
		t.Fatalf("got used=%d expenses=%d, want 300/600", s.TotalUsed.Cents, s.TotalExpenses.Cents)
	}
}

func TestSummarizeDanglingReferenceStillCountsAsUsed(t *testing.T) {
	// Deleting a budget leaves its expenses linked; they stay in TotalUsed.
	m := MonthData{
		Transactions: []Transaction{expenseOn("gone", 500)},
	}

	s := Summarize(m)
	if s.TotalUsed.Cents != 500 {
		t.Errorf("TotalUsed = %d, want 500", s.TotalUsed.Cents)
	}
	if s.TotalBudgeted.Cents != 0 {
		t.Errorf("TotalBudgeted = %d, want 0", s.TotalBudgeted.Cents)
	}
}

func TestUsage(t *testing.T) {
	m := MonthData{
		Transactions: []Transaction{
			expenseOn("b1", 7500),
			expenseOn("b1", 2500),
			expenseOn("b2", 100),
			{Description: "salary", Amount: Money{Cents: 9999}, Kind: Income, Date: NewDate(2024, 5, 1), BudgetID: "b1"},
		},
		Budgets: []Budget{
			{ID: "b1", Name: "Mercado", Limit: Money{Cents: 20000}},
		},
	}

	u := m.Usage("b1")
	if u.Used.Cents != 10000 {
		t.Errorf("Used = %d, want 10000", u.Used.Cents)
	}
	if u.Remaining.Cents != 10000 {
		t.Errorf("Remaining = %d, want 10000", u.Remaining.Cents)
	}
	if u.Percentage != 50 {
		t.Errorf("Percentage = %d, want 50", u.Percentage)
	}
}

func TestUsageOverspentIsNotClamped(t *testing.T) {
	m := MonthData{
		Transactions: []Transaction{expenseOn("b1", 15000)},
		Budgets:      []Budget{{ID: "b1", Name: "x", Limit: Money{Cents: 10000}}},
	}

	u := m.Usage("b1")
	if u.Percentage != 150 {
		t.Errorf("Percentage = %d, want 150", u.Percentage)
	}
	if u.Remaining.Cents != -5000 {
		t.Errorf("Remaining = %d, want -5000", u.Remaining.Cents)
	}
}

func TestUsageUnknownBudget(t *testing.T) {
	m := MonthData{
		Transactions: []Transaction{expenseOn("gone", 500)},
	}

	u := m.Usage("gone")
	if u.Used.Cents != 500 {
		t.Errorf("Used = %d, want 500", u.Used.Cents)
	}
	// Zero limit means no percentage, not a division by zero.
	if u.Percentage != 0 {
		t.Errorf("Percentage = %d, want 0", u.Percentage)
	}
}
