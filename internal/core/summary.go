package core

import "math"

// Summary holds the aggregated totals for one month partition.
//
// Balance counts every expense; TotalUsed counts budget-linked expenses
// only. The split is deliberate: overall cash-flow health must reflect all
// spending, while budget health tracks only the spending that was
// explicitly categorized against a budget ceiling.
type Summary struct {
	TotalIncome      Money `json:"total_income"`
	TotalExpenses    Money `json:"total_expenses"`
	TotalInvestments Money `json:"total_investments"`
	Balance          Money `json:"balance"`
	TotalBudgeted    Money `json:"total_budgeted"`
	TotalUsed        Money `json:"total_used"`
	RemainingBudget  Money `json:"remaining_budget"`
	EstimatedBalance Money `json:"estimated_balance"`
}

// BudgetUsage is the derived state of a single budget.
type BudgetUsage struct {
	Used      Money `json:"used"`
	Remaining Money `json:"remaining"`
	// Percentage is round(used/limit*100), 0 when the limit is 0. It is
	// not clamped: values above 100 mean the budget is blown and callers
	// clamp for display only.
	Percentage int `json:"percentage"`
}

// Summarize computes the month totals in a fixed derivation order, each
// step depending only on the previous ones.
func Summarize(m MonthData) Summary {
	var s Summary
	for _, t := range m.Transactions {
		switch t.Kind {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
		case Expense:
			s.TotalExpenses.Cents += t.Amount.Cents
			if t.BudgetID != "" {
				s.TotalUsed.Cents += t.Amount.Cents
			}
		case Investment:
			s.TotalInvestments.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = m.InitialBalance.Cents + s.TotalIncome.Cents - s.TotalExpenses.Cents - s.TotalInvestments.Cents

	for _, b := range m.Budgets {
		s.TotalBudgeted.Cents += b.Limit.Cents
	}
	s.RemainingBudget.Cents = s.TotalBudgeted.Cents - s.TotalUsed.Cents

	// No budgets committed means no estimate: the projection only makes
	// sense against budget ceilings.
	if s.TotalBudgeted.Cents != 0 {
		s.EstimatedBalance.Cents = s.Balance.Cents - s.RemainingBudget.Cents
	}
	return s
}

// Usage computes the derived state of one budget from the partition's
// expense transactions. A budget that nothing references has zero usage.
func (m MonthData) Usage(budgetID string) BudgetUsage {
	var limit int64
	for _, b := range m.Budgets {
		if b.ID == budgetID {
			limit = b.Limit.Cents
			break
		}
	}
	var used int64
	for _, t := range m.Transactions {
		if t.Kind == Expense && t.BudgetID == budgetID && budgetID != "" {
			used += t.Amount.Cents
		}
	}
	u := BudgetUsage{
		Used:      Money{Cents: used},
		Remaining: Money{Cents: limit - used},
	}
	if limit != 0 {
		u.Percentage = int(math.Round(float64(used) / float64(limit) * 100))
	}
	return u
}
