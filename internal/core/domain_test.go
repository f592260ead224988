package core

import (
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.Year() != 2024 || d.Month() != 2 || d.Day() != 29 {
		t.Fatalf("unexpected date %v", d)
	}

	for _, bad := range []string{"", "2024-13-01", "2023-02-29", "01/02/2024"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -10}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Description: "groceries",
		Amount:      Money{Cents: 100},
		Kind:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Description: "a", Amount: Money{Cents: 1}, Kind: Expense}, // zero date
		{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, Kind: Expense},
		{Date: NewDate(2025, 1, 1), Description: "   ", Amount: Money{Cents: 1}, Kind: Expense},
		{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Kind: Expense},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 0}, Kind: Expense},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Kind: "transfer"},
		{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}, Kind: ""},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	income := Transaction{Kind: Income, BudgetID: "b1"}
	if got := income.Normalize(); got.BudgetID != "" {
		t.Fatalf("income should drop budget reference, got %q", got.BudgetID)
	}

	investment := Transaction{Kind: Investment, BudgetID: "b1"}
	if got := investment.Normalize(); got.BudgetID != "" {
		t.Fatalf("investment should drop budget reference, got %q", got.BudgetID)
	}

	expense := Transaction{Kind: Expense, BudgetID: "b1"}
	if got := expense.Normalize(); got.BudgetID != "b1" {
		t.Fatalf("expense should keep budget reference, got %q", got.BudgetID)
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Name: "Mercado", Limit: Money{Cents: 50000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Budget{
		{Name: "", Limit: Money{Cents: 100}},
		{Name: "  ", Limit: Money{Cents: 100}},
		{Name: strings.Repeat("x", 101), Limit: Money{Cents: 100}},
		{Name: "ok", Limit: Money{Cents: 0}},
		{Name: "ok", Limit: Money{Cents: -5}},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetName(t *testing.T) {
	m := MonthData{
		Budgets: []Budget{{ID: "b1", Name: "Mercado", Limit: Money{Cents: 100}}},
	}

	if got := m.BudgetName(""); got != "" {
		t.Fatalf("empty reference should resolve empty, got %q", got)
	}
	if got := m.BudgetName("b1"); got != "Mercado" {
		t.Fatalf("expected Mercado, got %q", got)
	}
	if got := m.BudgetName("gone"); got != BudgetNotFoundLabel {
		t.Fatalf("dangling reference should resolve to placeholder, got %q", got)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 3, 15)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-15"` {
		t.Fatalf("expected \"2024-03-15\", got %s", b)
	}

	var parsed Date
	if err := parsed.UnmarshalJSON(b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !parsed.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", parsed, d)
	}
}

func TestMonthDataClone(t *testing.T) {
	m := MonthData{
		InitialBalance: Money{Cents: 1000},
		Transactions:   []Transaction{{ID: "t1", Description: "a"}},
		Budgets:        []Budget{{ID: "b1", Name: "x"}},
	}

	clone := m.Clone()
	clone.Transactions[0].Description = "changed"
	clone.Budgets[0].Name = "changed"

	if m.Transactions[0].Description != "a" {
		t.Fatal("clone shares transaction backing array")
	}
	if m.Budgets[0].Name != "x" {
		t.Fatal("clone shares budget backing array")
	}
}
