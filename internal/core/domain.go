package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income     Kind = "income"
	Expense    Kind = "expense"
	Investment Kind = "investment"
)

type (
	// Kind classifies a transaction as income, expense or investment.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64 `json:"cents"`
	}

	// Transaction is a single financial record. BudgetID is set only on
	// expenses; it may reference a budget that no longer exists (the
	// reference is left dangling, lookups degrade to a placeholder).
	Transaction struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"kind"`
		Date        Date   `json:"date"`
		BudgetID    string `json:"budget_id,omitempty"`
	}

	// Budget is a monthly spending ceiling. Usage is always derived from
	// the expense transactions that reference it, never stored.
	Budget struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Limit Money  `json:"limit"`
	}

	// MonthData is one month partition: the complete financial data scoped
	// to a single calendar month. Partitions are independent, budgets and
	// transactions do not carry over between months.
	MonthData struct {
		InitialBalance Money         `json:"initial_balance"`
		Transactions   []Transaction `json:"transactions"`
		Budgets        []Budget      `json:"budgets"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty budget name")
	ErrInvalidLimit     = errors.New("invalid budget limit")
	ErrNotFound         = errors.New("record not found")
)

// BudgetNotFoundLabel is the fixed placeholder returned when a transaction
// references a budget that no longer exists in its month partition.
const BudgetNotFoundLabel = "Orçamento não encontrado"

const isoDate = "2006-01-02"

// NewDate creates a Date from year, month, day (UTC, midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(isoDate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date in YYYY-MM-DD form.
func (d Date) ISO() string {
	return d.Format(isoDate)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the 1-indexed month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense, Investment:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	return nil
}

// Normalize clears the budget reference on non-expense transactions:
// only expenses count toward budget usage.
func (t Transaction) Normalize() Transaction {
	if t.Kind != Expense {
		t.BudgetID = ""
	}
	return t
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return errors.New("budget name too long (max 100 characters)")
	}
	if b.Limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the partition's backing slices.
func (m MonthData) Clone() MonthData {
	out := MonthData{InitialBalance: m.InitialBalance}
	if len(m.Transactions) > 0 {
		out.Transactions = append([]Transaction(nil), m.Transactions...)
	}
	if len(m.Budgets) > 0 {
		out.Budgets = append([]Budget(nil), m.Budgets...)
	}
	return out
}

// BudgetName resolves a budget reference inside the partition. Empty
// references resolve to an empty string; dangling references resolve to
// BudgetNotFoundLabel rather than failing.
func (m MonthData) BudgetName(budgetID string) string {
	if budgetID == "" {
		return ""
	}
	for _, b := range m.Budgets {
		if b.ID == budgetID {
			return b.Name
		}
	}
	return BudgetNotFoundLabel
}
