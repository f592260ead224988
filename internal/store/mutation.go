package store

import "financas/internal/core"

// Op identifies a mutation kind for remote replay.
type Op string

const (
	OpSetInitialBalance Op = "set_initial_balance"
	OpCreateTransaction Op = "create_transaction"
	OpUpdateTransaction Op = "update_transaction"
	OpDeleteTransaction Op = "delete_transaction"
	OpCreateBudget      Op = "create_budget"
	OpUpdateBudget      Op = "update_budget"
	OpDeleteBudget      Op = "delete_budget"
)

// Mutation is a self-contained description of one local write, carrying
// everything a remote backend needs to replay it. Exactly one of the
// payload pointers is set for create/update ops; delete ops carry only
// the entity identifier.
type Mutation struct {
	Op          Op                `json:"op"`
	MonthKey    string            `json:"month_key"`
	EntityID    string            `json:"entity_id,omitempty"`
	Balance     *core.Money       `json:"balance,omitempty"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	Budget      *core.Budget      `json:"budget,omitempty"`
}
