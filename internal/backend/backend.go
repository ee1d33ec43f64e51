// Package backend selects and constructs the ledger store implementation
// the process runs against. The dashboard logic is identical over all of
// them; only durability characteristics differ.
package backend

import (
	"gastos/internal/store"
)

// Backend is the full store contract, one implementation per backend type.
type Backend interface {
	store.ExpenseLoader
	store.ExpenseAppender
	store.ExpenseDeleter
	store.BudgetReader
	store.BudgetUpserter
}

// Type names a storage backend.
type Type string

const (
	Memory   Type = "memory"
	Sheets   Type = "sheets"
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case Memory, Sheets, SQLite, Postgres:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{Memory, Sheets, SQLite, Postgres}
}
