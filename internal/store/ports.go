// Package store defines the narrow persistence contract the ledger core
// depends on. Backends (spreadsheet, relational, embedded, in-memory) are
// interchangeable implementations of these ports.
package store

import (
	"context"

	"gastos/internal/core"
)

type (
	// ExpenseLoader returns every record belonging to one owner. A ledger
	// that has never been written to yields an empty slice, not an error.
	ExpenseLoader interface {
		LoadExpenses(ctx context.Context, owner string) ([]core.Expense, error)
	}

	// ExpenseAppender durably adds a batch of records, all or none. The
	// store assigns ids (max existing id + 1, or a database serial; never
	// reused after deletion) and returns the stored records with ids set.
	ExpenseAppender interface {
		AppendExpenses(ctx context.Context, records []core.Expense) ([]core.Expense, error)
	}

	// ExpenseDeleter removes one record if it belongs to owner. Deleting a
	// missing or foreign id is a no-op: existence of other owners' records
	// must not leak through the error path.
	ExpenseDeleter interface {
		DeleteExpense(ctx context.Context, id int64, owner string) error
	}

	// BudgetReader resolves the unique budget for (owner, month, year).
	// The second return is false when no budget has been set yet.
	BudgetReader interface {
		LoadBudget(ctx context.Context, owner string, month, year int) (core.Budget, bool, error)
	}

	// BudgetUpserter creates or replaces the unique budget record for its
	// (owner, month, year) key. Never produces duplicates.
	BudgetUpserter interface {
		UpsertBudget(ctx context.Context, b core.Budget) error
	}
)
