// Package memory is the in-process ledger store, used for local runs and
// as the reference implementation of the store contract in tests.
package memory

import (
	"context"
	"sync"

	"gastos/internal/core"
)

type Store struct {
	mu       sync.Mutex
	expenses []core.Expense
	budgets  map[budgetKey]core.Money
	// maxID is the highest id ever assigned. It survives deletions so
	// ids are never reused.
	maxID int64
}

type budgetKey struct {
	owner string
	month int
	year  int
}

func New() *Store {
	return &Store{budgets: make(map[budgetKey]core.Money)}
}

// LoadExpenses implements store.ExpenseLoader.
func (s *Store) LoadExpenses(_ context.Context, owner string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0)
	for _, e := range s.expenses {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

// AppendExpenses implements store.ExpenseAppender. Ids continue from the
// highest id ever assigned across the whole store, so deleted ids are
// never reused. The whole batch is stored under one lock section.
func (s *Store) AppendExpenses(_ context.Context, records []core.Expense) ([]core.Expense, error) {
	for _, e := range records {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]core.Expense, len(records))
	for i, e := range records {
		s.maxID++
		e.ID = s.maxID
		stored[i] = e
	}
	s.expenses = append(s.expenses, stored...)
	return stored, nil
}

// DeleteExpense implements store.ExpenseDeleter. Missing or foreign ids
// are a no-op.
func (s *Store) DeleteExpense(_ context.Context, id int64, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && e.Owner == owner {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return nil
}

// LoadBudget implements store.BudgetReader.
func (s *Store) LoadBudget(_ context.Context, owner string, month, year int) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	planned, ok := s.budgets[budgetKey{owner, month, year}]
	if !ok {
		return core.Budget{}, false, nil
	}
	return core.Budget{Owner: owner, Month: month, Year: year, Planned: planned}, true, nil
}

// UpsertBudget implements store.BudgetUpserter.
func (s *Store) UpsertBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey{b.Owner, b.Month, b.Year}] = b.Planned
	return nil
}
