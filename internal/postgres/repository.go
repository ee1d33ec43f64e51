// Package postgres is the managed-relational ledger store. The schema is
// applied idempotently on startup; ids come from a BIGSERIAL sequence.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"gastos/internal/core"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS expenses (
  id BIGSERIAL PRIMARY KEY,
  owner TEXT NOT NULL,
  occurred_on DATE NOT NULL,
  amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
  description TEXT NOT NULL,
  category TEXT NOT NULL,
  source TEXT NOT NULL,
  synced_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(owner);

CREATE TABLE IF NOT EXISTS budgets (
  owner TEXT NOT NULL,
  month INT NOT NULL CHECK (month BETWEEN 1 AND 12),
  year INT NOT NULL,
  planned_cents BIGINT NOT NULL CHECK (planned_cents >= 0),
  PRIMARY KEY (owner, month, year)
);
`

type Repository struct {
	db *sql.DB
}

func NewRepository(dsn string) (*Repository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadExpenses implements store.ExpenseLoader.
func (r *Repository) LoadExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, to_char(occurred_on, 'YYYY-MM-DD'), amount_cents, description, category, source
		   FROM expenses WHERE owner = $1 ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// AppendExpenses implements store.ExpenseAppender: one transaction per
// batch, ids from the sequence via RETURNING.
func (r *Repository) AppendExpenses(ctx context.Context, records []core.Expense) ([]core.Expense, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for _, e := range records {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append tx: %w", err)
	}
	defer tx.Rollback()

	stored := make([]core.Expense, len(records))
	for i, e := range records {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO expenses (owner, occurred_on, amount_cents, description, category, source)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			e.Owner, e.Date.String(), e.Amount.Cents, e.Description, string(e.Category), string(e.Source)).
			Scan(&e.ID)
		if err != nil {
			return nil, fmt.Errorf("insert expense: %w", err)
		}
		stored[i] = e
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}

	slog.InfoContext(ctx, "expenses saved to postgres",
		"owner", records[0].Owner, "count", len(stored))
	return stored, nil
}

// DeleteExpense implements store.ExpenseDeleter.
func (r *Repository) DeleteExpense(ctx context.Context, id int64, owner string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND owner = $2`, id, owner); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// LoadBudget implements store.BudgetReader.
func (r *Repository) LoadBudget(ctx context.Context, owner string, month, year int) (core.Budget, bool, error) {
	var planned int64
	err := r.db.QueryRowContext(ctx,
		`SELECT planned_cents FROM budgets WHERE owner = $1 AND month = $2 AND year = $3`,
		owner, month, year).Scan(&planned)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("query budget: %w", err)
	}
	return core.Budget{Owner: owner, Month: month, Year: year, Planned: core.Money{Cents: planned}}, true, nil
}

// UpsertBudget implements store.BudgetUpserter.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner, month, year, planned_cents) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (owner, month, year) DO UPDATE SET planned_cents = EXCLUDED.planned_cents`,
		b.Owner, b.Month, b.Year, b.Planned.Cents); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// GetExpense returns one record by id, for the sync worker.
func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, to_char(occurred_on, 'YYYY-MM-DD'), amount_cents, description, category, source
		   FROM expenses WHERE id = $1`, id)
	return scanExpense(row)
}

// PendingSync lists records not yet mirrored to the spreadsheet.
func (r *Repository) PendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, to_char(occurred_on, 'YYYY-MM-DD'), amount_cents, description, category, source
		   FROM expenses WHERE synced_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending sync: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSynced records that the spreadsheet mirror holds the expense.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e          core.Expense
		occurredOn string
		category   string
		source     string
	)
	if err := row.Scan(&e.ID, &e.Owner, &occurredOn, &e.Amount.Cents, &e.Description, &category, &source); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := core.ParseDate(occurredOn)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Date = d
	if e.Category, err = core.ParseCategory(category); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	if e.Source, err = core.ParseSource(source); err != nil {
		return core.Expense{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	return e, nil
}
