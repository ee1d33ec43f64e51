// Package storage is the embedded-database ledger store, a SQLite file
// managed through embedded migrations.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gastos/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadExpenses implements store.ExpenseLoader.
func (r *SQLiteRepository) LoadExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, occurred_on, amount_cents, description, category, source
		   FROM expenses WHERE owner = ? ORDER BY id`, owner)
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

// AppendExpenses implements store.ExpenseAppender. The batch is one
// transaction: an installment split persists whole or not at all. Ids
// come from the AUTOINCREMENT sequence, which never reuses values.
func (r *SQLiteRepository) AppendExpenses(ctx context.Context, records []core.Expense) ([]core.Expense, error) {
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
		res, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (owner, occurred_on, amount_cents, description, category, source)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			e.Owner, e.Date.String(), e.Amount.Cents, e.Description, string(e.Category), string(e.Source))
		if err != nil {
			return nil, fmt.Errorf("insert expense: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("expense id: %w", err)
		}
		e.ID = id
		stored[i] = e
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append tx: %w", err)
	}

	slog.InfoContext(ctx, "expenses saved to sqlite",
		"owner", records[0].Owner, "count", len(stored))
	return stored, nil
}

// DeleteExpense implements store.ExpenseDeleter. The owner predicate
// makes a foreign id a no-op rather than an error.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64, owner string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND owner = ?`, id, owner); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// LoadBudget implements store.BudgetReader.
func (r *SQLiteRepository) LoadBudget(ctx context.Context, owner string, month, year int) (core.Budget, bool, error) {
	var planned int64
	err := r.db.QueryRowContext(ctx,
		`SELECT planned_cents FROM budgets WHERE owner = ? AND month = ? AND year = ?`,
		owner, month, year).Scan(&planned)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, false, nil
	}
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("query budget: %w", err)
	}
	return core.Budget{Owner: owner, Month: month, Year: year, Planned: core.Money{Cents: planned}}, true, nil
}

// UpsertBudget implements store.BudgetUpserter. The primary key on
// (owner, month, year) turns a second save into an in-place update.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner, month, year, planned_cents) VALUES (?, ?, ?, ?)
		 ON CONFLICT(owner, month, year) DO UPDATE SET planned_cents = excluded.planned_cents`,
		b.Owner, b.Month, b.Year, b.Planned.Cents); err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// GetExpense returns one record by id, for the sync worker.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, owner, occurred_on, amount_cents, description, category, source
		   FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// PendingSync lists records not yet mirrored to the spreadsheet.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner, occurred_on, amount_cents, description, category, source
		   FROM expenses WHERE synced_at IS NULL ORDER BY id LIMIT ?`, limit)
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
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanExpense is the strict parsing boundary between raw rows and the
// typed model: dates, categories and sources are parsed, never coerced.
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
