// Package services orchestrates the ledger operations: registering
// expenses (plain or installment-split), budget upserts, period summaries
// and the two-step deletion workflow. It owns the read caches and keeps
// them coherent by invalidating after every mutation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastos/internal/cache"
	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/store"
)

// Store is the full persistence contract the ledger needs, one backend
// implementing all five ports.
type Store interface {
	store.ExpenseLoader
	store.ExpenseAppender
	store.ExpenseDeleter
	store.BudgetReader
	store.BudgetUpserter
}

// SyncPublisher enqueues an appended expense for mirroring to the
// spreadsheet. Optional; a nil publisher disables mirroring.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, id int64) error
}

// Cache sizing. Summaries are per (owner, period); budgets are tiny.
const (
	summaryCacheSize = 256
	budgetCacheSize  = 512
	defaultCacheTTL  = 60 * time.Second
)

type (
	// NewExpenseRequest registers either a plain expense (Installments
	// <= 1, AmountCents) or an installment purchase (Installments > 1
	// with TotalCents or PerInstallmentCents).
	NewExpenseRequest struct {
		Owner               string
		Date                core.Date
		Description         string
		Category            core.Category
		Source              core.Source
		AmountCents         int64
		Installments        int
		TotalCents          int64
		PerInstallmentCents int64
	}

	// SetBudgetRequest creates or replaces the planned amount for one
	// (owner, month, year). Zero is a valid plan; negative is not.
	SetBudgetRequest struct {
		Owner       string
		Month       int
		Year        int
		AmountCents int64
	}
)

// Ledger is the single entry point the presentation layer talks to.
type Ledger struct {
	store     Store
	queue     SyncPublisher
	summaries *cache.LRU[core.PeriodSummary]
	budgets   *cache.LRU[core.Budget]
	log       *applog.Logger
}

func NewLedger(s Store, queue SyncPublisher, logger *applog.Logger, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Ledger{
		store:     s,
		queue:     queue,
		summaries: cache.NewLRU[core.PeriodSummary](summaryCacheSize, ttl),
		budgets:   cache.NewLRU[core.Budget](budgetCacheSize, ttl),
		log:       logger.WithComponent(applog.ComponentLedger),
	}
}

// Caches exposes the ledger's caches for cleanup registration.
func (l *Ledger) Caches() []cache.Cleaner {
	return []cache.Cleaner{l.summaries, l.budgets}
}

// Register validates the request, expands installments when asked, and
// appends the whole batch atomically. Appended records are queued for the
// spreadsheet mirror after the durable write; mirror failures are logged,
// never surfaced, since the primary write already happened.
func (l *Ledger) Register(ctx context.Context, req NewExpenseRequest) ([]core.Expense, error) {
	var records []core.Expense
	if req.Installments > 1 {
		var err error
		records, err = ExpandInstallments(InstallmentPlan{
			Owner:               req.Owner,
			Start:               req.Date,
			Description:         req.Description,
			Category:            req.Category,
			Source:              req.Source,
			Count:               req.Installments,
			TotalCents:          req.TotalCents,
			PerInstallmentCents: req.PerInstallmentCents,
		})
		if err != nil {
			return nil, err
		}
	} else {
		if req.Installments < 0 {
			return nil, fmt.Errorf("%w: %d", core.ErrInvalidInstallments, req.Installments)
		}
		e := core.Expense{
			Owner:       req.Owner,
			Date:        req.Date,
			Amount:      core.Money{Cents: req.AmountCents},
			Description: req.Description,
			Category:    req.Category,
			Source:      req.Source,
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		records = []core.Expense{e}
	}

	stored, err := l.store.AppendExpenses(ctx, records)
	if err != nil {
		return nil, wrapStore(err)
	}

	for _, e := range stored {
		l.summaries.Delete(summaryKey(e.Owner, e.Date.Month(), e.Date.Year()))
	}
	l.log.InfoContext(ctx, "expenses registered",
		applog.FieldOwner, req.Owner,
		applog.FieldCount, len(stored),
		applog.FieldCategory, string(req.Category),
		applog.FieldSource, string(req.Source))

	if l.queue != nil {
		for _, e := range stored {
			if err := l.queue.PublishExpenseSync(ctx, e.ID); err != nil {
				l.log.WarnContext(ctx, "mirror enqueue failed",
					applog.FieldExpenseID, e.ID, applog.FieldError, err)
			}
		}
	}
	return stored, nil
}

// Budget resolves the planned amount for a period. The second return is
// false when no budget has been set; callers gate the expense view on it.
func (l *Ledger) Budget(ctx context.Context, owner string, month, year int) (core.Budget, bool, error) {
	if err := core.ValidateMonth(month); err != nil {
		return core.Budget{}, false, err
	}
	key := budgetKey(owner, month, year)
	if b, ok := l.budgets.Get(key); ok {
		return b, true, nil
	}
	b, found, err := l.store.LoadBudget(ctx, owner, month, year)
	if err != nil {
		return core.Budget{}, false, wrapStore(err)
	}
	if found {
		l.budgets.Set(key, b)
	}
	return b, found, nil
}

// SetBudget upserts the unique budget record for the period and drops the
// affected cache entries before returning.
func (l *Ledger) SetBudget(ctx context.Context, req SetBudgetRequest) error {
	b := core.Budget{
		Owner:   req.Owner,
		Month:   req.Month,
		Year:    req.Year,
		Planned: core.Money{Cents: req.AmountCents},
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := l.store.UpsertBudget(ctx, b); err != nil {
		return wrapStore(err)
	}
	l.budgets.Delete(budgetKey(req.Owner, req.Month, req.Year))
	l.summaries.Delete(summaryKey(req.Owner, req.Month, req.Year))
	l.log.InfoContext(ctx, "budget saved",
		applog.FieldOwner, req.Owner,
		applog.FieldMonth, req.Month,
		applog.FieldYear, req.Year,
		applog.FieldAmountCents, req.AmountCents)
	return nil
}

// Summary aggregates the owner's ledger for the period. The second return
// is false when no budget exists yet, in which case the summary is empty
// and the caller must prompt for a budget first.
func (l *Ledger) Summary(ctx context.Context, owner string, month, year int) (core.PeriodSummary, bool, error) {
	b, found, err := l.Budget(ctx, owner, month, year)
	if err != nil {
		return core.PeriodSummary{}, false, err
	}
	if !found {
		return core.PeriodSummary{}, false, nil
	}

	key := summaryKey(owner, month, year)
	if s, ok := l.summaries.Get(key); ok {
		return s, true, nil
	}
	records, err := l.store.LoadExpenses(ctx, owner)
	if err != nil {
		return core.PeriodSummary{}, false, wrapStore(err)
	}
	s := core.Summarize(records, month, year, b.Planned)
	l.summaries.Set(key, s)
	return s, true, nil
}

// Delete removes one record for the owner and invalidates the summary of
// the period it was viewed in. Missing or foreign ids are a no-op at the
// store, so a repeated confirm is harmless.
func (l *Ledger) Delete(ctx context.Context, owner string, id int64, month, year int) error {
	if err := l.store.DeleteExpense(ctx, id, owner); err != nil {
		return wrapStore(err)
	}
	l.summaries.Delete(summaryKey(owner, month, year))
	l.log.InfoContext(ctx, "expense deleted",
		applog.FieldOwner, owner, applog.FieldExpenseID, id)
	return nil
}

func summaryKey(owner string, month, year int) string {
	return fmt.Sprintf("sum|%s|%d|%d", owner, month, year)
}

func budgetKey(owner string, month, year int) string {
	return fmt.Sprintf("bud|%s|%d|%d", owner, month, year)
}

// wrapStore tags backend failures as StoreUnavailable while letting
// validation errors pass through untouched.
func wrapStore(err error) error {
	if err == nil || errors.Is(err, core.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
}
