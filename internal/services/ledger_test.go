package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/store/memory"
)

const owner = "ana@example.com"

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Level: slog.LevelError + 4})
}

func newTestLedger(t *testing.T) (*Ledger, *memory.Store) {
	t.Helper()
	s := memory.New()
	return NewLedger(s, nil, testLogger(), time.Minute), s
}

func expenseReq(cents int64) NewExpenseRequest {
	return NewExpenseRequest{
		Owner:       owner,
		Date:        core.NewDate(2025, 7, 10),
		Description: "mercado",
		Category:    core.CategoryFood,
		Source:      core.SourceDebit,
		AmountCents: cents,
	}
}

func TestSummaryGatedOnBudget(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, found, err := l.Summary(ctx, owner, 7, 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("summary must report no budget before one is set")
	}

	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	s, found, err := l.Summary(ctx, owner, 7, 2025)
	if err != nil || !found {
		t.Fatalf("expected summary after budget: found=%v err=%v", found, err)
	}
	if s.Planned.Cents != 100000 || s.Spent.Cents != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSetBudgetReplacesInPlace(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	for _, cents := range []int64{50000, 120000, 120000} {
		if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: cents}); err != nil {
			t.Fatalf("set budget %d: %v", cents, err)
		}
	}
	b, found, err := l.Budget(ctx, owner, 7, 2025)
	if err != nil || !found {
		t.Fatalf("load budget: found=%v err=%v", found, err)
	}
	if b.Planned.Cents != 120000 {
		t.Fatalf("expected last write 120000, got %d", b.Planned.Cents)
	}
}

func TestSetBudgetRejectsInvalid(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: -1})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	err = l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 0, Year: 2025})
	if !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: 0}); err != nil {
		t.Fatalf("zero budget must be accepted: %v", err)
	}
}

func TestRegisterPlainExpenseUpdatesSummary(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	// Warm the summary cache, then register and check the cache was dropped.
	if _, _, err := l.Summary(ctx, owner, 7, 2025); err != nil {
		t.Fatalf("summary: %v", err)
	}

	stored, err := l.Register(ctx, expenseReq(15000))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(stored) != 1 || stored[0].ID == 0 {
		t.Fatalf("expected one stored record with id, got %+v", stored)
	}

	s, _, err := l.Summary(ctx, owner, 7, 2025)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Spent.Cents != 15000 || s.Balance.Cents != 85000 {
		t.Fatalf("stale summary after register: %+v", s)
	}
}

func TestRegisterInstallmentsSpanMonths(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	req := NewExpenseRequest{
		Owner:        owner,
		Date:         core.NewDate(2025, 7, 20),
		Description:  "fone",
		Category:     core.CategoryShopping,
		Source:       core.SourceCredit,
		Installments: 3,
		TotalCents:   30000,
	}
	stored, err := l.Register(ctx, req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(stored) != 3 {
		t.Fatalf("expected 3 records, got %d", len(stored))
	}

	for i, month := range []int{7, 8, 9} {
		if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: month, Year: 2025, AmountCents: 50000}); err != nil {
			t.Fatalf("set budget: %v", err)
		}
		s, _, err := l.Summary(ctx, owner, month, 2025)
		if err != nil {
			t.Fatalf("summary month %d: %v", month, err)
		}
		if s.Spent.Cents != 10000 {
			t.Fatalf("month %d: expected 10000 spent, got %d", month, s.Spent.Cents)
		}
		want := fmt.Sprintf("fone (%d/3)", i+1)
		if len(s.Records) != 1 || s.Records[0].Description != want {
			t.Fatalf("month %d: unexpected records %+v", month, s.Records)
		}
	}
}

func TestRegisterRejectsNegativeInstallments(t *testing.T) {
	l, _ := newTestLedger(t)
	req := expenseReq(1000)
	req.Installments = -1
	if _, err := l.Register(context.Background(), req); !errors.Is(err, core.ErrInvalidInstallments) {
		t.Fatalf("expected ErrInvalidInstallments, got %v", err)
	}
}

func TestDeleteInvalidatesSummary(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025, AmountCents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	stored, err := l.Register(ctx, expenseReq(15000))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := l.Summary(ctx, owner, 7, 2025); err != nil {
		t.Fatalf("summary: %v", err)
	}

	if err := l.Delete(ctx, owner, stored[0].ID, 7, 2025); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s, _, err := l.Summary(ctx, owner, 7, 2025)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Spent.Cents != 0 || len(s.Records) != 0 {
		t.Fatalf("stale summary after delete: %+v", s)
	}

	// Deleting again is a no-op.
	if err := l.Delete(ctx, owner, stored[0].ID, 7, 2025); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	other := "bruno@example.com"

	if _, err := l.Register(ctx, expenseReq(15000)); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: other, Month: 7, Year: 2025, AmountCents: 50000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	s, _, err := l.Summary(ctx, other, 7, 2025)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Spent.Cents != 0 {
		t.Fatalf("owner leak: %+v", s)
	}
	if _, found, _ := l.Budget(ctx, owner, 7, 2025); found {
		t.Fatal("budget leaked across owners")
	}
}

type failingStore struct{}

var errDown = errors.New("connection refused")

func (failingStore) LoadExpenses(context.Context, string) ([]core.Expense, error) {
	return nil, errDown
}
func (failingStore) AppendExpenses(context.Context, []core.Expense) ([]core.Expense, error) {
	return nil, errDown
}
func (failingStore) DeleteExpense(context.Context, int64, string) error { return errDown }
func (failingStore) LoadBudget(context.Context, string, int, int) (core.Budget, bool, error) {
	return core.Budget{}, false, errDown
}
func (failingStore) UpsertBudget(context.Context, core.Budget) error { return errDown }

func TestStoreFailuresWrapStoreUnavailable(t *testing.T) {
	l := NewLedger(failingStore{}, nil, testLogger(), time.Minute)
	ctx := context.Background()

	if _, err := l.Register(ctx, expenseReq(1000)); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("register: expected ErrStoreUnavailable, got %v", err)
	}
	if err := l.SetBudget(ctx, SetBudgetRequest{Owner: owner, Month: 7, Year: 2025}); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("set budget: expected ErrStoreUnavailable, got %v", err)
	}
	if _, _, err := l.Summary(ctx, owner, 7, 2025); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("summary: expected ErrStoreUnavailable, got %v", err)
	}
	if err := l.Delete(ctx, owner, 1, 7, 2025); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Fatalf("delete: expected ErrStoreUnavailable, got %v", err)
	}
}

type recordingQueue struct {
	ids  []int64
	fail bool
}

func (q *recordingQueue) PublishExpenseSync(_ context.Context, id int64) error {
	if q.fail {
		return errors.New("broker down")
	}
	q.ids = append(q.ids, id)
	return nil
}

func TestRegisterQueuesMirrorSync(t *testing.T) {
	q := &recordingQueue{}
	l := NewLedger(memory.New(), q, testLogger(), time.Minute)

	stored, err := l.Register(context.Background(), NewExpenseRequest{
		Owner:        owner,
		Date:         core.NewDate(2025, 7, 1),
		Description:  "curso",
		Category:     core.CategoryEducation,
		Source:       core.SourcePix,
		Installments: 2,
		TotalCents:   40000,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(q.ids) != 2 || q.ids[0] != stored[0].ID || q.ids[1] != stored[1].ID {
		t.Fatalf("expected both ids queued, got %v", q.ids)
	}
}

func TestRegisterSurvivesQueueFailure(t *testing.T) {
	l := NewLedger(memory.New(), &recordingQueue{fail: true}, testLogger(), time.Minute)
	stored, err := l.Register(context.Background(), expenseReq(1000))
	if err != nil || len(stored) != 1 {
		t.Fatalf("register must not fail on mirror enqueue: %v %v", stored, err)
	}
}
