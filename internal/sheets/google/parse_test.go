package google

import (
	"errors"
	"testing"

	"gastos/internal/core"
)

func TestExpensesFromRows(t *testing.T) {
	rows := [][]interface{}{
		{"id", "username", "data", "valor", "descricao", "categoria", "fonte"},
		{"1", "ana@example.com", "2025-07-10", "150.00", "mercado", "Alimentação", "Débito"},
		{"", "", "", "", "", "", ""}, // blank rows are skipped
		{"2", "ana@example.com", "2025-07-20", "99,90", "cinema", "Lazer", "PIX"},
	}
	out, err := expensesFromRows(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(out))
	}
	if out[0].ID != 1 || out[0].Amount.Cents != 15000 || out[0].Category != core.CategoryFood {
		t.Fatalf("unexpected first expense: %+v", out[0])
	}
	if out[1].Amount.Cents != 9990 || out[1].Source != core.SourcePix {
		t.Fatalf("unexpected second expense: %+v", out[1])
	}
}

func TestExpensesFromRowsRejectsBadRow(t *testing.T) {
	cases := []struct {
		name string
		row  []interface{}
	}{
		{"short row", []interface{}{"1", "ana", "2025-07-10"}},
		{"bad id", []interface{}{"x", "ana", "2025-07-10", "1.00", "d", "Outros", "PIX"}},
		{"bad date", []interface{}{"1", "ana", "10/07/2025", "1.00", "d", "Outros", "PIX"}},
		{"bad amount", []interface{}{"1", "ana", "2025-07-10", "-1", "d", "Outros", "PIX"}},
		{"unknown category", []interface{}{"1", "ana", "2025-07-10", "1.00", "d", "Viagens", "PIX"}},
		{"unknown source", []interface{}{"1", "ana", "2025-07-10", "1.00", "d", "Outros", "Cheque"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := expensesFromRows([][]interface{}{tc.row}); err == nil {
				t.Fatal("expected error, bad rows must fail the whole read")
			}
		})
	}
}

func TestExpenseRowRoundTrip(t *testing.T) {
	e := core.Expense{
		ID:          7,
		Owner:       "ana@example.com",
		Date:        core.NewDate(2025, 7, 10),
		Amount:      core.Money{Cents: 12345},
		Description: "fone (1/3)",
		Category:    core.CategoryShopping,
		Source:      core.SourceCredit,
	}
	got, err := expenseFromRow(rowFromExpense(e))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != e.ID || got.Amount.Cents != e.Amount.Cents || got.Description != e.Description {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Date.Equal(e.Date.Time) {
		t.Fatalf("date mismatch: %s", got.Date)
	}
}

func TestBudgetsFromRows(t *testing.T) {
	rows := [][]interface{}{
		{"username", "mes", "ano", "valor_planejado"},
		{"ana@example.com", "7", "2025", "1000.00"},
	}
	out, err := budgetsFromRows(rows)
	if err != nil || len(out) != 1 {
		t.Fatalf("unexpected: %v %v", out, err)
	}
	b := out[0]
	if b.Owner != "ana@example.com" || b.Month != 7 || b.Year != 2025 || b.Planned.Cents != 100000 {
		t.Fatalf("unexpected budget: %+v", b)
	}

	if _, err := budgetsFromRows([][]interface{}{{"ana", "13", "2025", "1.00"}}); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestCentsToDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{15000, "150.00"},
		{9990, "99.90"},
		{-150, "-1.50"},
	}
	for _, tc := range cases {
		if got := centsToDecimal(tc.cents); got != tc.want {
			t.Fatalf("%d: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}
