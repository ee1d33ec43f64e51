package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"gastos/internal/core"
)

func TestPeriod(t *testing.T) {
	now := time.Now()

	t.Run("defaults to current month", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		month, year, err := period(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if month != int(now.Month()) || year != now.Year() {
			t.Fatalf("expected current period, got %d/%d", month, year)
		}
	})

	t.Run("explicit selection", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?month=2&year=2024", nil)
		month, year, err := period(r)
		if err != nil || month != 2 || year != 2024 {
			t.Fatalf("unexpected: %d/%d %v", month, year, err)
		}
	})

	t.Run("rejects bad month", func(t *testing.T) {
		for _, q := range []string{"/?month=13", "/?month=0", "/?month=abc"} {
			r := httptest.NewRequest("GET", q, nil)
			if _, _, err := period(r); !errors.Is(err, core.ErrInvalidInput) {
				t.Fatalf("%s: expected invalid input, got %v", q, err)
			}
		}
	})
}

func TestParseExpenseForm(t *testing.T) {
	base := url.Values{
		"date":        {"2025-07-10"},
		"description": {"mercado"},
		"category":    {"Alimentação"},
		"source":      {"Débito"},
		"amount":      {"150,00"},
	}

	t.Run("plain expense", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/expenses", nil)
		r.Form = base
		req, err := parseExpenseForm(r, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Owner != "ana@example.com" || req.AmountCents != 15000 || req.Installments != 0 {
			t.Fatalf("unexpected request: %+v", req)
		}
		if req.Category != core.CategoryFood || req.Source != core.SourceDebit {
			t.Fatalf("unexpected enums: %+v", req)
		}
	})

	t.Run("installments total mode", func(t *testing.T) {
		form := url.Values{}
		for k, v := range base {
			form[k] = v
		}
		form.Set("installments", "3")
		form.Set("mode", "total")
		form.Set("amount", "300,00")

		r := httptest.NewRequest("POST", "/expenses", nil)
		r.Form = form
		req, err := parseExpenseForm(r, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Installments != 3 || req.TotalCents != 30000 || req.PerInstallmentCents != 0 {
			t.Fatalf("unexpected request: %+v", req)
		}
	})

	t.Run("installments per-installment mode", func(t *testing.T) {
		form := url.Values{}
		for k, v := range base {
			form[k] = v
		}
		form.Set("installments", "4")
		form.Set("mode", "per_installment")
		form.Set("amount", "25,00")

		r := httptest.NewRequest("POST", "/expenses", nil)
		r.Form = form
		req, err := parseExpenseForm(r, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Installments != 4 || req.PerInstallmentCents != 2500 || req.TotalCents != 0 {
			t.Fatalf("unexpected request: %+v", req)
		}
	})

	t.Run("single installment collapses to plain", func(t *testing.T) {
		form := url.Values{}
		for k, v := range base {
			form[k] = v
		}
		form.Set("installments", "1")
		form.Set("mode", "total")

		r := httptest.NewRequest("POST", "/expenses", nil)
		r.Form = form
		req, err := parseExpenseForm(r, "ana@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if req.Installments != 0 || req.AmountCents != 15000 {
			t.Fatalf("unexpected request: %+v", req)
		}
	})

	t.Run("rejects bad fields", func(t *testing.T) {
		cases := []struct {
			name  string
			key   string
			value string
			want  error
		}{
			{"bad date", "date", "10/07/2025", core.ErrInvalidDate},
			{"unknown category", "category", "Viagens", core.ErrInvalidCategory},
			{"unknown source", "source", "Cheque", core.ErrInvalidSource},
			{"negative amount", "amount", "-10", core.ErrInvalidAmount},
			{"bad installments", "installments", "três", core.ErrInvalidInstallments},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				form := url.Values{}
				for k, v := range base {
					form[k] = v
				}
				form.Set(tc.key, tc.value)
				r := httptest.NewRequest("POST", "/expenses", nil)
				r.Form = form
				if _, err := parseExpenseForm(r, "ana@example.com"); !errors.Is(err, tc.want) {
					t.Fatalf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}

func TestParseBudgetForm(t *testing.T) {
	r := httptest.NewRequest("POST", "/budget", nil)
	r.Form = url.Values{"month": {"7"}, "year": {"2025"}, "amount": {"1000,00"}}
	req, err := parseBudgetForm(r, "ana@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Month != 7 || req.Year != 2025 || req.AmountCents != 100000 {
		t.Fatalf("unexpected request: %+v", req)
	}

	r.Form.Set("amount", "-1")
	if _, err := parseBudgetForm(r, "ana@example.com"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseID(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"1", true},
		{"42", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
		{"", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("POST", "/expenses/delete", nil)
		r.Form = url.Values{"id": {tc.in}}
		id, err := parseID(r)
		if tc.ok && (err != nil || id < 1) {
			t.Fatalf("%q: unexpected %d %v", tc.in, id, err)
		}
		if !tc.ok && !errors.Is(err, core.ErrInvalidInput) {
			t.Fatalf("%q: expected ErrInvalidInput, got %v", tc.in, err)
		}
	}
}
