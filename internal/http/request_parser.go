package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/services"
)

// period extracts the (month, year) selection from the query string,
// defaulting to the current calendar month.
func period(r *http.Request) (month, year int, err error) {
	now := time.Now()
	month, year = int(now.Month()), now.Year()
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: month %q", core.ErrInvalidMonth, v)
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: year %q", core.ErrInvalidInput, v)
		}
	}
	if err := core.ValidateMonth(month); err != nil {
		return 0, 0, err
	}
	return month, year, nil
}

// parseExpenseForm turns the expense entry form into a request. The form
// carries either a plain amount or the installment fields; the
// installment amount is interpreted per the "mode" radio (total vs per
// installment), as on the original entry form.
func parseExpenseForm(r *http.Request, owner string) (services.NewExpenseRequest, error) {
	req := services.NewExpenseRequest{Owner: owner}

	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		return req, err
	}
	req.Date = date

	req.Description = strings.TrimSpace(r.Form.Get("description"))

	if req.Category, err = core.ParseCategory(r.Form.Get("category")); err != nil {
		return req, err
	}
	if req.Source, err = core.ParseSource(r.Form.Get("source")); err != nil {
		return req, err
	}

	if strings.TrimSpace(r.Form.Get("installments")) != "" {
		count, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("installments")))
		if err != nil {
			return req, fmt.Errorf("%w: %q", core.ErrInvalidInstallments, r.Form.Get("installments"))
		}
		req.Installments = count

		cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
		if err != nil {
			return req, err
		}
		if r.Form.Get("mode") == "per_installment" {
			req.PerInstallmentCents = cents
		} else {
			req.TotalCents = cents
		}
		if count == 1 {
			// Single installment entered through the split form is just
			// a plain expense.
			req.Installments = 0
			req.AmountCents = cents
		}
		return req, nil
	}

	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		return req, err
	}
	req.AmountCents = cents
	return req, nil
}

func parseBudgetForm(r *http.Request, owner string) (services.SetBudgetRequest, error) {
	req := services.SetBudgetRequest{Owner: owner}

	month, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("month")))
	if err != nil {
		return req, fmt.Errorf("%w: %q", core.ErrInvalidMonth, r.Form.Get("month"))
	}
	year, err := strconv.Atoi(strings.TrimSpace(r.Form.Get("year")))
	if err != nil {
		return req, fmt.Errorf("%w: year %q", core.ErrInvalidInput, r.Form.Get("year"))
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		return req, err
	}
	req.Month, req.Year, req.AmountCents = month, year, cents
	return req, nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: id %q", core.ErrInvalidInput, r.Form.Get("id"))
	}
	return id, nil
}
