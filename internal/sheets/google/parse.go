package google

import (
	"fmt"
	"strconv"
	"strings"

	"gastos/internal/core"
)

// Row conversion is the strict boundary between the loosely typed sheet
// cells and the ledger model: every cell is parsed explicitly, and a bad
// row fails the whole read instead of being coerced.

func expensesFromRows(rows [][]interface{}) ([]core.Expense, error) {
	var out []core.Expense
	for i, row := range rows {
		if i == 0 && isHeader(row, "id") {
			continue
		}
		if isBlank(row) {
			continue
		}
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func expenseFromRow(row []interface{}) (core.Expense, error) {
	if len(row) < 7 {
		return core.Expense{}, fmt.Errorf("%w: expense row has %d cells", core.ErrInvalidInput, len(row))
	}
	id, err := strconv.ParseInt(cell(row, 0), 10, 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: id %q", core.ErrInvalidInput, cell(row, 0))
	}
	d, err := core.ParseDate(cell(row, 2))
	if err != nil {
		return core.Expense{}, err
	}
	cents, err := core.ParseDecimalToCents(cell(row, 3))
	if err != nil {
		return core.Expense{}, err
	}
	category, err := core.ParseCategory(cell(row, 5))
	if err != nil {
		return core.Expense{}, err
	}
	source, err := core.ParseSource(cell(row, 6))
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:          id,
		Owner:       cell(row, 1),
		Date:        d,
		Amount:      core.Money{Cents: cents},
		Description: cell(row, 4),
		Category:    category,
		Source:      source,
	}, nil
}

func rowFromExpense(e core.Expense) []interface{} {
	return []interface{}{
		strconv.FormatInt(e.ID, 10),
		e.Owner,
		e.Date.String(),
		centsToDecimal(e.Amount.Cents),
		e.Description,
		string(e.Category),
		string(e.Source),
	}
}

func budgetsFromRows(rows [][]interface{}) ([]core.Budget, error) {
	var out []core.Budget
	for i, row := range rows {
		if i == 0 && isHeader(row, "username") {
			continue
		}
		if isBlank(row) {
			continue
		}
		b, err := budgetFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func budgetFromRow(row []interface{}) (core.Budget, error) {
	if len(row) < 4 {
		return core.Budget{}, fmt.Errorf("%w: budget row has %d cells", core.ErrInvalidInput, len(row))
	}
	month, err := strconv.Atoi(cell(row, 1))
	if err != nil {
		return core.Budget{}, fmt.Errorf("%w: month %q", core.ErrInvalidInput, cell(row, 1))
	}
	year, err := strconv.Atoi(cell(row, 2))
	if err != nil {
		return core.Budget{}, fmt.Errorf("%w: year %q", core.ErrInvalidInput, cell(row, 2))
	}
	cents, err := core.ParseDecimalToCents(cell(row, 3))
	if err != nil {
		return core.Budget{}, err
	}
	b := core.Budget{
		Owner:   cell(row, 0),
		Month:   month,
		Year:    year,
		Planned: core.Money{Cents: cents},
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func rowFromBudget(b core.Budget) []interface{} {
	return []interface{}{
		b.Owner,
		strconv.Itoa(b.Month),
		strconv.Itoa(b.Year),
		centsToDecimal(b.Planned.Cents),
	}
}

// centsToDecimal writes cents as a plain dot-decimal string ("150.00"),
// the sheet's storage format for amounts.
func centsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func cell(row []interface{}, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func isHeader(row []interface{}, first string) bool {
	return len(row) > 0 && strings.EqualFold(cell(row, 0), first)
}

func isBlank(row []interface{}) bool {
	for i := range row {
		if cell(row, i) != "" {
			return false
		}
	}
	return true
}
