// Package google is the spreadsheet ledger store: one worksheet of
// expense rows and one of budget rows, matching the layout the dashboard
// historically kept in Google Sheets.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gastos/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	defaultExpensesSheet = "gastos"
	defaultBudgetsSheet  = "orcamento"
)

var expensesHeader = []interface{}{"id", "username", "data", "valor", "descricao", "categoria", "fonte"}
var budgetsHeader = []interface{}{"username", "mes", "ano", "valor_planejado"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	expensesSheet string
	budgetsSheet  string

	// The sheet has no transactions; serialize read-modify-write cycles
	// within this process. Cross-process writers are last-write-wins.
	mu sync.Mutex
}

// NewFromEnv creates a Sheets-backed store from the environment.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_EXPENSES_SHEET and
// GOOGLE_BUDGETS_SHEET override the worksheet names.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	expenses := strings.TrimSpace(os.Getenv("GOOGLE_EXPENSES_SHEET"))
	if expenses == "" {
		expenses = defaultExpensesSheet
	}
	budgets := strings.TrimSpace(os.Getenv("GOOGLE_BUDGETS_SHEET"))
	if budgets == "" {
		budgets = defaultBudgetsSheet
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		expensesSheet: expenses,
		budgetsSheet:  budgets,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from the environment.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// LoadExpenses implements store.ExpenseLoader.
func (c *Client) LoadExpenses(ctx context.Context, owner string) ([]core.Expense, error) {
	rows, err := c.readRows(ctx, c.expensesSheet)
	if err != nil {
		return nil, err
	}
	all, err := expensesFromRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]core.Expense, 0, len(all))
	for _, e := range all {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

// AppendExpenses implements store.ExpenseAppender. Ids continue from the
// highest id present in the sheet (independent of owner); the batch goes
// out as a single values append, so it lands whole or not at all.
func (c *Client) AppendExpenses(ctx context.Context, records []core.Expense) ([]core.Expense, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for _, e := range records {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.readRows(ctx, c.expensesSheet)
	if err != nil {
		return nil, err
	}
	existing, err := expensesFromRows(rows)
	if err != nil {
		return nil, err
	}
	next := int64(1)
	for _, e := range existing {
		if e.ID >= next {
			next = e.ID + 1
		}
	}

	stored := make([]core.Expense, len(records))
	values := make([][]interface{}, 0, len(records)+1)
	if len(rows) == 0 {
		values = append(values, expensesHeader)
	}
	for i, e := range records {
		e.ID = next
		next++
		stored[i] = e
		values = append(values, rowFromExpense(e))
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.expensesSheet+"!A:G",
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("append expenses: %w", err)
	}

	slog.InfoContext(ctx, "expenses appended to sheet",
		"sheet", c.expensesSheet, "count", len(stored))
	return stored, nil
}

// DeleteExpense implements store.ExpenseDeleter with the sheet's
// clear-and-rewrite cycle. Missing or foreign ids leave the sheet as is.
func (c *Client) DeleteExpense(ctx context.Context, id int64, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.readRows(ctx, c.expensesSheet)
	if err != nil {
		return err
	}
	all, err := expensesFromRows(rows)
	if err != nil {
		return err
	}

	kept := make([]core.Expense, 0, len(all))
	removed := false
	for _, e := range all {
		if e.ID == id && e.Owner == owner {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return nil
	}

	values := [][]interface{}{expensesHeader}
	for _, e := range kept {
		values = append(values, rowFromExpense(e))
	}
	return c.rewrite(ctx, c.expensesSheet, "!A:G", values)
}

// LoadBudget implements store.BudgetReader.
func (c *Client) LoadBudget(ctx context.Context, owner string, month, year int) (core.Budget, bool, error) {
	rows, err := c.readRows(ctx, c.budgetsSheet)
	if err != nil {
		return core.Budget{}, false, err
	}
	budgets, err := budgetsFromRows(rows)
	if err != nil {
		return core.Budget{}, false, err
	}
	for _, b := range budgets {
		if b.Owner == owner && b.Month == month && b.Year == year {
			return b, true, nil
		}
	}
	return core.Budget{}, false, nil
}

// UpsertBudget implements store.BudgetUpserter: replace the matching row
// in place, or append one when the period has no budget yet.
func (c *Client) UpsertBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.readRows(ctx, c.budgetsSheet)
	if err != nil {
		return err
	}
	budgets, err := budgetsFromRows(rows)
	if err != nil {
		return err
	}

	replaced := false
	for i, existing := range budgets {
		if existing.Owner == b.Owner && existing.Month == b.Month && existing.Year == b.Year {
			budgets[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		budgets = append(budgets, b)
	}

	values := [][]interface{}{budgetsHeader}
	for _, row := range budgets {
		values = append(values, rowFromBudget(row))
	}
	return c.rewrite(ctx, c.budgetsSheet, "!A:D", values)
}

// AppendMirror writes one already-persisted expense into the sheet,
// keeping its id from the primary store. Used by the sync worker; a row
// with the same id already present makes this a no-op, so redelivered
// queue messages are safe.
func (c *Client) AppendMirror(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.readRows(ctx, c.expensesSheet)
	if err != nil {
		return err
	}
	existing, err := expensesFromRows(rows)
	if err != nil {
		return err
	}
	for _, have := range existing {
		if have.ID == e.ID {
			return nil
		}
	}

	values := [][]interface{}{}
	if len(rows) == 0 {
		values = append(values, expensesHeader)
	}
	values = append(values, rowFromExpense(e))
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.expensesSheet+"!A:G",
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append mirror row: %w", err)
	}
	return nil
}

func (c *Client) readRows(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return resp.Values, nil
}

func (c *Client) rewrite(ctx context.Context, sheet, cols string, values [][]interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet+cols, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1",
		&gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("rewrite sheet %s: %w", sheet, err)
	}
	return nil
}
