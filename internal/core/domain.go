package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Date is a calendar date with day granularity, always at midnight UTC.
	Date struct {
		time.Time
	}

	// Money is an amount in cents. All arithmetic stays in integer cents.
	Money struct {
		Cents int64
	}

	// Category labels an expense. The set is enumerated but extensible:
	// unknown labels are rejected at the parsing boundary, not coerced.
	Category string

	// Source is the payment method an expense was settled with.
	Source string

	// Expense is a single ledger record. Immutable once created; the only
	// lifecycle transition after creation is deletion.
	Expense struct {
		ID          int64
		Owner       string
		Date        Date
		Amount      Money
		Description string
		Category    Category
		Source      Source
	}

	// Budget is the planned spend ceiling for one (owner, month, year).
	// At most one record exists per triple; saves replace in place.
	Budget struct {
		Owner   string
		Month   int // 1-12
		Year    int
		Planned Money
	}
)

const (
	CategoryFood      Category = "Alimentação"
	CategoryTransport Category = "Transporte"
	CategoryLeisure   Category = "Lazer"
	CategoryFixed     Category = "Fixos"
	CategoryEducation Category = "Educação"
	CategoryGifts     Category = "Presentes"
	CategoryShopping  Category = "Compras"
	CategoryHealth    Category = "Saúde"
	CategoryOther     Category = "Outros"
)

const (
	SourceCash        Source = "Dinheiro"
	SourceCredit      Source = "Crédito"
	SourceDebit       Source = "Débito"
	SourcePix         Source = "PIX"
	SourceMealVoucher Source = "Vale Refeição"
	SourceFoodVoucher Source = "Vale Alimentação"
)

// Categories lists the enumerated categories in presentation order.
func Categories() []Category {
	return []Category{
		CategoryFood, CategoryTransport, CategoryLeisure, CategoryFixed,
		CategoryEducation, CategoryGifts, CategoryShopping, CategoryHealth,
		CategoryOther,
	}
}

// Sources lists the enumerated payment sources in presentation order.
func Sources() []Source {
	return []Source{
		SourceCash, SourceCredit, SourceDebit, SourcePix,
		SourceMealVoucher, SourceFoodVoucher,
	}
}

var (
	// ErrInvalidInput is the root of the validation error family. Every
	// field-specific sentinel below wraps it, so callers can match the
	// whole class with errors.Is(err, ErrInvalidInput).
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable wraps backend failures: the persistence layer is
	// unreachable or a write could not be confirmed. The triggering
	// operation must be treated as not having happened.
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrInvalidAmount       = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidDate         = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidMonth        = fmt.Errorf("%w: invalid month", ErrInvalidInput)
	ErrInvalidInstallments = fmt.Errorf("%w: invalid installment count", ErrInvalidInput)
	ErrInvalidCategory     = fmt.Errorf("%w: invalid category", ErrInvalidInput)
	ErrInvalidSource       = fmt.Errorf("%w: invalid source", ErrInvalidInput)
	ErrEmptyOwner          = fmt.Errorf("%w: empty owner", ErrInvalidInput)
	ErrEmptyDescription    = fmt.Errorf("%w: empty description", ErrInvalidInput)
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int { return d.Time.Day() }

// Month returns the month as 1-12.
func (d Date) Month() int { return int(d.Time.Month()) }

// Year returns the year.
func (d Date) Year() int { return d.Time.Year() }

// In reports whether the date falls inside the given calendar month.
func (d Date) In(month, year int) bool {
	return d.Month() == month && d.Year() == year
}

// String formats the date as ISO-8601, the storage representation.
func (d Date) String() string { return d.Time.Format("2006-01-02") }

// ParseDate parses an ISO-8601 date as written by the storage layer.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate rejects negative amounts. Zero is a valid amount both for
// expenses and for budgets.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseCategory maps a stored label onto the enumerated category set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == strings.TrimSpace(s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// ParseSource maps a stored label onto the enumerated source set.
func ParseSource(s string) (Source, error) {
	for _, src := range Sources() {
		if string(src) == strings.TrimSpace(s) {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSource, s)
}

// ValidateMonth checks a 1-12 month selector.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidInput)
	}
	if _, err := ParseCategory(string(e.Category)); err != nil {
		return err
	}
	if _, err := ParseSource(string(e.Source)); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Owner) == "" {
		return ErrEmptyOwner
	}
	if err := ValidateMonth(b.Month); err != nil {
		return err
	}
	if b.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidInput, b.Year)
	}
	return b.Planned.Validate()
}
