package core

import "sort"

type (
	// Bucket is one slice of a breakdown: a label and its summed amount.
	Bucket struct {
		Label  string
		Amount Money
	}

	// PeriodSummary aggregates one owner's ledger over a calendar month.
	// It is what the presentation layer renders; all fields derive
	// deterministically from the input snapshot.
	PeriodSummary struct {
		Month   int
		Year    int
		Planned Money
		Spent   Money
		// Balance is Planned - Spent; negative means overspend.
		Balance Money
		// ByCategory and BySource omit buckets without a positive sum,
		// in enumeration order.
		ByCategory []Bucket
		BySource   []Bucket
		// Availability splits the budget into spent vs still available,
		// with the same omit-non-positive rule as the other breakdowns.
		Availability []Bucket
		// Records are the period's expenses, newest first.
		Records []Expense
	}
)

// Availability bucket labels.
const (
	AvailabilitySpent     = "Gasto"
	AvailabilityAvailable = "Disponível"
)

// Summarize filters the owner's full ledger snapshot down to the given
// calendar month and computes totals, balance and breakdowns against the
// planned amount. Pure: same snapshot and period, same summary.
func Summarize(records []Expense, month, year int, planned Money) PeriodSummary {
	s := PeriodSummary{Month: month, Year: year, Planned: planned}

	byCat := map[Category]int64{}
	bySrc := map[Source]int64{}
	for _, e := range records {
		if !e.Date.In(month, year) {
			continue
		}
		s.Records = append(s.Records, e)
		s.Spent.Cents += e.Amount.Cents
		byCat[e.Category] += e.Amount.Cents
		bySrc[e.Source] += e.Amount.Cents
	}
	s.Balance = planned.Sub(s.Spent)

	for _, c := range Categories() {
		if cents := byCat[c]; cents > 0 {
			s.ByCategory = append(s.ByCategory, Bucket{Label: string(c), Amount: Money{Cents: cents}})
		}
	}
	for _, src := range Sources() {
		if cents := bySrc[src]; cents > 0 {
			s.BySource = append(s.BySource, Bucket{Label: string(src), Amount: Money{Cents: cents}})
		}
	}
	if s.Spent.IsPositive() {
		s.Availability = append(s.Availability, Bucket{Label: AvailabilitySpent, Amount: s.Spent})
	}
	if s.Balance.IsPositive() {
		s.Availability = append(s.Availability, Bucket{Label: AvailabilityAvailable, Amount: s.Balance})
	}

	sort.SliceStable(s.Records, func(i, j int) bool {
		return s.Records[i].Date.After(s.Records[j].Date.Time)
	})
	return s
}
