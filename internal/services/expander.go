package services

import (
	"fmt"

	"gastos/internal/core"
)

// InstallmentPlan describes a purchase to be split across months. Exactly
// one of TotalCents or PerInstallmentCents should be provided; when both
// are set, TotalCents wins (mirrors the entry form's "total" mode).
type InstallmentPlan struct {
	Owner               string
	Start               core.Date
	Description         string
	Category            core.Category
	Source              core.Source
	Count               int
	TotalCents          int64
	PerInstallmentCents int64
}

// ExpandInstallments turns one purchase into Count dated records, one per
// calendar month starting at Start. Descriptions are annotated "(i/n)";
// a single-installment plan degenerates to one plain record.
//
// When the plan carries a total, the per-installment amount is the integer
// cents division total/count. The remainder is not redistributed: the sum
// of the installments may undershoot the total by up to count-1 cents.
func ExpandInstallments(p InstallmentPlan) ([]core.Expense, error) {
	if p.Count <= 0 {
		return nil, fmt.Errorf("%w: %d", core.ErrInvalidInstallments, p.Count)
	}
	if p.TotalCents < 0 || p.PerInstallmentCents < 0 {
		return nil, core.ErrInvalidAmount
	}
	per := p.PerInstallmentCents
	if p.TotalCents > 0 || per == 0 {
		per = p.TotalCents / int64(p.Count)
	}

	records := make([]core.Expense, p.Count)
	for i := 0; i < p.Count; i++ {
		desc := p.Description
		if p.Count > 1 {
			desc = fmt.Sprintf("%s (%d/%d)", p.Description, i+1, p.Count)
		}
		records[i] = core.Expense{
			Owner:       p.Owner,
			Date:        core.AddMonths(p.Start, i),
			Amount:      core.Money{Cents: per},
			Description: desc,
			Category:    p.Category,
			Source:      p.Source,
		}
		if err := records[i].Validate(); err != nil {
			return nil, err
		}
	}
	return records, nil
}
