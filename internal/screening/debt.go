package screening

import (
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
)

// rapidDebtGrowthPct is the YoY debt growth (percent) that triggers the growth check
const rapidDebtGrowthPct = 50.0

// DebtRule flags high leverage and debt growing faster than revenue
type DebtRule struct {
	maxDebtToEBITDA float64
}

// NewDebtRule creates the debt analysis rule
func NewDebtRule(maxDebtToEBITDA float64) *DebtRule {
	return &DebtRule{maxDebtToEBITDA: maxDebtToEBITDA}
}

// Rule returns the rule name
func (r *DebtRule) Rule() contracts.RuleName {
	return contracts.RuleDebt
}

// Evaluate runs the two independent debt checks
func (r *DebtRule) Evaluate(in Input) (Outcome, error) {
	var findings []contracts.Finding

	ratio := in.Snapshot.NetDebtToEBITDA
	if ratio != nil && *ratio > r.maxDebtToEBITDA {
		findings = append(findings, finding(contracts.CategoryHighDebt,
			fmt.Sprintf("High Debt Burden: Net Debt/EBITDA = %.2f", *ratio)))
	}

	growth := debtGrowth(in.History)
	if growth != nil && growth.YoYGrowth > rapidDebtGrowthPct && growth.RevenueGrowth < growth.YoYGrowth/2 {
		findings = append(findings, finding(contracts.CategoryDebtGrowth,
			fmt.Sprintf("Rapid Debt Growth: %.1f%% vs Revenue %.1f%%", growth.YoYGrowth, growth.RevenueGrowth)))
	}

	return Outcome{
		Findings: findings,
		Detail: contracts.DebtDetail{
			NetDebtToEBITDA: ratio,
			MaxDebtToEBITDA: r.maxDebtToEBITDA,
			Growth:          growth,
		},
	}, nil
}

// debtGrowth compares the latest debt year Y with Y-1, and revenue over the same two years.
// Y-1 부채 또는 같은 두 해의 매출이 없으면 nil (기권)
func debtGrowth(h *contracts.FinancialHistory) *contracts.DebtGrowth {
	if len(h.TotalDebt) == 0 {
		return nil
	}

	latest := h.TotalDebt[len(h.TotalDebt)-1]
	year := latest.FiscalYear

	prevDebt, ok := valueFor(h.TotalDebt, year-1)
	if !ok {
		return nil
	}
	prevRev, okPrev := valueFor(h.Revenue, year-1)
	curRev, okCur := valueFor(h.Revenue, year)
	if !okPrev || !okCur {
		return nil
	}

	return &contracts.DebtGrowth{
		FiscalYear:    year,
		YoYGrowth:     growthPct(prevDebt, latest.Value),
		RevenueGrowth: growthPct(prevRev, curRev),
		CurrentDebt:   latest.Value,
		PreviousDebt:  prevDebt,
	}
}

// valueFor returns the value of one fiscal year in a series
func valueFor(values []contracts.AnnualValue, year int) (float64, bool) {
	for _, v := range values {
		if v.FiscalYear == year {
			return v.Value, true
		}
	}
	return 0, false
}

// growthPct returns percent change; 0 when the base is not positive
func growthPct(previous, current float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
