package screening

import (
	"math"

	"github.com/dustin/go-humanize"

	"github.com/wonny/alphaforge/internal/contracts"
)

// BalanceSheetRule flags negative shareholder equity
type BalanceSheetRule struct{}

// NewBalanceSheetRule creates the balance sheet health rule
func NewBalanceSheetRule() *BalanceSheetRule {
	return &BalanceSheetRule{}
}

// Rule returns the rule name
func (r *BalanceSheetRule) Rule() contracts.RuleName {
	return contracts.RuleBalanceSheet
}

// Evaluate checks shareholder equity sign
func (r *BalanceSheetRule) Evaluate(in Input) (Outcome, error) {
	equity := in.Snapshot.ShareholderEquity
	out := Outcome{Detail: contracts.BalanceSheetDetail{ShareholderEquity: equity}}

	if equity != nil && *equity < 0 {
		out.Findings = []contracts.Finding{
			finding(contracts.CategoryNegativeEquity,
				"Negative Shareholder Equity: $"+humanize.Comma(int64(math.RoundToEven(*equity)))),
		}
	}

	return out, nil
}

// LiquidityRule flags thinly traded companies
type LiquidityRule struct {
	minVolume int64
}

// NewLiquidityRule creates the liquidity rule
func NewLiquidityRule(minVolume int64) *LiquidityRule {
	return &LiquidityRule{minVolume: minVolume}
}

// Rule returns the rule name
func (r *LiquidityRule) Rule() contracts.RuleName {
	return contracts.RuleLiquidity
}

// Evaluate compares average daily volume with the minimum
func (r *LiquidityRule) Evaluate(in Input) (Outcome, error) {
	volume := in.Snapshot.AvgDailyVolume
	out := Outcome{Detail: contracts.LiquidityDetail{AvgDailyVolume: volume, MinThreshold: r.minVolume}}

	if volume != nil && *volume < r.minVolume {
		out.Findings = []contracts.Finding{
			finding(contracts.CategoryLowVolume,
				"Low Trading Volume: "+humanize.Comma(*volume)+" shares/day"),
		}
	}

	return out, nil
}
