package screening

import (
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
)

// minConsistencyYears is the minimum history for the persistent-negative check
const minConsistencyYears = 5

// trendWindow is the number of most recent years in the accelerating trend check
const trendWindow = 3

// ConsistencyRule flags a series that is negative in too many of the recent years.
// FCF 와 영업이익 룰이 같은 형태를 공유함
type ConsistencyRule struct {
	rule      contracts.RuleName
	threshold int
	series    func(*contracts.FinancialHistory) []contracts.AnnualValue

	category contracts.Category
	format   string // "%d/%d years"

	// optional accelerating negative trend sub-rule
	trendCategory contracts.Category
	trendMessage  string
}

// NewFreeCashFlowRule creates the FCF consistency rule
func NewFreeCashFlowRule(threshold int) *ConsistencyRule {
	return &ConsistencyRule{
		rule:          contracts.RuleFreeCashFlow,
		threshold:     threshold,
		series:        func(h *contracts.FinancialHistory) []contracts.AnnualValue { return h.FreeCashFlow },
		category:      contracts.CategoryNegativeFCF,
		format:        "Persistent Negative FCF: %d/%d years",
		trendCategory: contracts.CategoryFCFTrend,
		trendMessage:  "Accelerating Negative FCF Trend",
	}
}

// NewOperatingIncomeRule creates the operating income consistency rule
func NewOperatingIncomeRule(threshold int) *ConsistencyRule {
	return &ConsistencyRule{
		rule:      contracts.RuleOperatingIncome,
		threshold: threshold,
		series:    func(h *contracts.FinancialHistory) []contracts.AnnualValue { return h.OperatingIncome },
		category:  contracts.CategoryOperatingLoss,
		format:    "Persistent Operating Losses: %d/%d years",
	}
}

// Rule returns the rule name
func (r *ConsistencyRule) Rule() contracts.RuleName {
	return r.rule
}

// Evaluate counts negative years over the most recent history
func (r *ConsistencyRule) Evaluate(in Input) (Outcome, error) {
	values := recentYears(r.series(in.History), contracts.MaxHistoryYears)

	negative := 0
	for _, v := range values {
		if v.Value < 0 {
			negative++
		}
	}

	out := Outcome{
		Detail: contracts.TrendDetail{
			NegativeYears: negative,
			TotalYears:    len(values),
			Threshold:     r.threshold,
			Recent:        values,
		},
	}

	// 데이터 없음 → 기권
	if len(values) == 0 {
		return out, nil
	}

	if negative >= r.threshold && len(values) >= minConsistencyYears {
		out.Findings = append(out.Findings,
			finding(r.category, fmt.Sprintf(r.format, negative, len(values))))
	}

	if r.trendMessage != "" && isAcceleratingNegative(values) {
		out.Findings = append(out.Findings, finding(r.trendCategory, r.trendMessage))
	}

	return out, nil
}

// isAcceleratingNegative: 최근 3년 모두 음수이고 최신값 < 3년 중 가장 오래된 값
func isAcceleratingNegative(values []contracts.AnnualValue) bool {
	if len(values) < trendWindow {
		return false
	}

	recent := values[len(values)-trendWindow:]
	for _, v := range recent {
		if v.Value >= 0 {
			return false
		}
	}

	return recent[len(recent)-1].Value < recent[0].Value
}

// recentYears returns the last n entries of an oldest-first series
func recentYears(values []contracts.AnnualValue, n int) []contracts.AnnualValue {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
