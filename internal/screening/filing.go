package screening

import (
	"strings"

	"github.com/wonny/alphaforge/internal/contracts"
)

// FilingRecencyRule disqualifies companies without recent 10-K, 10-Q and 8-K filings
// ⭐ 유일한 실격(disqualify) 룰
type FilingRecencyRule struct{}

// NewFilingRecencyRule creates the filing recency rule
func NewFilingRecencyRule() *FilingRecencyRule {
	return &FilingRecencyRule{}
}

// Rule returns the rule name
func (r *FilingRecencyRule) Rule() contracts.RuleName {
	return contracts.RuleFilingRecency
}

// Evaluate checks every required form type
func (r *FilingRecencyRule) Evaluate(in Input) (Outcome, error) {
	// 공시 정보 자체가 없으면 기권 (실격 아님)
	if in.Filings == nil {
		return Outcome{Detail: contracts.FilingDetail{Available: false}}, nil
	}

	var missing []string
	for _, form := range contracts.RequiredForms {
		if !in.Filings[form] {
			missing = append(missing, form)
		}
	}

	out := Outcome{
		Detail: contracts.FilingDetail{
			Available: true,
			Status:    in.Filings,
			Missing:   missing,
		},
	}

	if len(missing) > 0 {
		out.Findings = []contracts.Finding{
			finding(contracts.CategoryFilingAbsence, "No Recent SEC Filings: "+strings.Join(missing, ", ")),
		}
		out.Disqualified = true
	}

	return out, nil
}
