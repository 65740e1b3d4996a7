package screening

import (
	"github.com/wonny/alphaforge/internal/contracts"
)

// CorporateActionRule penalizes recent splits / reverse splits.
// 확정(confirmed) = 전체 페널티, 추정(potential) = 절반
type CorporateActionRule struct {
	penalty int
}

// NewCorporateActionRule creates the corporate action rule
func NewCorporateActionRule(penalty int) *CorporateActionRule {
	return &CorporateActionRule{penalty: penalty}
}

// Rule returns the rule name
func (r *CorporateActionRule) Rule() contracts.RuleName {
	return contracts.RuleCorporateAction
}

// Evaluate computes the per-evaluation corporate action penalty
func (r *CorporateActionRule) Evaluate(in Input) (Outcome, error) {
	ca := in.Snapshot.CorporateActions
	confirmed := ca.IsConfirmed()
	potential := ca.PotentialActionDetected

	penalty := 0
	switch {
	case confirmed:
		penalty = r.penalty
	case potential:
		penalty = r.penalty / 2
	}

	var findings []contracts.Finding
	if confirmed || potential {
		// 이미 누적된 finding 과 같은 문구는 추가하지 않음
		seen := make(map[string]bool, len(in.Prior)+len(ca.Flags))
		for _, f := range in.Prior {
			seen[f.Message] = true
		}
		for _, flag := range ca.Flags {
			if seen[flag] {
				continue
			}
			seen[flag] = true
			findings = append(findings, finding(contracts.CategoryCorporateAction, flag))
		}
	}

	return Outcome{
		Findings:               findings,
		CorporateActionPenalty: penalty,
		Detail: contracts.CorporateActionDetail{
			Confirmed:  confirmed,
			Potential:  potential,
			SplitCount: ca.SplitCount,
			Penalty:    penalty,
			Splits:     ca.RecentSplits,
		},
	}, nil
}
