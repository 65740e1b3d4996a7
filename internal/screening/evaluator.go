package screening

import (
	"errors"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
)

var (
	// ErrSnapshotLoad is returned when a company snapshot cannot be loaded
	ErrSnapshotLoad = errors.New("snapshot load failed")

	// ErrPersist is returned when a computed result cannot be saved
	ErrPersist = errors.New("persist screening result failed")

	// ErrUnclassifiedFinding is returned when a finding has no known category
	ErrUnclassifiedFinding = errors.New("unclassified finding")
)

// Input is everything a rule evaluator may read.
// 평가기는 입력을 절대 수정하지 않음
type Input struct {
	Snapshot *contracts.CompanySnapshot
	History  *contracts.FinancialHistory // never nil
	Filings  contracts.FilingStatus      // nil = filing data unavailable
	News     []contracts.NewsRedFlag     // most recent first

	// Prior holds the findings of the rules that ran earlier (read-only)
	Prior []contracts.Finding
}

// Outcome is the contribution of one evaluator
type Outcome struct {
	Findings []contracts.Finding

	// Disqualified is honored only from the filing recency rule
	Disqualified bool

	// CorporateActionPenalty is honored only from the corporate action rule
	CorporateActionPenalty int

	Detail contracts.RuleDetail
}

// Evaluator is one independent quality rule
type Evaluator interface {
	Rule() contracts.RuleName
	Evaluate(in Input) (Outcome, error)
}

// DefaultEvaluators returns the nine rules in execution order
// ⭐ 순서 고정: 결과 목록의 표시 순서를 결정함
func DefaultEvaluators(cfg scoringconfig.Config) []Evaluator {
	return []Evaluator{
		NewFilingRecencyRule(),
		NewFreeCashFlowRule(cfg.Thresholds.FCFNegativeYearsThreshold),
		NewOperatingIncomeRule(cfg.Thresholds.OperatingIncomeNegativeYearsThreshold),
		NewDebtRule(cfg.Thresholds.MaxDebtToEBITDA),
		NewBalanceSheetRule(),
		NewLiquidityRule(cfg.Thresholds.MinTradingVolume),
		NewExchangeRule(),
		NewNewsRule(),
		NewCorporateActionRule(cfg.Penalties.CorporateAction),
	}
}

func finding(category contracts.Category, message string) contracts.Finding {
	return contracts.Finding{Category: category, Message: message}
}
