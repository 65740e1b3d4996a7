package contracts

import (
	"encoding/json"
	"time"
)

// ScreeningResult is the engine output for one company
// ⭐ SSOT: 매 실행마다 새로 생성, 이전 결과와 병합하지 않음
type ScreeningResult struct {
	CompanyID    int64                   `json:"company_id"`
	Symbol       string                  `json:"symbol"`
	Findings     []Finding               `json:"findings"` // 룰 실행 순서 그대로
	Disqualified bool                    `json:"disqualified"`
	QualityScore int                     `json:"quality_score"`
	Details      map[RuleName]RuleDetail `json:"details"`
}

// RedFlags returns the finding texts in order
func (r *ScreeningResult) RedFlags() []string {
	flags := make([]string, len(r.Findings))
	for i, f := range r.Findings {
		flags[i] = f.Message
	}
	return flags
}

// HasFinding reports whether any finding has the given category
func (r *ScreeningResult) HasFinding(category Category) bool {
	for _, f := range r.Findings {
		if f.Category == category {
			return true
		}
	}
	return false
}

// RuleDetail is the per-rule audit record stored in ScreeningResult.Details
// sealed: contracts 패키지 밖에서 구현 불가
type RuleDetail interface {
	ruleDetail()
}

// FilingDetail records the filing recency inputs
type FilingDetail struct {
	Available bool         `json:"available"`
	Status    FilingStatus `json:"status,omitempty"`
	Missing   []string     `json:"missing,omitempty"`
}

// TrendDetail records a negative-years consistency check (FCF, operating income)
type TrendDetail struct {
	NegativeYears int           `json:"negative_years"`
	TotalYears    int           `json:"total_years"`
	Threshold     int           `json:"threshold"`
	Recent        []AnnualValue `json:"recent"`
}

// DebtDetail records the debt burden and growth inputs
type DebtDetail struct {
	NetDebtToEBITDA *float64    `json:"net_debt_to_ebitda"`
	MaxDebtToEBITDA float64     `json:"max_debt_to_ebitda"`
	Growth          *DebtGrowth `json:"debt_growth,omitempty"`
}

// DebtGrowth is year-over-year debt vs revenue growth in percent
type DebtGrowth struct {
	FiscalYear    int     `json:"fiscal_year"` // 비교 기준 연도 (전년 대비)
	YoYGrowth     float64 `json:"yoy_growth"`
	RevenueGrowth float64 `json:"revenue_growth"`
	CurrentDebt   float64 `json:"current_debt"`
	PreviousDebt  float64 `json:"previous_debt"`
}

// BalanceSheetDetail records shareholder equity
type BalanceSheetDetail struct {
	ShareholderEquity *float64 `json:"shareholder_equity"`
}

// LiquidityDetail records trading volume
type LiquidityDetail struct {
	AvgDailyVolume *int64 `json:"avg_daily_volume"`
	MinThreshold   int64  `json:"min_threshold"`
}

// ExchangeDetail records the exchange classification
type ExchangeDetail struct {
	Exchange string `json:"exchange"`
	IsOTC    bool   `json:"is_otc"`
}

// NewsDetail records the red flag news considered
type NewsDetail struct {
	RedFlagCount int           `json:"red_flag_count"`
	Items        []NewsRedFlag `json:"items,omitempty"`
}

// CorporateActionDetail records the corporate action verdict
type CorporateActionDetail struct {
	Confirmed  bool         `json:"confirmed"`
	Potential  bool         `json:"potential"`
	SplitCount int          `json:"split_count"`
	Penalty    int          `json:"penalty"`
	Splits     []SplitEvent `json:"splits,omitempty"`
}

// EvaluatorFailure records a rule that failed and contributed nothing
type EvaluatorFailure struct {
	Error string `json:"error"`
}

func (FilingDetail) ruleDetail()          {}
func (TrendDetail) ruleDetail()           {}
func (DebtDetail) ruleDetail()            {}
func (BalanceSheetDetail) ruleDetail()    {}
func (LiquidityDetail) ruleDetail()       {}
func (ExchangeDetail) ruleDetail()        {}
func (NewsDetail) ruleDetail()            {}
func (CorporateActionDetail) ruleDetail() {}
func (EvaluatorFailure) ruleDetail()      {}

// StoredResult is a screening result as persisted on the company row
type StoredResult struct {
	CompanyID    int64           `json:"company_id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name,omitempty"`
	RedFlags     []string        `json:"red_flags"`
	Disqualified bool            `json:"disqualified"`
	QualityScore int             `json:"quality_score"`
	Details      json.RawMessage `json:"details,omitempty"`
	ScreenedAt   time.Time       `json:"screened_at"`
}

// ResultFilter narrows ListResults
type ResultFilter struct {
	Disqualified *bool
	MinScore     *int
}
