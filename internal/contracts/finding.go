package contracts

// Category classifies a red flag finding for scoring
// ⭐ SSOT: 페널티 매핑은 카테고리 기준 (문자열 매칭 금지)
type Category string

const (
	CategoryFilingAbsence   Category = "filing_absence"
	CategoryNegativeFCF     Category = "negative_fcf"
	CategoryFCFTrend        Category = "fcf_trend"
	CategoryOperatingLoss   Category = "operating_loss"
	CategoryHighDebt        Category = "high_debt"
	CategoryDebtGrowth      Category = "debt_growth"
	CategoryNegativeEquity  Category = "negative_equity"
	CategoryLowVolume       Category = "low_volume"
	CategoryOTCExchange     Category = "otc_exchange"
	CategoryNewsRedFlag     Category = "news_red_flag"
	CategoryCorporateAction Category = "corporate_action"
)

// AllCategories returns every known category
func AllCategories() []Category {
	return []Category{
		CategoryFilingAbsence,
		CategoryNegativeFCF,
		CategoryFCFTrend,
		CategoryOperatingLoss,
		CategoryHighDebt,
		CategoryDebtGrowth,
		CategoryNegativeEquity,
		CategoryLowVolume,
		CategoryOTCExchange,
		CategoryNewsRedFlag,
		CategoryCorporateAction,
	}
}

// IsValid reports whether c is a known category
func (c Category) IsValid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// Finding is one red flag produced by exactly one rule
type Finding struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
}

// String returns the human-readable text
func (f Finding) String() string {
	return f.Message
}

// RuleName identifies a rule evaluator
type RuleName string

const (
	RuleFilingRecency   RuleName = "sec_filing"
	RuleFreeCashFlow    RuleName = "fcf_consistency"
	RuleOperatingIncome RuleName = "operating_income"
	RuleDebt            RuleName = "debt_analysis"
	RuleBalanceSheet    RuleName = "balance_sheet_health"
	RuleLiquidity       RuleName = "liquidity"
	RuleExchange        RuleName = "exchange_type"
	RuleNews            RuleName = "news_red_flags"
	RuleCorporateAction RuleName = "corporate_action"
)

// RuleOrder is the fixed execution order of the rule evaluators
func RuleOrder() []RuleName {
	return []RuleName{
		RuleFilingRecency,
		RuleFreeCashFlow,
		RuleOperatingIncome,
		RuleDebt,
		RuleBalanceSheet,
		RuleLiquidity,
		RuleExchange,
		RuleNews,
		RuleCorporateAction,
	}
}
