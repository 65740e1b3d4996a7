package scoringconfig

import (
	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/config"
)

// Config is the immutable Scoring Configuration
// ⭐ SSOT: 임계값 + 카테고리별 페널티, 프로세스당 한 번 로드 후 값으로 전달
type Config struct {
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Penalties  Penalties  `yaml:"penalties" json:"penalties"`
}

// Thresholds are the rule decision thresholds
type Thresholds struct {
	MaxDebtToEBITDA                       float64 `yaml:"max_debt_to_ebitda" json:"max_debt_to_ebitda"`
	MinTradingVolume                      int64   `yaml:"min_trading_volume" json:"min_trading_volume"`
	FCFNegativeYearsThreshold             int     `yaml:"fcf_negative_years_threshold" json:"fcf_negative_years_threshold"`
	OperatingIncomeNegativeYearsThreshold int     `yaml:"operating_income_negative_years_threshold" json:"operating_income_negative_years_threshold"`
}

// Penalties are integer score adjustments (all <= 0)
type Penalties struct {
	SECFiling       int `yaml:"sec_filing" json:"sec_filing"`
	FCF             int `yaml:"fcf" json:"fcf"`
	OperatingLoss   int `yaml:"operating_loss" json:"operating_loss"`
	HighDebt        int `yaml:"high_debt" json:"high_debt"`
	NegativeEquity  int `yaml:"negative_equity" json:"negative_equity"`
	LowVolume       int `yaml:"low_volume" json:"low_volume"`
	OTC             int `yaml:"otc" json:"otc"`
	NewsRedFlag     int `yaml:"news_red_flag" json:"news_red_flag"`
	CorporateAction int `yaml:"corporate_action" json:"corporate_action"`
}

// BaseScore is the score of a company with no findings
const BaseScore = 100

// Default returns the built-in defaults
func Default() Config {
	return Config{
		Thresholds: Thresholds{
			MaxDebtToEBITDA:                       5.0,
			MinTradingVolume:                      50000,
			FCFNegativeYearsThreshold:             4,
			OperatingIncomeNegativeYearsThreshold: 4,
		},
		Penalties: Penalties{
			SECFiling:       -20,
			FCF:             -10,
			OperatingLoss:   -8,
			HighDebt:        -15,
			NegativeEquity:  -12,
			LowVolume:       -5,
			OTC:             -3,
			NewsRedFlag:     -7,
			CorporateAction: -5,
		},
	}
}

// FromAppConfig overlays the env-driven screening values on the defaults
func FromAppConfig(sc config.ScreeningConfig) Config {
	return Config{
		Thresholds: Thresholds{
			MaxDebtToEBITDA:                       sc.MaxDebtToEBITDA,
			MinTradingVolume:                      sc.MinTradingVolume,
			FCFNegativeYearsThreshold:             sc.FCFNegativeYearsThreshold,
			OperatingIncomeNegativeYearsThreshold: sc.OperatingIncomeNegativeYearsThreshold,
		},
		Penalties: Penalties{
			SECFiling:       sc.SECFilingPenalty,
			FCF:             sc.FCFPenalty,
			OperatingLoss:   sc.OperatingLossPenalty,
			HighDebt:        sc.HighDebtPenalty,
			NegativeEquity:  sc.NegativeEquityPenalty,
			LowVolume:       sc.LowVolumePenalty,
			OTC:             sc.OTCPenalty,
			NewsRedFlag:     sc.NewsRedFlagPenalty,
			CorporateAction: sc.CorporateActionPenalty,
		},
	}
}

// PenaltyFor returns the static penalty for a finding category.
// fcf_trend / debt_growth 는 정보성 (0), corporate_action 은 평가 시 계산된 값을 별도 합산.
func (c Config) PenaltyFor(category contracts.Category) (int, bool) {
	switch category {
	case contracts.CategoryFilingAbsence:
		return c.Penalties.SECFiling, true
	case contracts.CategoryNegativeFCF:
		return c.Penalties.FCF, true
	case contracts.CategoryFCFTrend:
		return 0, true
	case contracts.CategoryOperatingLoss:
		return c.Penalties.OperatingLoss, true
	case contracts.CategoryHighDebt:
		return c.Penalties.HighDebt, true
	case contracts.CategoryDebtGrowth:
		return 0, true
	case contracts.CategoryNegativeEquity:
		return c.Penalties.NegativeEquity, true
	case contracts.CategoryLowVolume:
		return c.Penalties.LowVolume, true
	case contracts.CategoryOTCExchange:
		return c.Penalties.OTC, true
	case contracts.CategoryNewsRedFlag:
		return c.Penalties.NewsRedFlag, true
	case contracts.CategoryCorporateAction:
		return 0, true
	default:
		return 0, false
	}
}
