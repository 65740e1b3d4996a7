package scoringconfig

import (
	"fmt"

	"github.com/wonny/alphaforge/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg Config) error {
	// === Thresholds ===
	t := cfg.Thresholds
	if t.MaxDebtToEBITDA <= 0 {
		return ValidationError{"thresholds.max_debt_to_ebitda", "must be > 0"}
	}
	if t.MinTradingVolume <= 0 {
		return ValidationError{"thresholds.min_trading_volume", "must be > 0"}
	}
	if err := validateYears(t.FCFNegativeYearsThreshold); err != nil {
		return ValidationError{"thresholds.fcf_negative_years_threshold", err.Error()}
	}
	if err := validateYears(t.OperatingIncomeNegativeYearsThreshold); err != nil {
		return ValidationError{"thresholds.operating_income_negative_years_threshold", err.Error()}
	}

	// === Penalties ===
	p := cfg.Penalties
	penalties := []struct {
		field string
		value int
	}{
		{"penalties.sec_filing", p.SECFiling},
		{"penalties.fcf", p.FCF},
		{"penalties.operating_loss", p.OperatingLoss},
		{"penalties.high_debt", p.HighDebt},
		{"penalties.negative_equity", p.NegativeEquity},
		{"penalties.low_volume", p.LowVolume},
		{"penalties.otc", p.OTC},
		{"penalties.news_red_flag", p.NewsRedFlag},
		{"penalties.corporate_action", p.CorporateAction},
	}
	for _, pen := range penalties {
		if pen.value > 0 {
			return ValidationError{pen.field, "must be <= 0"}
		}
	}

	return nil
}

// 임계 연수는 조회 가능한 최대 연수 안이어야 함
func validateYears(v int) error {
	if v < 1 || v > contracts.MaxHistoryYears {
		return fmt.Errorf("must be in [1, %d]", contracts.MaxHistoryYears)
	}
	return nil
}
