package contracts

import "time"

// CompanySnapshot is the normalized current-state view of one company
// ⭐ SSOT: 스크리닝 엔진이 읽는 유일한 회사 데이터 형태
//
// 모든 수치 필드는 optional (nil = 데이터 없음, 0과 다름)
type CompanySnapshot struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Exchange string `json:"exchange,omitempty"`

	MarketCap         *float64 `json:"market_cap,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	PERatio           *float64 `json:"pe_ratio,omitempty"`
	FreeCashFlow      *float64 `json:"free_cash_flow,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	PriceChange52W    *float64 `json:"price_change_52w,omitempty"`
	AvgDailyVolume    *int64   `json:"avg_daily_volume,omitempty"`
	NetDebtToEBITDA   *float64 `json:"net_debt_to_ebitda,omitempty"`
	TotalDebt         *float64 `json:"total_debt,omitempty"`
	ShareholderEquity *float64 `json:"shareholder_equity,omitempty"`

	CorporateActions CorporateActions `json:"corporate_actions"`

	IngestedAt time.Time `json:"ingested_at,omitempty"`
}

// CorporateActions holds split / reverse split detection results
type CorporateActions struct {
	// Confirmed (split history)
	HasRecentSplits bool         `json:"has_recent_splits"`
	SplitCount      int          `json:"split_count"`
	RecentSplits    []SplitEvent `json:"recent_splits,omitempty"`

	// Heuristic (price pattern)
	PotentialActionDetected bool `json:"potential_action_detected"`

	// Flags are finding texts prepared at ingestion time
	Flags []string `json:"flags,omitempty"`
}

// Confidence levels for corporate action detection
const (
	ConfidenceHigh = "HIGH"
	ConfidenceLow  = "LOW" // 가격 패턴 추정, 수동 확인 필요
)

// SplitEvent is one split or reverse split
type SplitEvent struct {
	Date       time.Time `json:"date"`
	Ratio      float64   `json:"ratio"`
	Type       string    `json:"type"` // "Stock Split" | "Reverse Split" (+ "Potential ..." when detected)
	Confidence string    `json:"confidence"`
}

// IsConfirmed reports whether the split history itself shows a recent action
func (c CorporateActions) IsConfirmed() bool {
	return c.HasRecentSplits && c.SplitCount > 0
}

// Float64 returns a pointer to v (snapshot literal helper)
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v
func Int64(v int64) *int64 { return &v }
