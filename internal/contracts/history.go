package contracts

import "time"

// MaxHistoryYears is the number of fiscal years read per statement kind
const MaxHistoryYears = 5

// StatementType identifies a stored financial statement kind
type StatementType string

const (
	StatementIncome       StatementType = "income"
	StatementBalanceSheet StatementType = "balance_sheet"
	StatementCashFlow     StatementType = "cash_flow"
)

// AnnualValue is one fiscal-year value of a statement line item
type AnnualValue struct {
	FiscalYear int     `json:"fiscal_year"`
	Value      float64 `json:"value"`
}

// FinancialHistory holds up to MaxHistoryYears annual values per series
// ⭐ 모든 시리즈는 오래된 연도 → 최근 연도 순 (oldest first)
type FinancialHistory struct {
	FreeCashFlow    []AnnualValue `json:"free_cash_flow"`
	OperatingIncome []AnnualValue `json:"operating_income"`
	TotalDebt       []AnnualValue `json:"total_debt"`
	Revenue         []AnnualValue `json:"revenue"`
}

// Statement is one stored annual statement (line item name → value)
type Statement struct {
	CompanyID  int64              `json:"company_id"`
	Type       StatementType      `json:"statement_type"`
	FiscalYear int                `json:"fiscal_year"`
	PeriodEnd  time.Time          `json:"period_end,omitempty"`
	Data       map[string]float64 `json:"statement_data"`
}

// SEC form types tracked by the filing recency check
const (
	Form10K    = "10-K"
	Form10Q    = "10-Q"
	Form8K     = "8-K"
	FormDEF14A = "DEF 14A"
)

// RequiredForms must all be present for a company to stay qualified
var RequiredForms = []string{Form10K, Form10Q, Form8K}

// TrackedForms are the forms reported by the filing collaborator
var TrackedForms = []string{Form10K, Form10Q, Form8K, FormDEF14A}

// FilingStatus maps form type → filed within the recency window
// nil = 정보 없음 (룰 기권), 키 없음 = 미제출
type FilingStatus map[string]bool

// Filing is one SEC filing record
type Filing struct {
	CompanyID       int64     `json:"company_id"`
	AccessionNumber string    `json:"accession_number"`
	FormType        string    `json:"form_type"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date,omitempty"`
	DocumentURL     string    `json:"document_url,omitempty"`
}

// NewsItem is one stored news article
type NewsItem struct {
	CompanyID       int64     `json:"company_id"`
	Headline        string    `json:"headline"`
	Summary         string    `json:"summary,omitempty"`
	URL             string    `json:"url,omitempty"`
	Source          string    `json:"source,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	RedFlagKeywords []string  `json:"red_flag_keywords"`
}

// NewsRedFlag is a news item already tagged with matched red flag keywords
type NewsRedFlag struct {
	Headline    string    `json:"headline"`
	Keywords    []string  `json:"keywords"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
}
