package edgar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/alphaforge/internal/contracts"
)

// us-gaap concepts read from company facts (first available wins per year)
// ⭐ SSOT: XBRL 항목 매핑은 여기서만
var (
	operatingCashFlowConcepts = []string{"NetCashProvidedByUsedInOperatingActivities", "NetCashProvidedByUsedInOperatingActivitiesContinuingOperations"}
	capexConcepts             = []string{"PaymentsToAcquirePropertyPlantAndEquipment", "PaymentsToAcquireProductiveAssets"}
	operatingIncomeConcepts   = []string{"OperatingIncomeLoss"}
	revenueConcepts           = []string{"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"}
	depreciationConcepts      = []string{"DepreciationDepletionAndAmortization", "DepreciationAndAmortization", "DepreciationAmortizationAndAccretionNet"}
	equityConcepts            = []string{"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"}

	longTermDebtNoncurrentConcepts = []string{"LongTermDebtNoncurrent"}
	longTermDebtTotalConcepts      = []string{"LongTermDebt"}
	currentDebtConcepts            = []string{"LongTermDebtCurrent", "DebtCurrent"}
	shortTermBorrowingConcepts     = []string{"ShortTermBorrowings"}
)

// Statement line item names written to statement_data
const (
	ItemOperatingCashFlow  = "Operating Cash Flow"
	ItemCapitalExpenditure = "Capital Expenditure"
	ItemFreeCashFlow       = "Free Cash Flow"
	ItemOperatingIncome    = "Operating Income"
	ItemTotalRevenue       = "Total Revenue"
	ItemDepreciation       = "Depreciation And Amortization"
	ItemEBITDA             = "EBITDA"
	ItemTotalDebt          = "Total Debt"
	ItemStockholdersEquity = "Stockholders Equity"
)

type factEntry struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
}

type factConcept struct {
	Units map[string][]factEntry `json:"units"`
}

type companyFacts struct {
	EntityName string                            `json:"entityName"`
	Facts      map[string]map[string]factConcept `json:"facts"`
}

// AnnualFinancials is one fiscal year assembled from company facts (nil = not reported)
type AnnualFinancials struct {
	FiscalYear         int
	OperatingCashFlow  *float64
	CapitalExpenditure *float64
	FreeCashFlow       *float64
	OperatingIncome    *float64
	Revenue            *float64
	Depreciation       *float64
	EBITDA             *float64
	TotalDebt          *float64
	StockholdersEquity *float64
}

// Financials holds up to contracts.MaxHistoryYears fiscal years, oldest first
type Financials struct {
	EntityName string
	Years      []AnnualFinancials
}

// Latest returns the most recent fiscal year, or nil
func (f *Financials) Latest() *AnnualFinancials {
	if f == nil || len(f.Years) == 0 {
		return nil
	}
	return &f.Years[len(f.Years)-1]
}

// FetchFinancials downloads XBRL company facts and builds annual financials
func (c *Client) FetchFinancials(ctx context.Context, cik string) (*Financials, error) {
	var facts companyFacts
	url := fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.dataURL, cik)
	if err := c.getJSON(ctx, url, &facts); err != nil {
		return nil, fmt.Errorf("fetch company facts: %w", err)
	}

	fin := buildFinancials(facts)

	c.logger.WithFields(map[string]interface{}{
		"cik":   cik,
		"years": len(fin.Years),
	}).Debug("Built financials from company facts")

	return fin, nil
}

func buildFinancials(facts companyFacts) *Financials {
	gaap := facts.Facts["us-gaap"]

	ocf := annualSeries(gaap, operatingCashFlowConcepts, true)
	capex := annualSeries(gaap, capexConcepts, true)
	opIncome := annualSeries(gaap, operatingIncomeConcepts, true)
	revenue := annualSeries(gaap, revenueConcepts, true)
	dna := annualSeries(gaap, depreciationConcepts, true)
	equity := annualSeries(gaap, equityConcepts, false)
	ltNoncurrent := annualSeries(gaap, longTermDebtNoncurrentConcepts, false)
	ltTotal := annualSeries(gaap, longTermDebtTotalConcepts, false)
	current := annualSeries(gaap, currentDebtConcepts, false)
	shortTerm := annualSeries(gaap, shortTermBorrowingConcepts, false)

	yearSet := make(map[int]bool)
	for _, s := range []map[int]float64{ocf, capex, opIncome, revenue, dna, equity, ltNoncurrent, ltTotal, current, shortTerm} {
		for y := range s {
			yearSet[y] = true
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)
	if len(years) > contracts.MaxHistoryYears {
		years = years[len(years)-contracts.MaxHistoryYears:]
	}

	fin := &Financials{EntityName: facts.EntityName}
	for _, y := range years {
		a := AnnualFinancials{
			FiscalYear:         y,
			OperatingCashFlow:  lookup(ocf, y),
			CapitalExpenditure: lookup(capex, y),
			OperatingIncome:    lookup(opIncome, y),
			Revenue:            lookup(revenue, y),
			Depreciation:       lookup(dna, y),
			StockholdersEquity: lookup(equity, y),
			TotalDebt:          totalDebt(y, ltNoncurrent, ltTotal, current, shortTerm),
		}

		// FCF = 영업현금흐름 - 설비투자
		if a.OperatingCashFlow != nil && a.CapitalExpenditure != nil {
			a.FreeCashFlow = contracts.Float64(*a.OperatingCashFlow - *a.CapitalExpenditure)
		}
		// EBITDA = 영업이익 + 감가상각
		if a.OperatingIncome != nil && a.Depreciation != nil {
			a.EBITDA = contracts.Float64(*a.OperatingIncome + *a.Depreciation)
		}

		fin.Years = append(fin.Years, a)
	}

	return fin
}

// totalDebt sums the reported debt components of one year (nil if none reported)
func totalDebt(y int, ltNoncurrent, ltTotal, current, shortTerm map[int]float64) *float64 {
	var sum float64
	found := false

	add := func(m map[int]float64) {
		if v, ok := m[y]; ok {
			sum += v
			found = true
		}
	}

	// LongTermDebt는 유동성 장기부채 포함
	if _, ok := ltNoncurrent[y]; ok {
		add(ltNoncurrent)
		add(current)
	} else {
		add(ltTotal)
	}
	add(shortTerm)

	if !found {
		return nil
	}
	return &sum
}

// annualSeries maps fiscal year (year of period end) → value from 10-K facts.
// duration=true keeps ~1 year periods only (10-K에 분기 값도 섞여 있음)
func annualSeries(gaap map[string]factConcept, concepts []string, duration bool) map[int]float64 {
	out := make(map[int]float64)

	for _, name := range concepts {
		concept, ok := gaap[name]
		if !ok {
			continue
		}

		best := make(map[int]factEntry)
		for _, e := range concept.Units["USD"] {
			if (e.Form != "10-K" && e.Form != "10-K/A") || e.FP != "FY" {
				continue
			}

			end, err := time.Parse("2006-01-02", e.End)
			if err != nil {
				continue
			}

			if duration {
				start, err := time.Parse("2006-01-02", e.Start)
				if err != nil {
					continue
				}
				days := end.Sub(start).Hours() / 24
				if days < 330 || days > 400 {
					continue
				}
			} else if e.Start != "" {
				continue
			}

			// 정정 공시가 있으면 최신 filed 우선
			y := end.Year()
			if prev, ok := best[y]; !ok || e.Filed > prev.Filed {
				best[y] = e
			}
		}

		// 앞선 concept이 이미 채운 연도는 유지
		for y, e := range best {
			if _, exists := out[y]; !exists {
				out[y] = e.Val
			}
		}
	}

	return out
}

func lookup(m map[int]float64, y int) *float64 {
	if v, ok := m[y]; ok {
		return contracts.Float64(v)
	}
	return nil
}

// Statements converts financials into stored annual statements
func (f *Financials) Statements(companyID int64) []contracts.Statement {
	var out []contracts.Statement

	for _, a := range f.Years {
		cash := map[string]float64{}
		put(cash, ItemOperatingCashFlow, a.OperatingCashFlow)
		put(cash, ItemCapitalExpenditure, a.CapitalExpenditure)
		put(cash, ItemFreeCashFlow, a.FreeCashFlow)

		income := map[string]float64{}
		put(income, ItemOperatingIncome, a.OperatingIncome)
		put(income, ItemTotalRevenue, a.Revenue)
		put(income, ItemDepreciation, a.Depreciation)
		put(income, ItemEBITDA, a.EBITDA)

		balance := map[string]float64{}
		put(balance, ItemTotalDebt, a.TotalDebt)
		put(balance, ItemStockholdersEquity, a.StockholdersEquity)

		for _, st := range []struct {
			typ  contracts.StatementType
			data map[string]float64
		}{
			{contracts.StatementCashFlow, cash},
			{contracts.StatementIncome, income},
			{contracts.StatementBalanceSheet, balance},
		} {
			if len(st.data) == 0 {
				continue
			}
			out = append(out, contracts.Statement{
				CompanyID:  companyID,
				Type:       st.typ,
				FiscalYear: a.FiscalYear,
				Data:       st.data,
			})
		}
	}

	return out
}

func put(m map[string]float64, key string, v *float64) {
	if v != nil {
		m[key] = *v
	}
}
