package companydata

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/wonny/alphaforge/internal/contracts"
)

// Line item names tried in order when reading stored statements (first match wins)
// ⭐ SSOT: 재무제표 항목 추출 규칙은 여기서만
var (
	FreeCashFlowItems = []string{
		"Free Cash Flow",
		"FreeCashFlow",
		"Operating Cash Flow",
		"OperatingCashFlow",
		"Net Cash from Operations",
	}

	OperatingIncomeItems = []string{
		"Operating Income",
		"OperatingIncome",
		"EBIT",
		"Operating Profit",
		"Income from Operations",
	}

	TotalDebtItems = []string{
		"Total Debt",
		"TotalDebt",
		"Long Term Debt",
		"Short Term Debt",
		"Total Liabilities",
	}

	RevenueItems = []string{
		"Total Revenue",
		"TotalRevenue",
		"Revenue",
		"Net Sales",
		"Sales",
	}
)

// ExtractLineItem returns the first present line item.
// 항목이 없으면 false (0으로 채우지 않음)
func ExtractLineItem(data map[string]float64, items []string) (float64, bool) {
	for _, item := range items {
		if v, ok := data[item]; ok {
			return v, true
		}
	}
	return 0, false
}

// statementRow is one stored statement as read from either database
type statementRow struct {
	statementType contracts.StatementType
	fiscalYear    int
	data          map[string]float64
}

// decodeStatementData parses statement_data JSON; numeric strings are accepted
func decodeStatementData(raw []byte) (map[string]float64, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("decode statement data: %w", err)
	}

	data := make(map[string]float64, len(generic))
	for k, v := range generic {
		switch n := v.(type) {
		case float64:
			data[k] = n
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				data[k] = f
			}
		}
	}
	return data, nil
}

// buildHistory turns stored statements into oldest-first series
func buildHistory(rows []statementRow) *contracts.FinancialHistory {
	byType := make(map[contracts.StatementType][]statementRow)
	for _, r := range rows {
		byType[r.statementType] = append(byType[r.statementType], r)
	}

	return &contracts.FinancialHistory{
		FreeCashFlow:    extractSeries(byType[contracts.StatementCashFlow], FreeCashFlowItems),
		OperatingIncome: extractSeries(byType[contracts.StatementIncome], OperatingIncomeItems),
		TotalDebt:       extractSeries(byType[contracts.StatementBalanceSheet], TotalDebtItems),
		Revenue:         extractSeries(byType[contracts.StatementIncome], RevenueItems),
	}
}

// extractSeries keeps the MaxHistoryYears most recent years that carry the item
func extractSeries(rows []statementRow, items []string) []contracts.AnnualValue {
	sorted := make([]statementRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].fiscalYear < sorted[j].fiscalYear })

	if len(sorted) > contracts.MaxHistoryYears {
		sorted = sorted[len(sorted)-contracts.MaxHistoryYears:]
	}

	series := make([]contracts.AnnualValue, 0, len(sorted))
	for _, r := range sorted {
		if v, ok := ExtractLineItem(r.data, items); ok {
			series = append(series, contracts.AnnualValue{FiscalYear: r.fiscalYear, Value: v})
		}
	}
	return series
}

// encodeResult serializes the persisted parts of a screening result
func encodeResult(result *contracts.ScreeningResult) (redFlags []byte, details []byte, err error) {
	redFlags, err = json.Marshal(result.RedFlags())
	if err != nil {
		return nil, nil, fmt.Errorf("marshal red flags: %w", err)
	}
	details, err = json.Marshal(result.Details)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal screening details: %w", err)
	}
	return redFlags, details, nil
}

func encodeCorporateActions(ca contracts.CorporateActions) ([]byte, error) {
	data, err := json.Marshal(ca)
	if err != nil {
		return nil, fmt.Errorf("marshal corporate actions: %w", err)
	}
	return data, nil
}

func decodeCorporateActions(raw []byte) (contracts.CorporateActions, error) {
	var ca contracts.CorporateActions
	if len(raw) == 0 {
		return ca, nil
	}
	if err := json.Unmarshal(raw, &ca); err != nil {
		return ca, fmt.Errorf("decode corporate actions: %w", err)
	}
	return ca, nil
}

func decodeStrings(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeStrings(values []string) ([]byte, error) {
	if values == nil {
		values = []string{}
	}
	return json.Marshal(values)
}
