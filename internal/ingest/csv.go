package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wonny/alphaforge/internal/contracts"
)

// ErrNoTickerColumn is returned when no header names a symbol column
var ErrNoTickerColumn = errors.New("no ticker/symbol column")

// CSVRow is one screener-export line. Numeric fields are nil when the
// column is absent or the cell does not parse.
type CSVRow struct {
	Symbol         string
	Name           string
	Price          *float64
	MarketCap      *float64
	PERatio        *float64
	FreeCashFlow   *float64
	DebtToEquity   *float64 // 비율 (헤더에 % 가 있으면 /100)
	PriceChange52W *float64 // %
}

// 헤더 후보 (대소문자 무시, 앞에 있을수록 우선)
var (
	tickerHeaders = []string{"symbol", "ticker", "stock symbol", "ticker symbol"}

	nameHeaders      = []string{"name", "company name", "company_name", "company"}
	priceHeaders     = []string{"price (intraday)", "price", "current price", "last price"}
	marketCapHeaders = []string{"market cap", "market capitalization", "market_cap", "mkt cap"}
	peHeaders        = []string{"p/e ratio (ttm)", "p/e ratio", "pe ratio", "pe_ratio", "p/e"}
	fcfHeaders       = []string{"free cash flow", "fcf", "free_cash_flow", "unlevered (before expenses) free cash flow"}
	deHeaders        = []string{"debt/equity %", "debt/equity", "d/e ratio", "d/e", "debt_equity", "debt-to-equity"}
	change52WHeaders = []string{"52 week % change", "52w change", "52-week change", "52 week price % change"}
)

// missing cell markers
var emptyCells = map[string]bool{"": true, "N/A": true, "NA": true, "--": true, "-": true}

// ReadCSV parses a screener export. Only the ticker column is required;
// rows with an empty or N/A ticker are skipped.
func ReadCSV(r io.Reader) ([]CSVRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoTickerColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := indexHeader(header)
	tickerCol := cols.find(tickerHeaders)
	if tickerCol < 0 {
		return nil, fmt.Errorf("%w (columns: %s)", ErrNoTickerColumn, strings.Join(header, ", "))
	}

	nameCol := cols.find(nameHeaders)
	priceCol := cols.find(priceHeaders)
	capCol := cols.find(marketCapHeaders)
	peCol := cols.find(peHeaders)
	fcfCol := cols.find(fcfHeaders)
	deCol := cols.find(deHeaders)
	changeCol := cols.find(change52WHeaders)
	dePercent := deCol >= 0 && strings.Contains(header[deCol], "%")

	var rows []CSVRow
	seen := make(map[string]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		symbol := strings.ToUpper(cell(record, tickerCol))
		if emptyCells[symbol] || seen[symbol] {
			continue
		}
		seen[symbol] = true

		row := CSVRow{
			Symbol:         symbol,
			Price:          ParseNumeric(cell(record, priceCol)),
			MarketCap:      ParseNumeric(cell(record, capCol)),
			PERatio:        ParseNumeric(cell(record, peCol)),
			FreeCashFlow:   ParseNumeric(cell(record, fcfCol)),
			DebtToEquity:   ParseNumeric(cell(record, deCol)),
			PriceChange52W: ParseNumeric(cell(record, changeCol)),
		}
		if name := cell(record, nameCol); !emptyCells[strings.ToUpper(name)] {
			row.Name = name
		}
		if dePercent && row.DebtToEquity != nil {
			*row.DebtToEquity /= 100
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// ParseNumeric reads "$1,234", "12.5%", "(300)" and "1.2B" style cells.
// Returns nil for missing markers and anything that does not parse.
func ParseNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if emptyCells[strings.ToUpper(s)] {
		return nil
	}

	negative := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	s = strings.NewReplacer("$", "", ",", "", "%", "", "(", "", ")", "", " ", "").Replace(s)

	multiplier := 1.0
	if n := len(s); n > 0 {
		switch s[n-1] {
		case 'T', 't':
			multiplier = 1e12
		case 'B', 'b':
			multiplier = 1e9
		case 'M', 'm':
			multiplier = 1e6
		case 'K', 'k':
			multiplier = 1e3
		}
		if multiplier != 1 {
			s = s[:n-1]
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	v *= multiplier
	if negative {
		v = -v
	}
	return contracts.Float64(v)
}

// overlay fills snapshot fields the live sources left empty
func (row *CSVRow) overlay(s *contracts.CompanySnapshot) {
	if row == nil {
		return
	}
	if s.Name == "" {
		s.Name = row.Name
	}
	fill := func(dst **float64, src *float64) {
		if *dst == nil && src != nil {
			*dst = contracts.Float64(*src)
		}
	}
	fill(&s.Price, row.Price)
	fill(&s.MarketCap, row.MarketCap)
	fill(&s.PERatio, row.PERatio)
	fill(&s.FreeCashFlow, row.FreeCashFlow)
	fill(&s.DebtToEquity, row.DebtToEquity)
	fill(&s.PriceChange52W, row.PriceChange52W)
}

type headerIndex map[string]int

func indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

func (idx headerIndex) find(candidates []string) int {
	for _, c := range candidates {
		if i, ok := idx[c]; ok {
			return i
		}
	}
	return -1
}

func cell(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}
