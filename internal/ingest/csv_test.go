package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/pkg/logger"
)

const screenerExport = "\ufeffTicker,Company Name,Price (Intraday),Market Cap,P/E Ratio (TTM),Free Cash Flow,Debt/Equity %,52 Week % Change\n" +
	"acme,Acme Corp,$12.50,1.2B,15.3,(300M),150%,-12.5%\n" +
	"N/A,Ghost,,,,,,\n" +
	",Blank,,,,,,\n" +
	"TINY,N/A,0.80,45M,N/A,--,20,8\n" +
	"ACME,Duplicate,1,1,1,1,1,1\n"

func TestReadCSV(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader(screenerExport))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	acme := rows[0]
	assert.Equal(t, "ACME", acme.Symbol)
	assert.Equal(t, "Acme Corp", acme.Name)
	assert.Equal(t, 12.5, *acme.Price)
	assert.InDelta(t, 1.2e9, *acme.MarketCap, 1)
	assert.Equal(t, 15.3, *acme.PERatio)
	assert.Equal(t, -300e6, *acme.FreeCashFlow)
	assert.InDelta(t, 1.5, *acme.DebtToEquity, 1e-9)
	assert.Equal(t, -12.5, *acme.PriceChange52W)

	tiny := rows[1]
	assert.Equal(t, "TINY", tiny.Symbol)
	assert.Empty(t, tiny.Name)
	assert.Nil(t, tiny.PERatio)
	assert.Nil(t, tiny.FreeCashFlow)
	assert.InDelta(t, 0.2, *tiny.DebtToEquity, 1e-9)
	assert.Equal(t, 45e6, *tiny.MarketCap)
}

func TestReadCSV_TickerOnly(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("symbol\nmsft\n aapl \n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "MSFT", rows[0].Symbol)
	assert.Equal(t, "AAPL", rows[1].Symbol)
	assert.Nil(t, rows[0].Price)
	assert.Nil(t, rows[0].DebtToEquity)
}

func TestReadCSV_RatioColumnIsNotScaled(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("Symbol,D/E Ratio\nACME,1.5\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1.5, *rows[0].DebtToEquity)
}

func TestReadCSV_NoTickerColumn(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty file", ""},
		{"no symbol header", "Name,Price\nAcme,10\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrNoTickerColumn)
		})
	}
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"1,234.5", ptr(1234.5)},
		{"$99", ptr(99)},
		{"12.5%", ptr(12.5)},
		{"(42)", ptr(-42)},
		{"2.5T", ptr(2.5e12)},
		{"3K", ptr(3000)},
		{"-7", ptr(-7)},
		{"N/A", nil},
		{"n/a", nil},
		{"--", nil},
		{"", nil},
		{"abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseNumeric(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-6)
		})
	}
}

func TestIngestRows_FillsMissingFields(t *testing.T) {
	repo := &fakeRepo{}
	// 시세 실패 → CSV 값 사용, 차트 종가는 그대로 우선
	market := &fakeMarket{quoteErr: errors.New("quote down")}
	ing := NewIngestor(repo, market, nil, nil, nil, logger.Nop())

	rows, err := ReadCSV(strings.NewReader(screenerExport))
	require.NoError(t, err)

	results := ing.IngestRows(context.Background(), rows)
	require.Len(t, results, 2)
	assert.Equal(t, "ACME", results[0].Symbol)
	assert.Equal(t, []string{SourceQuote}, results[0].Skipped)

	s := repo.snapshots[0]
	assert.Equal(t, "Acme Corp", s.Name)
	assert.Equal(t, 60.0, *s.Price)
	assert.InDelta(t, 50.0, *s.PriceChange52W, 1e-9)
	assert.InDelta(t, 1.2e9, *s.MarketCap, 1)
	assert.Equal(t, 15.3, *s.PERatio)
	assert.Equal(t, -300e6, *s.FreeCashFlow)
	assert.InDelta(t, 1.5, *s.DebtToEquity, 1e-9)
}

func TestIngestRows_LiveSourcesWin(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, &fakeMarket{}, &fakeFilings{ebitda: 500}, nil, nil, logger.Nop())

	rows := []CSVRow{{Symbol: "ACME", Name: "From CSV", Price: ptr(1), DebtToEquity: ptr(9)}}
	results := ing.IngestRows(context.Background(), rows)
	require.NoError(t, results[0].Error)

	s := repo.snapshots[0]
	assert.Equal(t, "ACME Corp", s.Name)
	assert.Equal(t, 50.0, *s.Price)
	assert.Equal(t, 0.5, *s.DebtToEquity)
}

func TestIngestRows_CanceledContext(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, &fakeMarket{}, nil, nil, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ing.IngestRows(ctx, []CSVRow{{Symbol: "AAA"}})
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
	assert.Empty(t, repo.snapshots)
}

func ptr(v float64) *float64 { return &v }
