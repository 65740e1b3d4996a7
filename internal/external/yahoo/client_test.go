package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/corpaction"
	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
)

func newTestClient(chartURL string) *Client {
	httpClient := httputil.New(&config.Config{}, logger.Nop()).DisableRetry()
	return NewClient(httpClient, config.YahooConfig{ChartURL: chartURL, RateLimit: 1000}, logger.Nop())
}

func TestFetchQuote(t *testing.T) {
	client := newTestClient("http://unused")

	var asked string
	client.equityGet = func(symbol string) (*finance.Equity, error) {
		asked = symbol
		eq := &finance.Equity{
			LongName:          "Acme Corporation",
			TrailingPE:        18.5,
			MarketCap:         2_000_000_000,
			SharesOutstanding: 50_000_000,
		}
		eq.Symbol = "ACME"
		eq.ShortName = "Acme"
		eq.ExchangeID = "NMS"
		eq.RegularMarketPrice = 40
		eq.AverageDailyVolume3Month = 120_000
		return eq, nil
	}

	q, err := client.FetchQuote(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME", asked)

	assert.Equal(t, "Acme Corporation", q.Name)
	assert.Equal(t, "NMS", q.Exchange)
	assert.Equal(t, 40.0, *q.Price)
	assert.Equal(t, 2e9, *q.MarketCap)
	assert.Equal(t, 18.5, *q.PERatio)
	assert.Equal(t, int64(120_000), *q.AvgDailyVolume)
	assert.Equal(t, 5e7, *q.SharesOutstanding)
}

func TestFetchQuote_MissingFields(t *testing.T) {
	client := newTestClient("http://unused")
	client.equityGet = func(symbol string) (*finance.Equity, error) {
		eq := &finance.Equity{}
		eq.Symbol = symbol
		eq.ShortName = "Tiny Co"
		eq.ExchangeID = "PNK"
		return eq, nil
	}

	q, err := client.FetchQuote(context.Background(), "TINY")
	require.NoError(t, err)
	assert.Equal(t, "Tiny Co", q.Name)
	assert.Nil(t, q.Price)
	assert.Nil(t, q.MarketCap)
	assert.Nil(t, q.PERatio)
	assert.Nil(t, q.AvgDailyVolume)
}

func TestFetchQuote_Error(t *testing.T) {
	client := newTestClient("http://unused")
	client.equityGet = func(symbol string) (*finance.Equity, error) {
		return nil, errors.New("remote error")
	}

	_, err := client.FetchQuote(context.Background(), "ACME")
	assert.Error(t, err)

	client.equityGet = func(symbol string) (*finance.Equity, error) { return nil, nil }
	_, err = client.FetchQuote(context.Background(), "ACME")
	assert.Error(t, err)
}

const chartJSON = `{"chart": {"result": [{
  "meta": {"symbol": "ACME"},
  "timestamp": [1700000000, 1700086400, 1700172800, 1700259200],
  "events": {"splits": {
    "1700172800": {"date": 1700172800, "numerator": 4, "denominator": 1, "splitRatio": "4:1"},
    "1600000000": {"date": 1600000000, "numerator": 1, "denominator": 10, "splitRatio": "1:10"}
  }},
  "indicators": {"quote": [{"close": [10.0, null, 12.5, 15.0], "volume": [100, 0, 300, 400]}]}
}], "error": null}}`

func TestFetchChart(t *testing.T) {
	var query string
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		w.Write([]byte(chartJSON))
	}))
	defer server.Close()

	chart, err := newTestClient(server.URL+"/v8/finance/chart/").FetchChart(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/ACME", path)
	assert.Contains(t, query, "range=5y")
	assert.Contains(t, query, "interval=1d")
	assert.Contains(t, query, "events=split")

	require.Len(t, chart.Closes, 3)
	assert.Equal(t, 10.0, chart.Closes[0].Close)
	assert.Equal(t, time.Unix(1700172800, 0).UTC(), chart.Closes[1].Date)

	require.Len(t, chart.Splits, 2)
	assert.Equal(t, 0.1, chart.Splits[0].Ratio())
	assert.Equal(t, 4.0, chart.Splits[1].Ratio())

	assert.Equal(t, 15.0, *chart.LastClose())
	assert.InDelta(t, 50.0, *chart.PriceChange52W(), 1e-9)
}

func TestFetchChart_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchChart(context.Background(), "GONE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol may be delisted")
}

func TestPriceChange52W(t *testing.T) {
	t.Run("nil chart", func(t *testing.T) {
		var ch *Chart
		assert.Nil(t, ch.PriceChange52W())
		assert.Nil(t, ch.LastClose())
	})

	t.Run("more than a year", func(t *testing.T) {
		ch := &Chart{}
		for i := 0; i < 300; i++ {
			price := 100.0
			if i >= 300-TradingDaysPerYear {
				price = 80
			}
			ch.Closes = append(ch.Closes, pricePoint(i, price))
		}
		ch.Closes[len(ch.Closes)-1].Close = 120

		// 기준 = 252 거래일 전 종가 (80)
		assert.InDelta(t, 50.0, *ch.PriceChange52W(), 1e-9)
	})
}

func pricePoint(day int, close float64) corpaction.PricePoint {
	return corpaction.PricePoint{
		Date:  time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Close: close,
	}
}
