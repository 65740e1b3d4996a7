package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/wonny/alphaforge/internal/corpaction"
)

// TradingDaysPerYear is used for the 52-week change (252 거래일)
const TradingDaysPerYear = 252

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp []int64 `json:"timestamp"`
	Events    struct {
		Splits map[string]struct {
			Date        int64   `json:"date"`
			Numerator   float64 `json:"numerator"`
			Denominator float64 `json:"denominator"`
		} `json:"splits"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Chart is 5 years of daily closes plus split events
type Chart struct {
	Closes []corpaction.PricePoint // oldest first
	Splits []corpaction.Split      // oldest first
}

// FetchChart downloads the 5y daily chart with split events
func (c *Client) FetchChart(ctx context.Context, symbol string) (*Chart, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("range", "5y")
	params.Set("interval", "1d")
	params.Set("events", "split")
	chartURL := fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(strings.ToUpper(symbol)), params.Encode())

	body, err := c.httpClient.GetBody(ctx, chartURL)
	if err != nil {
		return nil, fmt.Errorf("fetch chart %s: %w", symbol, err)
	}

	chart, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("parse chart %s: %w", symbol, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"closes": len(chart.Closes),
		"splits": len(chart.Splits),
	}).Debug("Fetched Yahoo chart")

	return chart, nil
}

func parseChart(body []byte) (*Chart, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result")
	}

	r := resp.Chart.Result[0]
	chart := &Chart{}

	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i, ts := range r.Timestamp {
			// 거래 정지일 등은 null
			if i >= len(closes) || closes[i] == nil {
				continue
			}
			chart.Closes = append(chart.Closes, corpaction.PricePoint{
				Date:  time.Unix(ts, 0).UTC(),
				Close: *closes[i],
			})
		}
	}

	for _, s := range r.Events.Splits {
		chart.Splits = append(chart.Splits, corpaction.Split{
			Date:        time.Unix(s.Date, 0).UTC(),
			Numerator:   s.Numerator,
			Denominator: s.Denominator,
		})
	}
	sort.Slice(chart.Splits, func(i, j int) bool { return chart.Splits[i].Date.Before(chart.Splits[j].Date) })

	return chart, nil
}

// PriceChange52W returns the % change of the last close vs ~1 year earlier.
// 1년치가 안 되면 첫 종가 기준
func (ch *Chart) PriceChange52W() *float64 {
	if ch == nil || len(ch.Closes) < 2 {
		return nil
	}

	last := ch.Closes[len(ch.Closes)-1].Close
	base := ch.Closes[0].Close
	if len(ch.Closes) > TradingDaysPerYear {
		base = ch.Closes[len(ch.Closes)-TradingDaysPerYear].Close
	}
	if base == 0 {
		return nil
	}

	change := (last - base) / base * 100
	return &change
}

// LastClose returns the most recent close
func (ch *Chart) LastClose() *float64 {
	if ch == nil || len(ch.Closes) == 0 {
		return nil
	}
	v := ch.Closes[len(ch.Closes)-1].Close
	return &v
}
