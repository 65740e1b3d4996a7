package yahoo

import (
	"context"
	"fmt"
	"strings"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"golang.org/x/time/rate"

	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Client handles communication with Yahoo Finance (quote + chart)
// ⭐ SSOT: Yahoo Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	chartURL   string
	equityGet  func(symbol string) (*finance.Equity, error)
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg config.YahooConfig, log *logger.Logger) *Client {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 1
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		chartURL:   strings.TrimRight(cfg.ChartURL, "/"),
		equityGet:  equity.Get,
	}
}

// Quote is the current-state market data used for the snapshot
type Quote struct {
	Symbol            string
	Name              string
	Exchange          string // exchange code (NMS, NYQ, PNK ...)
	Price             *float64
	MarketCap         *float64
	PERatio           *float64
	AvgDailyVolume    *int64 // 3개월 평균
	SharesOutstanding *float64
}

// FetchQuote fetches the equity quote of one symbol
func (c *Client) FetchQuote(ctx context.Context, symbol string) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	eq, err := c.equityGet(strings.ToUpper(symbol))
	if err != nil {
		return nil, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}
	if eq == nil {
		return nil, fmt.Errorf("fetch quote %s: empty response", symbol)
	}

	q := &Quote{
		Symbol:   eq.Symbol,
		Name:     eq.LongName,
		Exchange: eq.ExchangeID,
	}
	if q.Name == "" {
		q.Name = eq.ShortName
	}

	// Yahoo는 값이 없으면 0을 돌려줌 → 0은 없음으로 처리
	if eq.RegularMarketPrice > 0 {
		q.Price = float64Ptr(eq.RegularMarketPrice)
	}
	if eq.MarketCap > 0 {
		q.MarketCap = float64Ptr(float64(eq.MarketCap))
	}
	if eq.TrailingPE != 0 {
		q.PERatio = float64Ptr(eq.TrailingPE)
	}
	if eq.AverageDailyVolume3Month > 0 {
		v := int64(eq.AverageDailyVolume3Month)
		q.AvgDailyVolume = &v
	}
	if eq.SharesOutstanding > 0 {
		q.SharesOutstanding = float64Ptr(float64(eq.SharesOutstanding))
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol":   q.Symbol,
		"exchange": q.Exchange,
	}).Debug("Fetched Yahoo quote")

	return q, nil
}

func float64Ptr(v float64) *float64 { return &v }
