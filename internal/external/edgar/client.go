package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
	"github.com/wonny/alphaforge/pkg/redis"
)

// ErrCIKNotFound is returned when a ticker has no SEC registration
var ErrCIKNotFound = errors.New("cik not found")

// Client handles communication with SEC EDGAR
// ⭐ SSOT: SEC EDGAR API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	cache      *redis.Cache
	baseURL    string // www.sec.gov
	dataURL    string // data.sec.gov

	tickersMu sync.Mutex
	tickers   map[string]string // ticker → 10자리 CIK
}

// NewClient creates a new EDGAR client.
// SEC fair access: User-Agent 필수, cfg.RateLimit 요청/초
func NewClient(httpClient *httputil.Client, cfg config.EDGARConfig, log *logger.Logger) *Client {
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 10
	}

	return &Client{
		httpClient: httpClient.WithUserAgent(cfg.UserAgent),
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(limit), 1),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		dataURL:    strings.TrimRight(cfg.DataURL, "/"),
	}
}

// WithCache enables redis caching of CIK lookups
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// getJSON waits for the limiter, then GETs url and decodes the body into dest
func (c *Client) getJSON(ctx context.Context, url string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("edgar rate limit: %w", err)
	}

	body, err := c.httpClient.GetBody(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// tickerEntry is one row of company_tickers.json
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// LookupCIK resolves a ticker to its zero-padded 10 digit CIK
func (c *Client) LookupCIK(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if c.cache != nil {
		var cached string
		if found, _ := c.cache.Get(ctx, redis.CIKKey(symbol), &cached); found && cached != "" {
			return cached, nil
		}
	}

	tickers, err := c.loadTickers(ctx)
	if err != nil {
		return "", err
	}

	cik, ok := tickers[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCIKNotFound, symbol)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, redis.CIKKey(symbol), cik, redis.TTLDaily); err != nil {
			c.logger.WithError(err).Warn("Failed to cache CIK")
		}
	}

	return cik, nil
}

// loadTickers downloads the ticker map once per client
func (c *Client) loadTickers(ctx context.Context) (map[string]string, error) {
	c.tickersMu.Lock()
	defer c.tickersMu.Unlock()

	if c.tickers != nil {
		return c.tickers, nil
	}

	var raw map[string]tickerEntry
	if err := c.getJSON(ctx, c.baseURL+"/files/company_tickers.json", &raw); err != nil {
		return nil, fmt.Errorf("fetch ticker map: %w", err)
	}

	tickers := make(map[string]string, len(raw))
	for _, e := range raw {
		tickers[strings.ToUpper(e.Ticker)] = PadCIK(e.CIK)
	}
	c.tickers = tickers

	c.logger.WithField("count", len(tickers)).Debug("Loaded EDGAR ticker map")
	return tickers, nil
}

// PadCIK formats a CIK as 10 digits with leading zeros
func PadCIK(cik int64) string {
	return fmt.Sprintf("%010d", cik)
}
