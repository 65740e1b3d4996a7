package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/corpaction"
	"github.com/wonny/alphaforge/internal/external/edgar"
	"github.com/wonny/alphaforge/internal/external/yahoo"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Source names used in results and logs
const (
	SourceQuote      = "quote"
	SourceChart      = "chart"
	SourceCIK        = "cik"
	SourceFilings    = "filings"
	SourceFinancials = "financials"
	SourceNews       = "news"
)

// MarketData supplies quotes and price history
type MarketData interface {
	FetchQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
	FetchChart(ctx context.Context, symbol string) (*yahoo.Chart, error)
}

// FilingSource supplies SEC registrations, filings and XBRL financials
type FilingSource interface {
	LookupCIK(ctx context.Context, symbol string) (string, error)
	FetchFilings(ctx context.Context, cik string) (*edgar.Submissions, error)
	FetchFinancials(ctx context.Context, cik string) (*edgar.Financials, error)
}

// NewsSource supplies tagged news items
type NewsSource interface {
	FetchNews(ctx context.Context, companyID int64, symbol string) ([]contracts.NewsItem, error)
}

// ActionDetector turns market data into corporate action flags
type ActionDetector interface {
	Detect(in corpaction.Input) contracts.CorporateActions
}

// Ingestor assembles and stores one company at a time
// ⭐ SSOT: 스냅샷 생성은 여기서만 (스크리닝은 읽기만)
type Ingestor struct {
	repo     contracts.IngestRepository
	market   MarketData
	filings  FilingSource
	news     NewsSource
	detector ActionDetector
	logger   *logger.Logger
	now      func() time.Time
}

// NewIngestor creates a new Ingestor. Any source may be nil (skipped).
func NewIngestor(
	repo contracts.IngestRepository,
	market MarketData,
	filings FilingSource,
	news NewsSource,
	detector ActionDetector,
	log *logger.Logger,
) *Ingestor {
	return &Ingestor{
		repo:     repo,
		market:   market,
		filings:  filings,
		news:     news,
		detector: detector,
		logger:   log.WithField("module", "ingest"),
		now:      time.Now,
	}
}

// Result is the outcome of ingesting one symbol
type Result struct {
	Symbol     string
	CompanyID  int64
	Statements int
	Filings    int
	News       int
	Skipped    []string // 실패해서 건너뛴 소스
	Error      error    // 저장 실패 (회사 단위 실패)
}

// fetched holds everything gathered for one symbol before saving
type fetched struct {
	quote      *yahoo.Quote
	chart      *yahoo.Chart
	cik        string
	sub        *edgar.Submissions
	financials *edgar.Financials
}

// IngestAll ingests symbols sequentially
func (i *Ingestor) IngestAll(ctx context.Context, symbols []string) []Result {
	i.logger.WithField("symbols", len(symbols)).Info("Starting ingestion")

	results := make([]Result, 0, len(symbols))
	failed := 0
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			results = append(results, Result{Symbol: symbol, Error: ctx.Err()})
			failed++
			continue
		}

		res := i.Ingest(ctx, symbol)
		if res.Error != nil {
			failed++
		}
		results = append(results, res)
	}

	i.logger.WithFields(map[string]interface{}{
		"total":  len(results),
		"failed": failed,
	}).Info("Ingestion completed")

	return results
}

// IngestRows ingests CSV rows sequentially. Row values fill the snapshot
// fields that the live sources could not supply.
func (i *Ingestor) IngestRows(ctx context.Context, rows []CSVRow) []Result {
	i.logger.WithField("rows", len(rows)).Info("Starting CSV ingestion")

	results := make([]Result, 0, len(rows))
	for j := range rows {
		row := &rows[j]
		if ctx.Err() != nil {
			results = append(results, Result{Symbol: row.Symbol, Error: ctx.Err()})
			continue
		}
		results = append(results, i.ingest(ctx, row.Symbol, row))
	}
	return results
}

// IngestKnown re-ingests every symbol already stored
func (i *Ingestor) IngestKnown(ctx context.Context) ([]Result, error) {
	symbols, err := i.repo.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	return i.IngestAll(ctx, symbols), nil
}

// Ingest gathers all sources for one symbol and replaces its stored snapshot
func (i *Ingestor) Ingest(ctx context.Context, symbol string) Result {
	return i.ingest(ctx, symbol, nil)
}

func (i *Ingestor) ingest(ctx context.Context, symbol string, row *CSVRow) Result {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	res := Result{Symbol: symbol}
	log := i.logger.WithField("symbol", symbol)

	skip := func(source string, err error) {
		res.Skipped = append(res.Skipped, source)
		log.WithError(err).WithField("source", source).Warn("Source failed, skipping")
	}

	f := i.fetch(ctx, symbol, skip)

	snapshot := i.buildSnapshot(symbol, f)
	row.overlay(snapshot)
	id, err := i.repo.UpsertSnapshot(ctx, snapshot, f.cik)
	if err != nil {
		res.Error = fmt.Errorf("upsert snapshot: %w", err)
		log.WithError(err).Error("Failed to store snapshot")
		return res
	}
	res.CompanyID = id

	if f.financials != nil {
		statements := f.financials.Statements(id)
		if err := i.repo.SaveStatements(ctx, statements); err != nil {
			skip(SourceFinancials, err)
		} else {
			res.Statements = len(statements)
		}
	}

	if f.sub != nil {
		filings := make([]contracts.Filing, len(f.sub.Filings))
		for j, fl := range f.sub.Filings {
			fl.CompanyID = id
			filings[j] = fl
		}
		if err := i.repo.SaveFilings(ctx, filings); err != nil {
			skip(SourceFilings, err)
		} else {
			res.Filings = len(filings)
		}
	}

	if i.news != nil {
		items, err := i.news.FetchNews(ctx, id, symbol)
		if err == nil {
			err = i.repo.SaveNews(ctx, items)
		}
		if err != nil {
			skip(SourceNews, err)
		} else {
			res.News = len(items)
		}
	}

	log.WithFields(map[string]interface{}{
		"company_id":        id,
		"statements":        res.Statements,
		"filings":           res.Filings,
		"news":              res.News,
		"corporate_actions": corpaction.Summary(snapshot.CorporateActions),
	}).Info("Ingested company")

	return res
}

func (i *Ingestor) fetch(ctx context.Context, symbol string, skip func(string, error)) fetched {
	var f fetched
	var err error

	if i.market != nil {
		if f.quote, err = i.market.FetchQuote(ctx, symbol); err != nil {
			skip(SourceQuote, err)
		}
		if f.chart, err = i.market.FetchChart(ctx, symbol); err != nil {
			skip(SourceChart, err)
		}
	}

	if i.filings != nil {
		if f.cik, err = i.filings.LookupCIK(ctx, symbol); err != nil {
			skip(SourceCIK, err)
			return f
		}
		if f.sub, err = i.filings.FetchFilings(ctx, f.cik); err != nil {
			skip(SourceFilings, err)
		}
		if f.financials, err = i.filings.FetchFinancials(ctx, f.cik); err != nil {
			skip(SourceFinancials, err)
		}
	}

	return f
}

// buildSnapshot derives the full snapshot (no partial updates)
func (i *Ingestor) buildSnapshot(symbol string, f fetched) *contracts.CompanySnapshot {
	s := &contracts.CompanySnapshot{
		Symbol:     symbol,
		IngestedAt: i.now().UTC(),
	}

	if q := f.quote; q != nil {
		s.Name = q.Name
		s.Exchange = q.Exchange
		s.Price = q.Price
		s.MarketCap = q.MarketCap
		s.PERatio = q.PERatio
		s.AvgDailyVolume = q.AvgDailyVolume
	}

	if f.chart != nil {
		s.PriceChange52W = f.chart.PriceChange52W()
		if s.Price == nil {
			s.Price = f.chart.LastClose()
		}
	}

	if s.Name == "" && f.sub != nil {
		s.Name = f.sub.Name
	}

	if latest := f.financials.Latest(); latest != nil {
		applyFundamentals(s, latest)
	}

	if i.detector != nil {
		in := corpaction.Input{Symbol: symbol}
		if f.chart != nil {
			in.Splits = f.chart.Splits
			in.Closes = f.chart.Closes
		}
		if f.quote != nil {
			in.MarketCap = f.quote.MarketCap
			in.SharesOutstanding = f.quote.SharesOutstanding
		}
		s.CorporateActions = i.detector.Detect(in)
	}

	return s
}

// applyFundamentals copies the latest fiscal year and derives ratios
func applyFundamentals(s *contracts.CompanySnapshot, a *edgar.AnnualFinancials) {
	s.FreeCashFlow = a.FreeCashFlow
	if s.FreeCashFlow == nil {
		s.FreeCashFlow = a.OperatingCashFlow
	}
	s.TotalDebt = a.TotalDebt
	s.ShareholderEquity = a.StockholdersEquity

	if a.TotalDebt != nil && a.StockholdersEquity != nil && *a.StockholdersEquity > 0 {
		s.DebtToEquity = contracts.Float64(*a.TotalDebt / *a.StockholdersEquity)
	}

	// EBITDA가 0 이하이면 계산 불가 (nil)
	if a.TotalDebt != nil && a.EBITDA != nil && *a.EBITDA > 0 {
		s.NetDebtToEBITDA = contracts.Float64(*a.TotalDebt / *a.EBITDA)
	}
}
