package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/corpaction"
	"github.com/wonny/alphaforge/internal/external/edgar"
	"github.com/wonny/alphaforge/internal/external/yahoo"
	"github.com/wonny/alphaforge/pkg/logger"
)

type fakeRepo struct {
	snapshots  []*contracts.CompanySnapshot
	ciks       []string
	statements []contracts.Statement
	filings    []contracts.Filing
	news       []contracts.NewsItem
	symbols    []string
	upsertErr  error
}

func (r *fakeRepo) UpsertSnapshot(ctx context.Context, s *contracts.CompanySnapshot, cik string) (int64, error) {
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	r.snapshots = append(r.snapshots, s)
	r.ciks = append(r.ciks, cik)
	return int64(len(r.snapshots)), nil
}

func (r *fakeRepo) SaveStatements(ctx context.Context, s []contracts.Statement) error {
	r.statements = append(r.statements, s...)
	return nil
}

func (r *fakeRepo) SaveFilings(ctx context.Context, f []contracts.Filing) error {
	r.filings = append(r.filings, f...)
	return nil
}

func (r *fakeRepo) SaveNews(ctx context.Context, n []contracts.NewsItem) error {
	r.news = append(r.news, n...)
	return nil
}

func (r *fakeRepo) ListSymbols(ctx context.Context) ([]string, error) {
	return r.symbols, nil
}

type fakeMarket struct {
	quoteErr error
	chartErr error
}

func (m *fakeMarket) FetchQuote(ctx context.Context, symbol string) (*yahoo.Quote, error) {
	if m.quoteErr != nil {
		return nil, m.quoteErr
	}
	return &yahoo.Quote{
		Symbol:            symbol,
		Name:              symbol + " Corp",
		Exchange:          "NMS",
		Price:             contracts.Float64(50),
		MarketCap:         contracts.Float64(5e9),
		PERatio:           contracts.Float64(20),
		AvgDailyVolume:    contracts.Int64(300000),
		SharesOutstanding: contracts.Float64(1e8),
	}, nil
}

func (m *fakeMarket) FetchChart(ctx context.Context, symbol string) (*yahoo.Chart, error) {
	if m.chartErr != nil {
		return nil, m.chartErr
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &yahoo.Chart{
		Closes: []corpaction.PricePoint{
			{Date: start, Close: 40},
			{Date: start.AddDate(0, 0, 1), Close: 60},
		},
	}, nil
}

type fakeFilings struct {
	cikErr error
	ebitda float64
}

func (f *fakeFilings) LookupCIK(ctx context.Context, symbol string) (string, error) {
	if f.cikErr != nil {
		return "", f.cikErr
	}
	return "0000000042", nil
}

func (f *fakeFilings) FetchFilings(ctx context.Context, cik string) (*edgar.Submissions, error) {
	return &edgar.Submissions{
		Name: "From EDGAR Inc",
		Filings: []contracts.Filing{
			{AccessionNumber: "a-1", FormType: contracts.Form10K, FilingDate: time.Now()},
			{AccessionNumber: "a-2", FormType: contracts.Form10Q, FilingDate: time.Now()},
		},
	}, nil
}

func (f *fakeFilings) FetchFinancials(ctx context.Context, cik string) (*edgar.Financials, error) {
	return &edgar.Financials{Years: []edgar.AnnualFinancials{
		{
			FiscalYear:         2024,
			OperatingCashFlow:  contracts.Float64(900),
			FreeCashFlow:       contracts.Float64(700),
			OperatingIncome:    contracts.Float64(400),
			EBITDA:             contracts.Float64(f.ebitda),
			TotalDebt:          contracts.Float64(1000),
			StockholdersEquity: contracts.Float64(2000),
		},
	}}, nil
}

type fakeNews struct{}

func (fakeNews) FetchNews(ctx context.Context, companyID int64, symbol string) ([]contracts.NewsItem, error) {
	return []contracts.NewsItem{
		{CompanyID: companyID, Headline: symbol + " faces lawsuit", RedFlagKeywords: []string{"lawsuit"}},
	}, nil
}

type fakeDetector struct {
	got corpaction.Input
}

func (d *fakeDetector) Detect(in corpaction.Input) contracts.CorporateActions {
	d.got = in
	return contracts.CorporateActions{PotentialActionDetected: true, Flags: []string{corpaction.FlagExtremeRange}}
}

func TestIngest_AllSources(t *testing.T) {
	repo := &fakeRepo{}
	detector := &fakeDetector{}
	ing := NewIngestor(repo, &fakeMarket{}, &fakeFilings{ebitda: 500}, fakeNews{}, detector, logger.Nop())

	res := ing.Ingest(context.Background(), " acme ")
	require.NoError(t, res.Error)
	assert.Equal(t, "ACME", res.Symbol)
	assert.Equal(t, int64(1), res.CompanyID)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 2, res.Filings)
	assert.Equal(t, 1, res.News)
	assert.Equal(t, 3, res.Statements)

	require.Len(t, repo.snapshots, 1)
	s := repo.snapshots[0]
	assert.Equal(t, "ACME Corp", s.Name)
	assert.Equal(t, "NMS", s.Exchange)
	assert.Equal(t, 50.0, *s.Price)
	assert.InDelta(t, 50.0, *s.PriceChange52W, 1e-9)
	assert.Equal(t, 700.0, *s.FreeCashFlow)
	assert.Equal(t, 0.5, *s.DebtToEquity)
	assert.Equal(t, 2.0, *s.NetDebtToEBITDA)
	assert.Equal(t, 2000.0, *s.ShareholderEquity)
	assert.True(t, s.CorporateActions.PotentialActionDetected)
	assert.False(t, s.IngestedAt.IsZero())
	assert.Equal(t, "0000000042", repo.ciks[0])

	// 기업 행위 탐지 입력
	assert.Len(t, detector.got.Closes, 2)
	assert.Equal(t, 1e8, *detector.got.SharesOutstanding)

	for _, f := range repo.filings {
		assert.Equal(t, int64(1), f.CompanyID)
	}
	for _, st := range repo.statements {
		assert.Equal(t, int64(1), st.CompanyID)
	}
}

func TestIngest_SourceFailuresAreSkipped(t *testing.T) {
	repo := &fakeRepo{}
	market := &fakeMarket{quoteErr: errors.New("quote down")}
	filings := &fakeFilings{cikErr: edgar.ErrCIKNotFound}
	ing := NewIngestor(repo, market, filings, nil, &fakeDetector{}, logger.Nop())

	res := ing.Ingest(context.Background(), "TINY")
	require.NoError(t, res.Error)
	assert.Equal(t, []string{SourceQuote, SourceCIK}, res.Skipped)
	assert.Zero(t, res.Filings)
	assert.Zero(t, res.Statements)

	s := repo.snapshots[0]
	assert.Empty(t, s.Name)
	// 시세 실패 → 차트 종가로 대체
	assert.Equal(t, 60.0, *s.Price)
	assert.Nil(t, s.MarketCap)
	assert.Nil(t, s.FreeCashFlow)
	assert.Empty(t, repo.ciks[0])
}

func TestIngest_NameFromEDGAR(t *testing.T) {
	repo := &fakeRepo{}
	market := &fakeMarket{quoteErr: errors.New("quote down"), chartErr: errors.New("chart down")}
	ing := NewIngestor(repo, market, &fakeFilings{ebitda: 500}, nil, nil, logger.Nop())

	res := ing.Ingest(context.Background(), "ACME")
	require.NoError(t, res.Error)
	assert.Equal(t, []string{SourceQuote, SourceChart}, res.Skipped)

	s := repo.snapshots[0]
	assert.Equal(t, "From EDGAR Inc", s.Name)
	assert.Nil(t, s.Price)
	assert.Nil(t, s.PriceChange52W)
	assert.Equal(t, contracts.CorporateActions{}, s.CorporateActions)
}

func TestIngest_NonPositiveEBITDA(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, &fakeMarket{}, &fakeFilings{ebitda: -10}, nil, nil, logger.Nop())

	res := ing.Ingest(context.Background(), "LOSS")
	require.NoError(t, res.Error)
	assert.Nil(t, repo.snapshots[0].NetDebtToEBITDA)
	assert.NotNil(t, repo.snapshots[0].DebtToEquity)
}

func TestIngest_UpsertFailure(t *testing.T) {
	repo := &fakeRepo{upsertErr: errors.New("db down")}
	ing := NewIngestor(repo, &fakeMarket{}, nil, fakeNews{}, nil, logger.Nop())

	res := ing.Ingest(context.Background(), "ACME")
	require.Error(t, res.Error)
	assert.Zero(t, res.CompanyID)
	assert.Empty(t, repo.news)
}

func TestIngestKnown(t *testing.T) {
	repo := &fakeRepo{symbols: []string{"AAA", "BBB"}}
	ing := NewIngestor(repo, &fakeMarket{}, nil, nil, nil, logger.Nop())

	results, err := ing.IngestKnown(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "AAA", results[0].Symbol)
	assert.Equal(t, int64(2), results[1].CompanyID)
}

func TestIngestAll_CanceledContext(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, &fakeMarket{}, nil, nil, nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ing.IngestAll(ctx, []string{"AAA", "BBB"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
	assert.Empty(t, repo.snapshots)
}
