package contracts

import (
	"context"
	"errors"
	"time"
)

// ErrCompanyNotFound is returned when a company id is unknown
var ErrCompanyNotFound = errors.New("company not found")

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// ScreeningRepository is the persistence collaborator of the screening engine
type ScreeningRepository interface {
	ListCompanyIDs(ctx context.Context) ([]int64, error)
	LoadSnapshot(ctx context.Context, companyID int64) (*CompanySnapshot, error)
	LoadHistory(ctx context.Context, companyID int64) (*FinancialHistory, error)
	SaveResult(ctx context.Context, result *ScreeningResult) error
}

// FilingStatusProvider reports recent SEC filings per form type
type FilingStatusProvider interface {
	RecentFilings(ctx context.Context, companyID int64) (FilingStatus, error)
}

// NewsProvider returns red-flag-tagged news, most recent first
type NewsProvider interface {
	RedFlagNews(ctx context.Context, companyID int64) ([]NewsRedFlag, error)
}

// IngestRepository stores ingested company data
type IngestRepository interface {
	UpsertSnapshot(ctx context.Context, snapshot *CompanySnapshot, cik string) (int64, error)
	SaveStatements(ctx context.Context, statements []Statement) error
	SaveFilings(ctx context.Context, filings []Filing) error
	SaveNews(ctx context.Context, items []NewsItem) error
	ListSymbols(ctx context.Context) ([]string, error)
}

// FilingStore reads stored filing dates (filing recency collaborator)
type FilingStore interface {
	LatestFilingDates(ctx context.Context, companyID int64, forms []string) (map[string]time.Time, error)
}

// NewsStore reads stored red flag news rows
type NewsStore interface {
	RecentRedFlagNews(ctx context.Context, companyID int64, limit int) ([]NewsRedFlag, error)
}

// ResultRepository reads stored screening results (API, export)
type ResultRepository interface {
	LoadResult(ctx context.Context, companyID int64) (*StoredResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error)
}

// CompanyRepository is the full persistence surface implemented by companydata
type CompanyRepository interface {
	ScreeningRepository
	IngestRepository
	FilingStore
	NewsStore
	ResultRepository
}
