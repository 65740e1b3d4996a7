package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wonny/alphaforge/internal/companydata"
	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/corpaction"
	"github.com/wonny/alphaforge/internal/external/edgar"
	"github.com/wonny/alphaforge/internal/external/yahoo"
	"github.com/wonny/alphaforge/internal/filings"
	"github.com/wonny/alphaforge/internal/ingest"
	"github.com/wonny/alphaforge/internal/news"
	"github.com/wonny/alphaforge/internal/notify"
	"github.com/wonny/alphaforge/internal/scoringconfig"
	"github.com/wonny/alphaforge/internal/screening"
	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/database"
	"github.com/wonny/alphaforge/pkg/httputil"
	"github.com/wonny/alphaforge/pkg/logger"
	"github.com/wonny/alphaforge/pkg/redis"
)

// cachePrefix namespaces every redis key of this service
const cachePrefix = "alphaforge"

// app holds the wired dependencies shared by commands
// ⭐ SSOT: 의존성 조립은 여기서만 (커맨드는 필요한 것만 꺼내 씀)
type app struct {
	cfg   *config.Config
	log   *logger.Logger
	repo  contracts.CompanyRepository
	redis *redis.Client

	pg     *database.DB
	sqlite *database.SQLiteDB
	sqlDB  *sql.DB // goose (postgres는 요청 시 생성)
}

// newApp loads config, logger, storage and redis
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		a.sqlite = db
		a.sqlDB = db.DB
		a.repo = companydata.NewSQLiteRepository(db.DB)
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.pg = db
		a.repo = companydata.NewPostgresRepository(db.Pool)
	}

	rc := redis.New(cfg, log)
	a.redis = rc

	log.WithFields(map[string]interface{}{
		"driver": cfg.Database.Driver,
		"redis":  rc.Enabled(),
	}).Debug("Application initialized")

	return a, nil
}

// Close releases storage and redis connections
func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pg != nil {
		if a.sqlDB != nil {
			a.sqlDB.Close()
		}
		a.pg.Close()
	}
	if a.sqlite != nil {
		a.sqlite.Close()
	}
}

// pingDB checks whichever store is open (health check)
func (a *app) pingDB(ctx context.Context) error {
	if a.sqlite != nil {
		return a.sqlite.Ping(ctx)
	}
	return a.pg.Ping(ctx)
}

// migrationDB returns a database/sql handle for goose
func (a *app) migrationDB() *sql.DB {
	if a.sqlDB == nil && a.pg != nil {
		a.sqlDB = a.pg.SQL()
	}
	return a.sqlDB
}

// cache returns the JSON cache over redis (no-op when disabled)
func (a *app) cache() *redis.Cache {
	return redis.NewCache(a.redis, cachePrefix)
}

// scoring resolves the process-wide scoring configuration and its hash
func (a *app) scoring() (scoringconfig.Config, string, error) {
	sc, err := scoringconfig.Resolve(a.cfg.Screening)
	if err != nil {
		return scoringconfig.Config{}, "", fmt.Errorf("resolve scoring config: %w", err)
	}
	hash, err := scoringconfig.Hash(sc)
	if err != nil {
		return scoringconfig.Config{}, "", fmt.Errorf("hash scoring config: %w", err)
	}
	return sc, hash, nil
}

// screener builds the screening orchestrator over the repository
func (a *app) screener() (*screening.Screener, string, error) {
	sc, hash, err := a.scoring()
	if err != nil {
		return nil, "", err
	}

	s := screening.NewScreener(
		a.repo,
		filings.NewRecencyChecker(a.repo),
		news.NewProvider(a.repo),
		sc,
		a.log,
	)
	return s, hash, nil
}

// batchRunner builds the batch runner; workers < 1 uses the configured value
func (a *app) batchRunner(workers int) (*screening.BatchRunner, error) {
	s, hash, err := a.screener()
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = a.cfg.Screening.Workers
	}

	return screening.NewBatchRunner(s, a.repo, screening.BatchConfig{
		Workers:    workers,
		ConfigHash: hash,
	}, a.log), nil
}

// ingestor wires every external source. Each source gets its own HTTP client
// (User-Agent and rate limit are per client).
func (a *app) ingestor() *ingest.Ingestor {
	limiter := redis.NewRateLimiter(a.redis, cachePrefix)

	edgarHTTP := httputil.New(a.cfg, a.log).WithRateLimiter(limiter, redis.EDGARRateLimit)
	edgarClient := edgar.NewClient(edgarHTTP, a.cfg.EDGAR, a.log).WithCache(a.cache())

	yahooHTTP := httputil.New(a.cfg, a.log).WithRateLimiter(limiter, redis.YahooRateLimit)
	yahooClient := yahoo.NewClient(yahooHTTP, a.cfg.Yahoo, a.log)

	newsHTTP := httputil.New(a.cfg, a.log).WithRateLimiter(limiter, redis.NewsRateLimit(a.cfg.News.RatePerMin))
	scraper := news.NewScraper(newsHTTP, a.cfg.News.URLTemplate, a.log)

	return ingest.NewIngestor(a.repo, yahooClient, edgarClient, scraper, corpaction.NewDetector(a.log), a.log)
}

// mailer builds the batch summary mailer
func (a *app) mailer() *notify.Mailer {
	return notify.NewMailer(a.cfg.SMTP, a.log)
}
