package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production, test

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	EDGAR EDGARConfig
	Yahoo YahooConfig
	News  NewsConfig

	// Notification
	SMTP SMTPConfig

	// Screening
	Screening ScreeningConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds PostgreSQL / SQLite configuration
type DatabaseConfig struct {
	Driver     string // postgres | sqlite
	URL        string
	SQLitePath string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// PingTimeout bounds the startup ping; on failure the client runs disabled
	PingTimeout time.Duration
}

// EDGARConfig holds SEC EDGAR configuration
// SEC fair access policy: User-Agent 필수, 초당 10건 이하
type EDGARConfig struct {
	UserAgent string
	BaseURL   string // www.sec.gov (ticker map)
	DataURL   string // data.sec.gov (submissions, company facts)
	RateLimit float64
}

// YahooConfig holds Yahoo Finance configuration
type YahooConfig struct {
	ChartURL  string
	RateLimit float64
}

// NewsConfig holds news scraping configuration
type NewsConfig struct {
	URLTemplate string // fmt template, %s = symbol
	RatePerMin  int
}

// SMTPConfig holds batch summary email configuration
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
	Enabled  bool
}

// ScreeningConfig holds quality screening settings.
// Threshold/penalty values are the env layer of the scoring configuration;
// a YAML file at ScoringConfigPath replaces them entirely.
type ScreeningConfig struct {
	ScoringConfigPath string
	Workers           int
	BatchTimeout      time.Duration // POST /api/screening/run 한 번의 최대 시간

	MaxDebtToEBITDA                       float64
	MinTradingVolume                      int64
	FCFNegativeYearsThreshold             int
	OperatingIncomeNegativeYearsThreshold int

	SECFilingPenalty       int
	FCFPenalty             int
	OperatingLossPenalty   int
	HighDebtPenalty        int
	NegativeEquityPenalty  int
	LowVolumePenalty       int
	OTCPenalty             int
	NewsRedFlagPenalty     int
	CorporateActionPenalty int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverPostgres),
			URL:             getEnv("DATABASE_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "alphaforge.db"),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),

			PingTimeout: getEnvAsDuration("REDIS_PING_TIMEOUT", "2s"),
		},

		// External sources
		EDGAR: EDGARConfig{
			UserAgent: getEnv("EDGAR_USER_AGENT", "AlphaForge research@example.com"),
			BaseURL:   getEnv("EDGAR_BASE_URL", "https://www.sec.gov"),
			DataURL:   getEnv("EDGAR_DATA_URL", "https://data.sec.gov"),
			RateLimit: getEnvAsFloat("EDGAR_RATE_LIMIT", 10),
		},

		Yahoo: YahooConfig{
			ChartURL:  getEnv("YAHOO_CHART_URL", "https://query1.finance.yahoo.com/v8/finance/chart"),
			RateLimit: getEnvAsFloat("YAHOO_RATE_LIMIT", 1),
		},

		News: NewsConfig{
			URLTemplate: getEnv("NEWS_URL_TEMPLATE", "https://finance.yahoo.com/quote/%s/news"),
			RatePerMin:  getEnvAsInt("NEWS_RATE_PER_MIN", 60),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			To:       getEnv("SMTP_TO", ""),
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
		},

		// Screening (기본값 = 원래 필터 설정)
		Screening: ScreeningConfig{
			ScoringConfigPath: getEnv("SCORING_CONFIG_PATH", ""),
			Workers:           getEnvAsInt("SCREENING_WORKERS", 1),
			BatchTimeout:      getEnvAsDuration("SCREENING_BATCH_TIMEOUT", "10m"),

			MaxDebtToEBITDA:                       getEnvAsFloat("MAX_DEBT_TO_EBITDA", 5.0),
			MinTradingVolume:                      getEnvAsInt64("MIN_TRADING_VOLUME", 50000),
			FCFNegativeYearsThreshold:             getEnvAsInt("FCF_NEGATIVE_YEARS_THRESHOLD", 4),
			OperatingIncomeNegativeYearsThreshold: getEnvAsInt("OPERATING_INCOME_NEGATIVE_YEARS_THRESHOLD", 4),

			SECFilingPenalty:       getEnvAsInt("SCORE_SEC_FILING_PENALTY", -20),
			FCFPenalty:             getEnvAsInt("SCORE_FCF_PENALTY", -10),
			OperatingLossPenalty:   getEnvAsInt("SCORE_OPERATING_LOSS_PENALTY", -8),
			HighDebtPenalty:        getEnvAsInt("SCORE_HIGH_DEBT_PENALTY", -15),
			NegativeEquityPenalty:  getEnvAsInt("SCORE_NEGATIVE_EQUITY_PENALTY", -12),
			LowVolumePenalty:       getEnvAsInt("SCORE_LOW_VOLUME_PENALTY", -5),
			OTCPenalty:             getEnvAsInt("SCORE_OTC_PENALTY", -3),
			NewsRedFlagPenalty:     getEnvAsInt("SCORE_NEWS_RED_FLAG_PENALTY", -7),
			CorporateActionPenalty: getEnvAsInt("SCORE_CORPORATE_ACTION_PENALTY", -5),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		// Database URL is required for postgres
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("DB_DRIVER must be one of: postgres, sqlite")
	}

	// Validate environment
	switch c.Env {
	case "development", "staging", "production", "test":
	default:
		return fmt.Errorf("ENV must be one of: development, staging, production, test")
	}

	if c.Screening.Workers < 1 {
		return fmt.Errorf("SCREENING_WORKERS must be >= 1")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
