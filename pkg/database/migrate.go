package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path"

	"github.com/pressly/goose/v3"

	"github.com/wonny/alphaforge/pkg/config"
	"github.com/wonny/alphaforge/pkg/logger"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate applies all pending schema migrations for the given driver
// ⭐ SSOT: 스키마 변경은 migrations/ 디렉토리와 이 함수로만
func Migrate(ctx context.Context, db *sql.DB, driver string, log *logger.Logger) error {
	dir, err := prepareGoose(driver, log)
	if err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// MigrationStatus prints applied/pending migrations through the logger
func MigrationStatus(ctx context.Context, db *sql.DB, driver string, log *logger.Logger) error {
	dir, err := prepareGoose(driver, log)
	if err != nil {
		return err
	}

	if err := goose.StatusContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	return nil
}

func prepareGoose(driver string, log *logger.Logger) (string, error) {
	var dialect string
	switch driver {
	case config.DriverPostgres:
		dialect = "postgres"
	case config.DriverSQLite:
		dialect = "sqlite3"
	default:
		return "", fmt.Errorf("unsupported driver for migrations: %s", driver)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{log: log})
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}

	return path.Join("migrations", driver), nil
}

// gooseLogger routes goose output into the structured logger
type gooseLogger struct {
	log *logger.Logger
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.log.WithField("module", "migrate").Infof(format, v...)
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.WithField("module", "migrate").Fatalf(format, v...)
}
