package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaforge/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션",
	Long: `goose 마이그레이션을 적용하거나 상태를 확인합니다.
DB_DRIVER (postgres | sqlite)에 맞는 마이그레이션 디렉토리를 사용합니다.

Example:
  go run ./cmd/alphaforge migrate up
  go run ./cmd/alphaforge migrate status`,
}

var (
	migrateUpCmd = &cobra.Command{
		Use:   "up",
		Short: "미적용 마이그레이션 모두 적용",
		RunE:  runMigrateUp,
	}

	migrateStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "마이그레이션 적용 상태",
		RunE:  runMigrateStatus,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	PrintHeader("Schema Migration", "Driver : "+a.cfg.Database.Driver)

	if err := database.Migrate(context.Background(), a.migrationDB(), a.cfg.Database.Driver, a.log); err != nil {
		PrintError("Migration failed")
		return fmt.Errorf("migrate: %w", err)
	}

	PrintSuccess("Schema is up to date")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	return database.MigrationStatus(context.Background(), a.migrationDB(), a.cfg.Database.Driver, a.log)
}
