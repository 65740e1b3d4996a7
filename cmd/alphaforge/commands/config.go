package commands

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/alphaforge/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 조회",
	Long: `현재 적용되는 애플리케이션 설정과 스코어링 설정을 출력합니다.
비밀번호 등 민감 정보는 마스킹됩니다.

Example:
  go run ./cmd/alphaforge config show`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "적용 중인 설정 출력",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// DB 연결 없이 스코어링 설정만 해석
	a := &app{cfg: cfg}
	sc, hash, err := a.scoring()
	if err != nil {
		return err
	}

	PrintHeader("Application Config")
	for _, kv := range configPairs(cfg) {
		PrintKeyValue(kv[0], kv[1], 16)
	}

	source := "environment"
	if cfg.Screening.ScoringConfigPath != "" {
		source = cfg.Screening.ScoringConfigPath
	}

	PrintHeader("Scoring Config",
		"Source : "+source,
		"Hash   : "+hash,
	)
	out, err := yaml.Marshal(sc)
	if err != nil {
		return fmt.Errorf("marshal scoring config: %w", err)
	}
	fmt.Print(string(out))

	return nil
}

// configPairs flattens the app config for display with secrets masked
func configPairs(cfg *config.Config) [][2]string {
	return [][2]string{
		{"Env", cfg.Env},
		{"Port", cfg.Port},
		{"Log", cfg.LogLevel + " / " + cfg.LogFormat},
		{"DB driver", cfg.Database.Driver},
		{"DB URL", redactURL(cfg.Database.URL)},
		{"SQLite path", cfg.Database.SQLitePath},
		{"Redis", fmt.Sprintf("%s:%s (enabled: %t)", cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Enabled)},
		{"EDGAR UA", cfg.EDGAR.UserAgent},
		{"EDGAR rate", strconv.FormatFloat(cfg.EDGAR.RateLimit, 'f', -1, 64) + "/s"},
		{"Yahoo rate", strconv.FormatFloat(cfg.Yahoo.RateLimit, 'f', -1, 64) + "/s"},
		{"News rate", strconv.Itoa(cfg.News.RatePerMin) + "/min"},
		{"SMTP", fmt.Sprintf("%s:%d (enabled: %t)", cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Enabled)},
		{"SMTP password", mask(cfg.SMTP.Password)},
		{"Workers", strconv.Itoa(cfg.Screening.Workers)},
	}
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}

func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}
