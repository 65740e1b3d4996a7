package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alphaforge",
	Short: "AlphaForge - 미국 주식 품질 스크리닝",
	Long: `AlphaForge Unified CLI

SEC EDGAR / Yahoo Finance / 뉴스 데이터를 수집하고
9개 품질 룰로 회사별 점수(0-100)와 탈락 여부를 계산합니다.

Usage:
  go run ./cmd/alphaforge [command]

Examples:
  go run ./cmd/alphaforge migrate up
  go run ./cmd/alphaforge ingest AAPL MSFT
  go run ./cmd/alphaforge screen all --workers 4 --notify
  go run ./cmd/alphaforge api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
