package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/report"
	"github.com/wonny/alphaforge/internal/screening"
)

// screenCmd represents the screen command
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "품질 스크리닝",
	Long: `저장된 스냅샷으로 품질 스크리닝을 실행하거나 결과를 내보냅니다.

Subcommands:
  company  - 회사 하나 스크리닝
  all      - 전체 배치 스크리닝
  export   - 저장된 결과 CSV 내보내기

Example:
  go run ./cmd/alphaforge screen company 42
  go run ./cmd/alphaforge screen all --workers 4 --notify
  go run ./cmd/alphaforge screen export --out results.csv --min-score 80`,
}

var (
	screenCompanyCmd = &cobra.Command{
		Use:   "company [id]",
		Short: "회사 하나 스크리닝",
		Args:  cobra.ExactArgs(1),
		RunE:  runScreenCompany,
	}

	screenAllCmd = &cobra.Command{
		Use:   "all",
		Short: "전체 배치 스크리닝",
		RunE:  runScreenAll,
	}

	screenExportCmd = &cobra.Command{
		Use:   "export",
		Short: "저장된 결과 CSV 내보내기",
		RunE:  runScreenExport,
	}
)

var (
	screenWorkers      int
	screenNotify       bool
	screenJSON         bool
	exportOut          string
	exportMinScore     int
	exportDisqualified string
)

func init() {
	rootCmd.AddCommand(screenCmd)
	screenCmd.AddCommand(screenCompanyCmd)
	screenCmd.AddCommand(screenAllCmd)
	screenCmd.AddCommand(screenExportCmd)

	screenCompanyCmd.Flags().BoolVar(&screenJSON, "json", false, "결과를 JSON으로 출력")

	screenAllCmd.Flags().IntVar(&screenWorkers, "workers", 0, "동시 워커 수 (기본: SCREENING_WORKERS)")
	screenAllCmd.Flags().BoolVar(&screenNotify, "notify", false, "배치 요약 메일 발송")

	screenExportCmd.Flags().StringVar(&exportOut, "out", "", "출력 파일 (기본: stdout)")
	screenExportCmd.Flags().IntVar(&exportMinScore, "min-score", -1, "최소 점수 필터")
	screenExportCmd.Flags().StringVar(&exportDisqualified, "disqualified", "", "true | false")
}

func runScreenCompany(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid company id: %s", args[0])
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, _, err := a.screener()
	if err != nil {
		return err
	}

	result, err := s.Screen(context.Background(), id)
	if err != nil && !errors.Is(err, screening.ErrPersist) {
		return err
	}

	if screenJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
		return err
	}

	printResult(result)
	if err != nil {
		PrintWarning("Result computed but not saved: " + err.Error())
	}
	return err
}

func printResult(r *contracts.ScreeningResult) {
	status := "QUALIFIED"
	if r.Disqualified {
		status = "DISQUALIFIED"
	}

	PrintHeader(fmt.Sprintf("Quality Screening: %s (#%d)", r.Symbol, r.CompanyID))
	PrintKeyValue("Score", fmt.Sprintf("%d / 100", r.QualityScore), 10)
	PrintKeyValue("Status", status, 10)
	PrintKeyValue("Red flags", strconv.Itoa(len(r.Findings)), 10)

	if len(r.Findings) > 0 {
		fmt.Println()
		PrintList(r.RedFlags())
	}
	fmt.Println()
}

func runScreenAll(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.batchRunner(screenWorkers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := runner.RunAll(ctx)
	if err != nil {
		return err
	}

	PrintHeader("Quality Screening Batch",
		"Run ID      : "+summary.RunID,
		"Config hash : "+summary.ConfigHash,
	)
	PrintKeyValue("Total", humanize.Comma(int64(summary.Total)), 12)
	PrintKeyValue("Processed", humanize.Comma(int64(summary.Processed)), 12)
	PrintKeyValue("Errors", humanize.Comma(int64(summary.Errors)), 12)
	PrintKeyValue("Disqualified", humanize.Comma(int64(len(summary.Disqualified))), 12)
	PrintKeyValue("Duration", summary.Duration.String(), 12)

	if len(summary.Failures) > 0 {
		fmt.Println()
		items := make([]string, len(summary.Failures))
		for i, f := range summary.Failures {
			items[i] = fmt.Sprintf("#%d: %s", f.CompanyID, f.Error)
		}
		PrintList(items)
	}
	fmt.Println()

	if screenNotify {
		if err := a.mailer().SendBatchSummary(ctx, summary); err != nil {
			PrintWarning("Batch summary email failed: " + err.Error())
		}
	}

	PrintSuccess("Batch completed")
	return nil
}

func runScreenExport(cmd *cobra.Command, args []string) error {
	filter, err := exportFilter()
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	n, err := report.ExportResults(context.Background(), a.repo, filter, out)
	if err != nil {
		return err
	}

	if exportOut != "" {
		PrintSuccess(fmt.Sprintf("Exported %d results to %s", n, exportOut))
	}
	return nil
}

func exportFilter() (contracts.ResultFilter, error) {
	var filter contracts.ResultFilter

	if exportMinScore >= 0 {
		minScore := exportMinScore
		filter.MinScore = &minScore
	}

	switch strings.ToLower(exportDisqualified) {
	case "":
	case "true", "false":
		d := strings.EqualFold(exportDisqualified, "true")
		filter.Disqualified = &d
	default:
		return filter, fmt.Errorf("--disqualified must be true or false")
	}

	return filter, nil
}
