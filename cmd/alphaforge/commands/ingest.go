package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaforge/internal/ingest"
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest [SYMBOL...]",
	Short: "회사 데이터 수집",
	Long: `심볼별로 시세, 5년 차트, SEC 공시/재무, 뉴스를 수집해 스냅샷을 저장합니다.
소스 하나가 실패하면 해당 소스만 건너뜁니다.

Example:
  go run ./cmd/alphaforge ingest AAPL MSFT
  go run ./cmd/alphaforge ingest --known
  go run ./cmd/alphaforge ingest --csv screener.csv

--csv 파일은 Symbol/Ticker 열만 필수입니다. Name, Price, Market Cap, P/E,
FCF, D/E, 52W 열이 있으면 라이브 소스가 채우지 못한 값을 보충합니다.`,
	RunE: runIngest,
}

var (
	ingestKnown bool
	ingestCSV   string
)

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestKnown, "known", false, "저장된 모든 심볼 재수집")
	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "스크리너 CSV 파일에서 심볼 읽기")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !ingestKnown && ingestCSV == "" {
		return fmt.Errorf("give at least one symbol, --known or --csv")
	}

	var rows []ingest.CSVRow
	if ingestCSV != "" {
		f, err := os.Open(ingestCSV)
		if err != nil {
			return fmt.Errorf("open %s: %w", ingestCSV, err)
		}
		rows, err = ingest.ReadCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", ingestCSV, err)
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ingestor := a.ingestor()
	start := time.Now()

	var results []ingest.Result
	switch {
	case ingestCSV != "":
		PrintHeader("Ingestion", fmt.Sprintf("Symbols : %d rows from %s", len(rows), ingestCSV))
		results = ingestor.IngestRows(ctx, rows)
	case ingestKnown:
		PrintHeader("Ingestion", "Symbols : all known")
		results, err = ingestor.IngestKnown(ctx)
		if err != nil {
			return err
		}
	default:
		PrintHeader("Ingestion", "Symbols : "+strings.Join(args, ", "))
		results = ingestor.IngestAll(ctx, args)
	}

	widths := []int{8, 6, 10, 8, 5, 24}
	PrintTableHeader([]string{"SYMBOL", "ID", "STATEMENTS", "FILINGS", "NEWS", "SKIPPED / ERROR"}, widths)

	failed := 0
	for _, r := range results {
		note := strings.Join(r.Skipped, ",")
		if r.Error != nil {
			failed++
			note = r.Error.Error()
		}
		PrintTableRow([]string{
			r.Symbol,
			fmt.Sprintf("%d", r.CompanyID),
			fmt.Sprintf("%d", r.Statements),
			fmt.Sprintf("%d", r.Filings),
			fmt.Sprintf("%d", r.News),
			note,
		}, widths)
	}

	fmt.Println()
	if failed > 0 {
		PrintWarning(fmt.Sprintf("%d of %d symbols failed", failed, len(results)))
	}
	PrintSuccess(fmt.Sprintf("Ingested %d symbols in %.2fs", len(results)-failed, time.Since(start).Seconds()))
	return nil
}
