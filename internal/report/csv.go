package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wonny/alphaforge/internal/contracts"
)

// FlagSeparator joins red flags into one CSV cell
const FlagSeparator = "; "

// CSVHeader is the export column order
var CSVHeader = []string{"id", "symbol", "quality_score", "disqualified", "red_flags"}

// WriteCSV writes stored results as CSV rows
func WriteCSV(w io.Writer, results []contracts.StoredResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range results {
		row := []string{
			strconv.FormatInt(r.CompanyID, 10),
			r.Symbol,
			strconv.Itoa(r.QualityScore),
			strconv.FormatBool(r.Disqualified),
			strings.Join(r.RedFlags, FlagSeparator),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write company %d: %w", r.CompanyID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportResults loads the filtered results and writes them as CSV
func ExportResults(ctx context.Context, repo contracts.ResultRepository, filter contracts.ResultFilter, w io.Writer) (int, error) {
	results, err := repo.ListResults(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("list results: %w", err)
	}
	if err := WriteCSV(w, results); err != nil {
		return 0, err
	}
	return len(results), nil
}
