package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/alphaforge/internal/ingest"
	"github.com/wonny/alphaforge/internal/scheduler"
	"github.com/wonny/alphaforge/pkg/logger"
)

// KnownIngester re-ingests every stored symbol (implemented by *ingest.Ingestor)
type KnownIngester interface {
	IngestKnown(ctx context.Context) ([]ingest.Result, error)
}

// NightlyIngestJob refreshes every known company before screening
// ⭐ SSOT: 야간 수집 스케줄은 이 Job에서만
type NightlyIngestJob struct {
	ingester KnownIngester
	logger   *logger.Logger
}

// NewNightlyIngestJob creates a new nightly ingest job
func NewNightlyIngestJob(ingester KnownIngester, log *logger.Logger) *NightlyIngestJob {
	return &NightlyIngestJob{
		ingester: ingester,
		logger:   log,
	}
}

// Name returns the job name
func (j *NightlyIngestJob) Name() string {
	return "nightly_ingest"
}

// Schedule returns the cron schedule (weekdays 02:00)
func (j *NightlyIngestJob) Schedule() string {
	return "0 0 2 * * 1-5"
}

// Run executes the ingestion.
// Per-company failures are reported, not returned; a retry would re-fetch every symbol.
func (j *NightlyIngestJob) Run(ctx context.Context) (scheduler.RunReport, error) {
	j.logger.Info("Starting scheduled ingestion")

	results, err := j.ingester.IngestKnown(ctx)
	if err != nil {
		return scheduler.RunReport{}, fmt.Errorf("ingest known symbols: %w", err)
	}

	report := scheduler.RunReport{Companies: len(results)}
	skipped := 0
	for _, r := range results {
		if r.Error != nil {
			report.Failed++
		}
		if len(r.Skipped) > 0 {
			skipped++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"total":        report.Companies,
		"failed":       report.Failed,
		"with_skipped": skipped,
	}).Info("Scheduled ingestion completed")

	return report, nil
}
