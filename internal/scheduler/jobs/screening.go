package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/alphaforge/internal/scheduler"
	"github.com/wonny/alphaforge/internal/screening"
	"github.com/wonny/alphaforge/pkg/logger"
)

// BatchScreener runs a full screening batch (implemented by *screening.BatchRunner)
type BatchScreener interface {
	RunAll(ctx context.Context) (*screening.BatchSummary, error)
}

// SummaryNotifier delivers the batch summary (implemented by *notify.Mailer)
type SummaryNotifier interface {
	SendBatchSummary(ctx context.Context, summary *screening.BatchSummary) error
}

// NightlyScreeningJob screens every company after the nightly ingestion
type NightlyScreeningJob struct {
	batch    BatchScreener
	notifier SummaryNotifier // optional
	logger   *logger.Logger
}

// NewNightlyScreeningJob creates a new nightly screening job
func NewNightlyScreeningJob(batch BatchScreener, notifier SummaryNotifier, log *logger.Logger) *NightlyScreeningJob {
	return &NightlyScreeningJob{
		batch:    batch,
		notifier: notifier,
		logger:   log,
	}
}

// Name returns the job name
func (j *NightlyScreeningJob) Name() string {
	return "nightly_screening"
}

// Schedule returns the cron schedule (weekdays 03:30)
func (j *NightlyScreeningJob) Schedule() string {
	return "0 30 3 * * 1-5"
}

// Run executes the batch and mails the summary
func (j *NightlyScreeningJob) Run(ctx context.Context) (scheduler.RunReport, error) {
	j.logger.Info("Starting scheduled quality screening")

	summary, err := j.batch.RunAll(ctx)
	if err != nil {
		return scheduler.RunReport{}, fmt.Errorf("run screening batch: %w", err)
	}

	report := scheduler.RunReport{
		Companies:    summary.Total,
		Failed:       summary.Errors,
		Disqualified: len(summary.Disqualified),
		RunID:        summary.RunID,
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":       summary.RunID,
		"processed":    summary.Processed,
		"errors":       summary.Errors,
		"disqualified": report.Disqualified,
	}).Info("Scheduled quality screening completed")

	// 메일 실패로 배치를 재실행하지 않음
	if j.notifier != nil {
		if err := j.notifier.SendBatchSummary(ctx, summary); err != nil {
			j.logger.WithError(err).Warn("Failed to send batch summary")
		}
	}

	return report, nil
}
