package screening

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/logger"
)

// CompanyScreener screens one company (implemented by *Screener)
type CompanyScreener interface {
	Screen(ctx context.Context, companyID int64) (*contracts.ScreeningResult, error)
}

// CompanyLister lists the companies of a batch
type CompanyLister interface {
	ListCompanyIDs(ctx context.Context) ([]int64, error)
}

// BatchConfig holds batch runner configuration
type BatchConfig struct {
	Workers    int    // 1 = sequential
	ConfigHash string // scoring config hash for audit
}

// BatchSummary is the outcome of one batch run
type BatchSummary struct {
	RunID        string                `json:"run_id"`
	ConfigHash   string                `json:"config_hash"`
	Processed    int                   `json:"processed"`
	Errors       int                   `json:"errors"`
	Total        int                   `json:"total"`
	Disqualified []DisqualifiedCompany `json:"disqualified"`
	Failures     []BatchFailure        `json:"failures"`
	StartedAt    time.Time             `json:"started_at"`
	Duration     time.Duration         `json:"duration"`
}

// DisqualifiedCompany records one company disqualified in the run
type DisqualifiedCompany struct {
	CompanyID    int64  `json:"company_id"`
	Symbol       string `json:"symbol"`
	QualityScore int    `json:"quality_score"`
	Reason       string `json:"reason,omitempty"`
}

// BatchFailure records one company that could not be screened
type BatchFailure struct {
	CompanyID int64  `json:"company_id"`
	Error     string `json:"error"`
}

// batchResult is one worker result
type batchResult struct {
	companyID int64
	result    *contracts.ScreeningResult
	err       error
}

// BatchRunner screens many companies; one failure never aborts the batch
type BatchRunner struct {
	screener CompanyScreener
	lister   CompanyLister
	cfg      BatchConfig
	logger   *logger.Logger
}

// NewBatchRunner creates a new BatchRunner
func NewBatchRunner(screener CompanyScreener, lister CompanyLister, cfg BatchConfig, log *logger.Logger) *BatchRunner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &BatchRunner{
		screener: screener,
		lister:   lister,
		cfg:      cfg,
		logger:   log.WithField("module", "batch"),
	}
}

// RunAll screens every known company
func (b *BatchRunner) RunAll(ctx context.Context) (*BatchSummary, error) {
	ids, err := b.lister.ListCompanyIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	if len(ids) == 0 {
		b.logger.Warn("No companies found")
	}
	return b.Run(ctx, ids), nil
}

// Run screens the given companies with a worker pool
func (b *BatchRunner) Run(ctx context.Context, ids []int64) *BatchSummary {
	summary := &BatchSummary{
		RunID:        uuid.NewString(),
		ConfigHash:   b.cfg.ConfigHash,
		Total:        len(ids),
		Disqualified: []DisqualifiedCompany{},
		Failures:     []BatchFailure{},
		StartedAt:    time.Now(),
	}

	log := b.logger.WithField("run_id", summary.RunID)
	log.WithFields(map[string]interface{}{
		"total":   len(ids),
		"workers": b.cfg.Workers,
	}).Info("Starting quality screening batch")

	resultCh := make(chan batchResult, len(ids))
	idCh := make(chan int64, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < b.cfg.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			b.worker(ctx, workerID, idCh, resultCh)
		}(i)
	}

	for _, id := range ids {
		idCh <- id
	}
	close(idCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// 카운터는 수집 고루틴에서만 누적
	for r := range resultCh {
		if r.err != nil {
			summary.Errors++
			summary.Failures = append(summary.Failures, BatchFailure{CompanyID: r.companyID, Error: r.err.Error()})
			log.WithError(r.err).WithField("company_id", r.companyID).Error("Company screening failed")
			continue
		}

		summary.Processed++
		if r.result.Disqualified {
			summary.Disqualified = append(summary.Disqualified, DisqualifiedCompany{
				CompanyID:    r.companyID,
				Symbol:       r.result.Symbol,
				QualityScore: r.result.QualityScore,
				Reason:       firstFinding(r.result, contracts.CategoryFilingAbsence),
			})
		}
		log.WithFields(map[string]interface{}{
			"company_id": r.companyID,
			"symbol":     r.result.Symbol,
			"score":      r.result.QualityScore,
		}).Debug("Company screened")
	}

	sort.Slice(summary.Failures, func(i, j int) bool { return summary.Failures[i].CompanyID < summary.Failures[j].CompanyID })
	sort.Slice(summary.Disqualified, func(i, j int) bool { return summary.Disqualified[i].CompanyID < summary.Disqualified[j].CompanyID })
	summary.Duration = time.Since(summary.StartedAt)

	log.WithFields(map[string]interface{}{
		"processed":    summary.Processed,
		"errors":       summary.Errors,
		"total":        summary.Total,
		"disqualified": len(summary.Disqualified),
		"duration":     summary.Duration,
	}).Info("Quality screening batch completed")

	return summary
}

// worker screens ids until the channel is drained
func (b *BatchRunner) worker(ctx context.Context, workerID int, idCh <-chan int64, resultCh chan<- batchResult) {
	for id := range idCh {
		select {
		case <-ctx.Done():
			resultCh <- batchResult{companyID: id, err: ctx.Err()}
			continue
		default:
		}

		resultCh <- b.screenOne(ctx, workerID, id)
	}
}

func (b *BatchRunner) screenOne(ctx context.Context, workerID int, id int64) (res batchResult) {
	res.companyID = id

	defer func() {
		if r := recover(); r != nil {
			res = batchResult{companyID: id, err: fmt.Errorf("screening panicked: %v", r)}
		}
	}()

	result, err := b.screener.Screen(ctx, id)
	switch {
	case err != nil:
		res.err = err
	case result == nil:
		res.err = errors.New("empty screening result")
	default:
		res.result = result
	}

	if res.err != nil {
		b.logger.WithFields(map[string]interface{}{
			"worker":     workerID,
			"company_id": id,
		}).Debug("Worker recorded failure")
	}
	return res
}

func firstFinding(r *contracts.ScreeningResult, category contracts.Category) string {
	for _, f := range r.Findings {
		if f.Category == category {
			return f.Message
		}
	}
	return ""
}
