package screening

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
	"github.com/wonny/alphaforge/pkg/logger"
)

func fiveCompanies() *fakeRepo {
	repo := newFakeRepo()
	for id := int64(1); id <= 5; id++ {
		repo.snapshots[id] = cleanSnapshot(id, fmt.Sprintf("SYM%d", id))
	}
	delete(repo.snapshots, 3)
	repo.loadErr[3] = errors.New("snapshot row is corrupt")
	return repo
}

func TestBatchRunner_OneFailureDoesNotAbort(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers_%d", workers), func(t *testing.T) {
			repo := fiveCompanies()
			screener := newTestScreener(repo, &fakeFilings{status: allFiled()}, nil)
			runner := NewBatchRunner(screener, repo, BatchConfig{Workers: workers, ConfigHash: "abc"}, logger.Nop())

			summary := runner.Run(context.Background(), []int64{1, 2, 3, 4, 5})

			assert.Equal(t, 4, summary.Processed)
			assert.Equal(t, 1, summary.Errors)
			assert.Equal(t, 5, summary.Total)
			assert.Equal(t, "abc", summary.ConfigHash)
			require.Len(t, summary.Failures, 1)
			assert.Equal(t, int64(3), summary.Failures[0].CompanyID)

			// #4, #5 는 #3 실패 이후에도 처리됨
			assert.Contains(t, repo.saved, int64(4))
			assert.Contains(t, repo.saved, int64(5))

			_, err := uuid.Parse(summary.RunID)
			assert.NoError(t, err)
		})
	}
}

func TestBatchRunner_PersistFailureCountsAsError(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshots[1] = cleanSnapshot(1, "ACME")
	repo.snapshots[2] = cleanSnapshot(2, "BETA")
	repo.saveErr = errors.New("disk full")

	runner := NewBatchRunner(newTestScreener(repo, nil, nil), repo, BatchConfig{Workers: 1}, logger.Nop())
	summary := runner.Run(context.Background(), []int64{1, 2})

	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 2, summary.Total)
}

func TestBatchRunner_Disqualified(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshots[1] = cleanSnapshot(1, "ACME")
	repo.snapshots[2] = cleanSnapshot(2, "SHEL")

	filings := &perCompanyFilings{status: map[int64]contracts.FilingStatus{
		1: allFiled(),
		2: {"10-K": true},
	}}

	runner := NewBatchRunner(NewScreener(repo, filings, nil, scoringconfig.Default(), logger.Nop()), repo, BatchConfig{Workers: 2}, logger.Nop())
	summary, err := runner.RunAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Processed)
	require.Len(t, summary.Disqualified, 1)
	assert.Equal(t, "SHEL", summary.Disqualified[0].Symbol)
	assert.Equal(t, "No Recent SEC Filings: 10-Q, 8-K", summary.Disqualified[0].Reason)
}

func TestBatchRunner_Canceled(t *testing.T) {
	repo := fiveCompanies()
	runner := NewBatchRunner(newTestScreener(repo, nil, nil), repo, BatchConfig{Workers: 2}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := runner.Run(ctx, []int64{1, 2, 3, 4, 5})
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 5, summary.Errors)
	assert.Equal(t, 5, summary.Total)
}

func TestBatchRunner_EmptyResultIsFailure(t *testing.T) {
	runner := NewBatchRunner(nilScreener{}, newFakeRepo(), BatchConfig{}, logger.Nop())
	summary := runner.Run(context.Background(), []int64{7})

	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, "empty screening result", summary.Failures[0].Error)
}

func TestBatchRunner_PanicIsFailure(t *testing.T) {
	runner := NewBatchRunner(panicScreener{}, newFakeRepo(), BatchConfig{Workers: 1}, logger.Nop())
	summary := runner.Run(context.Background(), []int64{1, 2})

	assert.Equal(t, 2, summary.Errors)
	assert.Equal(t, 0, summary.Processed)
}

type perCompanyFilings struct {
	status map[int64]contracts.FilingStatus
}

func (f *perCompanyFilings) RecentFilings(ctx context.Context, id int64) (contracts.FilingStatus, error) {
	return f.status[id], nil
}

type nilScreener struct{}

func (nilScreener) Screen(ctx context.Context, id int64) (*contracts.ScreeningResult, error) {
	return nil, nil
}

type panicScreener struct{}

func (panicScreener) Screen(ctx context.Context, id int64) (*contracts.ScreeningResult, error) {
	panic("repository handle closed")
}
