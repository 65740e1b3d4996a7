package screening

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
	"github.com/wonny/alphaforge/pkg/logger"
)

type fakeRepo struct {
	mu        sync.Mutex
	snapshots map[int64]*contracts.CompanySnapshot
	histories map[int64]*contracts.FinancialHistory
	loadErr   map[int64]error
	saveErr   error
	saved     map[int64]*contracts.ScreeningResult
	saves     int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		snapshots: make(map[int64]*contracts.CompanySnapshot),
		histories: make(map[int64]*contracts.FinancialHistory),
		loadErr:   make(map[int64]error),
		saved:     make(map[int64]*contracts.ScreeningResult),
	}
}

func (r *fakeRepo) ListCompanyIDs(ctx context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.snapshots)+len(r.loadErr))
	for id := range r.snapshots {
		ids = append(ids, id)
	}
	for id := range r.loadErr {
		if _, ok := r.snapshots[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeRepo) LoadSnapshot(ctx context.Context, id int64) (*contracts.CompanySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.loadErr[id]; ok {
		return nil, err
	}
	s, ok := r.snapshots[id]
	if !ok {
		return nil, contracts.ErrCompanyNotFound
	}
	return s, nil
}

func (r *fakeRepo) LoadHistory(ctx context.Context, id int64) (*contracts.FinancialHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.histories[id], nil
}

func (r *fakeRepo) SaveResult(ctx context.Context, result *contracts.ScreeningResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[result.CompanyID] = result
	return nil
}

type fakeFilings struct {
	status contracts.FilingStatus
	err    error
}

func (f *fakeFilings) RecentFilings(ctx context.Context, id int64) (contracts.FilingStatus, error) {
	return f.status, f.err
}

type fakeNews struct {
	items []contracts.NewsRedFlag
}

func (f *fakeNews) RedFlagNews(ctx context.Context, id int64) ([]contracts.NewsRedFlag, error) {
	return f.items, nil
}

type panicRule struct{}

func (panicRule) Rule() contracts.RuleName { return contracts.RuleName("exploding") }

func (panicRule) Evaluate(in Input) (Outcome, error) {
	var m map[string]int
	m["boom"] = 1
	return Outcome{}, nil
}

// fixedRule emits the same findings on every run
type fixedRule struct {
	name     contracts.RuleName
	findings []contracts.Finding
}

func (r fixedRule) Rule() contracts.RuleName { return r.name }

func (r fixedRule) Evaluate(in Input) (Outcome, error) {
	return Outcome{Findings: r.findings}, nil
}

type failingRule struct{}

func (failingRule) Rule() contracts.RuleName { return contracts.RuleDebt }

func (failingRule) Evaluate(in Input) (Outcome, error) {
	return Outcome{}, errors.New("ratio source unavailable")
}

func allFiled() contracts.FilingStatus {
	return contracts.FilingStatus{
		contracts.Form10K:    true,
		contracts.Form10Q:    true,
		contracts.Form8K:     true,
		contracts.FormDEF14A: true,
	}
}

// cleanSnapshot produces no findings under the default configuration
func cleanSnapshot(id int64, symbol string) *contracts.CompanySnapshot {
	return &contracts.CompanySnapshot{
		ID:                id,
		Symbol:            symbol,
		Exchange:          "NMS",
		MarketCap:         contracts.Float64(2.5e9),
		Price:             contracts.Float64(42.5),
		NetDebtToEBITDA:   contracts.Float64(1.2),
		ShareholderEquity: contracts.Float64(8.0e8),
		AvgDailyVolume:    contracts.Int64(1_250_000),
	}
}

func newTestScreener(repo *fakeRepo, filings contracts.FilingStatusProvider, news contracts.NewsProvider) *Screener {
	return NewScreener(repo, filings, news, scoringconfig.Default(), logger.Nop())
}

func series(values ...float64) []contracts.AnnualValue {
	out := make([]contracts.AnnualValue, len(values))
	for i, v := range values {
		out[i] = contracts.AnnualValue{FiscalYear: 2020 + i, Value: v}
	}
	return out
}

// yearly builds a series from (year, value) pairs
func yearly(pairs ...float64) []contracts.AnnualValue {
	out := make([]contracts.AnnualValue, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, contracts.AnnualValue{FiscalYear: int(pairs[i]), Value: pairs[i+1]})
	}
	return out
}
