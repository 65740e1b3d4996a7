package screening

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/internal/scoringconfig"
)

func TestAggregate(t *testing.T) {
	cfg := scoringconfig.Default()

	tests := []struct {
		name     string
		findings []contracts.Finding
		caPen    int
		want     int
	}{
		{"no findings", nil, 0, 100},
		{"high debt", []contracts.Finding{{Category: contracts.CategoryHighDebt}}, 0, 85},
		{"informational only", []contracts.Finding{{Category: contracts.CategoryFCFTrend}, {Category: contracts.CategoryDebtGrowth}}, 0, 100},
		{"each news pair counts", []contracts.Finding{{Category: contracts.CategoryNewsRedFlag}, {Category: contracts.CategoryNewsRedFlag}}, 0, 86},
		{
			name: "corporate action applied once",
			findings: []contracts.Finding{
				{Category: contracts.CategoryCorporateAction, Message: "Corporate Action: Stock Split"},
				{Category: contracts.CategoryCorporateAction, Message: "Corporate Action: Reverse Split"},
			},
			caPen: -5,
			want:  95,
		},
		{
			name: "floor at zero",
			findings: []contracts.Finding{
				{Category: contracts.CategoryFilingAbsence},
				{Category: contracts.CategoryHighDebt},
				{Category: contracts.CategoryNegativeEquity},
				{Category: contracts.CategoryNegativeFCF},
				{Category: contracts.CategoryOperatingLoss},
				{Category: contracts.CategoryNewsRedFlag},
				{Category: contracts.CategoryNewsRedFlag},
				{Category: contracts.CategoryNewsRedFlag},
				{Category: contracts.CategoryNewsRedFlag},
				{Category: contracts.CategoryLowVolume},
				{Category: contracts.CategoryOTCExchange},
			},
			caPen: -5,
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.findings, tt.caPen, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_Unclassified(t *testing.T) {
	_, err := Aggregate([]contracts.Finding{{Category: "mystery", Message: "Something odd"}}, 0, scoringconfig.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnclassifiedFinding))
}

func TestScreen_NoFindings(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshots[1] = cleanSnapshot(1, "ACME")

	result, err := newTestScreener(repo, &fakeFilings{status: allFiled()}, &fakeNews{}).Screen(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 100, result.QualityScore)
	assert.False(t, result.Disqualified)
	assert.Empty(t, result.Findings)
	assert.Len(t, result.Details, 9)
	assert.Same(t, result, repo.saved[1])
}

func TestScreen_MissingFilingData(t *testing.T) {
	repo := newFakeRepo()
	repo.snapshots[1] = cleanSnapshot(1, "ACME")

	t.Run("no provider", func(t *testing.T) {
		result, err := newTestScreener(repo, nil, nil).Screen(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, result.Disqualified)
		assert.Equal(t, 100, result.QualityScore)
	})

	t.Run("provider error", func(t *testing.T) {
		result, err := newTestScreener(repo, &fakeFilings{err: errors.New("filings store down")}, nil).Screen(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, result.Disqualified)
	})

	t.Run("all false", func(t *testing.T) {
		status := contracts.FilingStatus{"10-K": false, "10-Q": false, "8-K": false, "DEF 14A": false}
		result, err := newTestScreener(repo, &fakeFilings{status: status}, nil).Screen(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, result.Disqualified)
		assert.Equal(t, []string{"No Recent SEC Filings: 10-K, 10-Q, 8-K"}, result.RedFlags())
		assert.Equal(t, 80, result.QualityScore)
	})
}

func TestScreen_HighDebt(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "ACME")
	snap.NetDebtToEBITDA = contracts.Float64(6.2)
	repo.snapshots[1] = snap

	result, err := newTestScreener(repo, &fakeFilings{status: allFiled()}, nil).Screen(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"High Debt Burden: Net Debt/EBITDA = 6.20"}, result.RedFlags())
	assert.Equal(t, 85, result.QualityScore)
}

func TestScreen_CorporateAction(t *testing.T) {
	tests := []struct {
		name string
		ca   contracts.CorporateActions
		want int
	}{
		{"confirmed full penalty", contracts.CorporateActions{HasRecentSplits: true, SplitCount: 2, Flags: []string{"Corporate Action: Stock Split"}}, 95},
		{"potential half penalty", contracts.CorporateActions{PotentialActionDetected: true, Flags: []string{"Corporate Action: High Volatility Pattern (Requires Review)"}}, 98},
		{"confirmed without flags", contracts.CorporateActions{HasRecentSplits: true, SplitCount: 2}, 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			snap := cleanSnapshot(1, "ACME")
			snap.CorporateActions = tt.ca
			repo.snapshots[1] = snap

			result, err := newTestScreener(repo, &fakeFilings{status: allFiled()}, nil).Screen(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.QualityScore)
		})
	}
}

func TestScreen_FindingOrder(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "PENY")
	snap.Exchange = "PNK"
	snap.AvgDailyVolume = contracts.Int64(1000)
	snap.ShareholderEquity = contracts.Float64(-50000)
	snap.NetDebtToEBITDA = contracts.Float64(9)
	snap.CorporateActions = contracts.CorporateActions{PotentialActionDetected: true, Flags: []string{"Corporate Action: Potential Reverse Split (Detected)"}}
	repo.snapshots[1] = snap
	repo.histories[1] = &contracts.FinancialHistory{
		FreeCashFlow:    series(-10, -20, -15, -25, -30),
		OperatingIncome: series(-1, -1, -1, -1, 2),
	}
	news := &fakeNews{items: []contracts.NewsRedFlag{{Headline: "PENY files for bankruptcy", Keywords: []string{"bankruptcy"}}}}

	result, err := newTestScreener(repo, &fakeFilings{status: contracts.FilingStatus{"10-K": true}}, news).Screen(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"No Recent SEC Filings: 10-Q, 8-K",
		"Persistent Negative FCF: 5/5 years",
		"Accelerating Negative FCF Trend",
		"Persistent Operating Losses: 4/5 years",
		"High Debt Burden: Net Debt/EBITDA = 9.00",
		"Negative Shareholder Equity: $-50,000",
		"Low Trading Volume: 1,000 shares/day",
		"OTC Exchange: PNK",
		"News Red Flag - bankruptcy: PENY files for bankruptcy...",
		"Corporate Action: Potential Reverse Split (Detected)",
	}, result.RedFlags())
	assert.True(t, result.Disqualified)
	// 100 -20 -10 -8 -15 -12 -5 -3 -7 -2 = 18
	assert.Equal(t, 18, result.QualityScore)
}

func TestScreen_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "ACME")
	snap.NetDebtToEBITDA = contracts.Float64(6.2)
	snap.Exchange = "OTCQX"
	repo.snapshots[1] = snap
	repo.histories[1] = &contracts.FinancialHistory{FreeCashFlow: series(-10, -20, -15, -25, -30)}
	news := &fakeNews{items: []contracts.NewsRedFlag{{Headline: "ACME restatement", Keywords: []string{"restatement", "audit"}}}}

	screener := newTestScreener(repo, &fakeFilings{status: allFiled()}, news)

	first, err := screener.Screen(context.Background(), 1)
	require.NoError(t, err)
	second, err := screener.Screen(context.Background(), 1)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestScreen_SnapshotNotFound(t *testing.T) {
	repo := newFakeRepo()

	result, err := newTestScreener(repo, nil, nil).Screen(context.Background(), 42)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrSnapshotLoad))
	assert.True(t, errors.Is(err, contracts.ErrCompanyNotFound))
	assert.Equal(t, 0, repo.saves)
}

func TestScreen_PersistFailure(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "ACME")
	snap.AvgDailyVolume = contracts.Int64(100)
	repo.snapshots[1] = snap
	repo.saveErr = errors.New("database is locked")

	result, err := newTestScreener(repo, &fakeFilings{status: allFiled()}, nil).Screen(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersist))

	// 저장 실패해도 계산된 결과는 반환
	require.NotNil(t, result)
	assert.Equal(t, 95, result.QualityScore)
}

func TestScreen_EvaluatorFailureIsolated(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "ACME")
	snap.Exchange = "PNK"
	snap.AvgDailyVolume = contracts.Int64(10)
	repo.snapshots[1] = snap

	screener := newTestScreener(repo, nil, nil).WithEvaluators(
		NewExchangeRule(),
		panicRule{},
		failingRule{},
		NewLiquidityRule(50000),
	)

	result, err := screener.Screen(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"OTC Exchange: PNK", "Low Trading Volume: 10 shares/day"}, result.RedFlags())
	assert.Equal(t, 92, result.QualityScore)

	failure, ok := result.Details[contracts.RuleName("exploding")].(contracts.EvaluatorFailure)
	require.True(t, ok)
	assert.Contains(t, failure.Error, "panicked")

	failure, ok = result.Details[contracts.RuleDebt].(contracts.EvaluatorFailure)
	require.True(t, ok)
	assert.Equal(t, "ratio source unavailable", failure.Error)
}

func TestScreen_CorporateActionDedupAcrossRules(t *testing.T) {
	repo := newFakeRepo()
	snap := cleanSnapshot(1, "ACME")
	snap.CorporateActions = contracts.CorporateActions{
		HasRecentSplits: true,
		SplitCount:      1,
		Flags:           []string{"Corporate Action: Stock Split", "Corporate Action: Reverse Split"},
	}
	repo.snapshots[1] = snap

	earlier := fixedRule{
		name:     contracts.RuleNews,
		findings: []contracts.Finding{{Category: contracts.CategoryNewsRedFlag, Message: "Corporate Action: Stock Split"}},
	}
	screener := newTestScreener(repo, nil, nil).WithEvaluators(earlier, NewCorporateActionRule(-5))

	result, err := screener.Screen(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"Corporate Action: Stock Split", "Corporate Action: Reverse Split"}, result.RedFlags())
	assert.Equal(t, 88, result.QualityScore)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	snap := cleanSnapshot(1, "ACME")
	snap.CorporateActions = contracts.CorporateActions{HasRecentSplits: true, SplitCount: 1, Flags: []string{"Corporate Action: Stock Split"}}
	history := &contracts.FinancialHistory{FreeCashFlow: series(-1, -2, -3, -4, -5)}

	before, err := json.Marshal(struct {
		S *contracts.CompanySnapshot
		H *contracts.FinancialHistory
	}{snap, history})
	require.NoError(t, err)

	_, err = newTestScreener(newFakeRepo(), nil, nil).Evaluate(Input{Snapshot: snap, History: history, Filings: allFiled()})
	require.NoError(t, err)

	after, err := json.Marshal(struct {
		S *contracts.CompanySnapshot
		H *contracts.FinancialHistory
	}{snap, history})
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
