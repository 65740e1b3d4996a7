package corpaction

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/logger"
)

var testNow = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	d := NewDetector(logger.Nop())
	d.now = func() time.Time { return testNow }
	return d
}

// daily closes ending today
func closes(prices ...float64) []PricePoint {
	points := make([]PricePoint, len(prices))
	start := testNow.AddDate(0, 0, -len(prices)+1)
	for i, p := range prices {
		points[i] = PricePoint{Date: start.AddDate(0, 0, i), Close: p}
	}
	return points
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func geometric(from, to float64, n int) []float64 {
	out := make([]float64, n)
	step := math.Pow(to/from, 1/float64(n-1))
	for i := range out {
		out[i] = from * math.Pow(step, float64(i))
	}
	return out
}

func TestDetect_ConfirmedSplits(t *testing.T) {
	d := newTestDetector()

	ca := d.Detect(Input{
		Symbol: "ACME",
		Splits: []Split{
			{Date: testNow.AddDate(-1, 0, 0), Numerator: 2, Denominator: 1},
			{Date: testNow.AddDate(-2, 0, 0), Numerator: 1, Denominator: 10},
			{Date: testNow.AddDate(-6, 0, 0), Numerator: 3, Denominator: 1},
		},
		// 변동성이 커도 확정 분할이 있으면 추정 단계는 생략
		Closes: closes(100, 130, 100, 130, 100, 130),
	})

	assert.True(t, ca.IsConfirmed())
	assert.Equal(t, 2, ca.SplitCount)
	assert.False(t, ca.PotentialActionDetected)
	assert.Equal(t, []string{"Corporate Action: Stock Split", "Corporate Action: Reverse Split"}, ca.Flags)
	require.Len(t, ca.RecentSplits, 2)
	assert.Equal(t, 2.0, ca.RecentSplits[0].Ratio)
	assert.Equal(t, 0.1, ca.RecentSplits[1].Ratio)
	assert.Equal(t, contracts.ConfidenceHigh, ca.RecentSplits[0].Confidence)
}

func TestDetect_Heuristics(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		wantFlags []string
	}{
		{
			name:      "stable prices",
			in:        Input{Closes: closes(repeat(100, 300)...)},
			wantFlags: nil,
		},
		{
			name:      "no price data",
			in:        Input{},
			wantFlags: nil,
		},
		{
			name:      "large drop",
			in:        Input{Closes: closes(append(repeat(200, 100), repeat(100, 60)...)...)},
			wantFlags: []string{"Corporate Action: Potential Reverse Split (Detected)"},
		},
		{
			name:      "large jump",
			in:        Input{Closes: closes(append(repeat(20, 100), repeat(30, 60)...)...)},
			wantFlags: []string{"Corporate Action: Potential Stock Split (Detected)"},
		},
		{
			name:      "high volatility",
			in:        Input{Closes: closes(100, 130, 100, 130, 100, 130, 100, 130, 100, 130, 100)},
			wantFlags: []string{FlagHighVolatility},
		},
		{
			name:      "extreme price range",
			in:        Input{Closes: closes(geometric(10, 40, 200)...)},
			wantFlags: []string{FlagExtremeRange},
		},
		{
			name:      "low current vs high historical",
			in:        Input{Closes: closes(append(repeat(160, 100), geometric(160, 95, 101)[1:]...)...)},
			wantFlags: []string{FlagLowVsHigh},
		},
		{
			name: "market cap discrepancy",
			in: Input{
				Closes:            closes(repeat(100, 10)...),
				MarketCap:         contracts.Float64(1e9),
				SharesOutstanding: contracts.Float64(1e6),
			},
			wantFlags: []string{FlagMarketCapMismatch},
		},
		{
			name: "market cap consistent",
			in: Input{
				Closes:            closes(repeat(100, 10)...),
				MarketCap:         contracts.Float64(1e8),
				SharesOutstanding: contracts.Float64(1e6),
			},
			wantFlags: nil,
		},
		{
			name:      "deviation from 50 day average",
			in:        Input{Closes: closes(append(repeat(100, 100), 135)...)},
			wantFlags: []string{FlagPriceDeviation},
		},
		{
			name: "drop older than two years ignored",
			in: Input{Closes: append(
				[]PricePoint{
					{Date: testNow.AddDate(-3, 0, 0), Close: 400},
					{Date: testNow.AddDate(-3, 0, 1), Close: 100},
				},
				closes(repeat(100, 30)...)...,
			)},
			wantFlags: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ca := newTestDetector().Detect(tt.in)

			assert.Equal(t, tt.wantFlags, ca.Flags)
			assert.Equal(t, len(tt.wantFlags) > 0, ca.PotentialActionDetected)
			assert.False(t, ca.IsConfirmed())
		})
	}
}

func TestDetect_HeuristicSplitEvent(t *testing.T) {
	ca := newTestDetector().Detect(Input{Closes: closes(append(repeat(200, 100), repeat(100, 60)...)...)})

	require.Len(t, ca.RecentSplits, 1)
	ev := ca.RecentSplits[0]
	assert.Equal(t, TypePotentialReverseSplit, ev.Type)
	assert.Equal(t, contracts.ConfidenceLow, ev.Confidence)
	assert.Equal(t, 0.67, ev.Ratio)
	assert.Equal(t, testNow.AddDate(0, 0, -59), ev.Date)
}

func TestSplitRatio(t *testing.T) {
	assert.Equal(t, 4.0, Split{Numerator: 4, Denominator: 1}.Ratio())
	assert.Equal(t, 0.0, Split{Numerator: 4}.Ratio())
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "none", Summary(contracts.CorporateActions{}))
	assert.Equal(t, "a; b", Summary(contracts.CorporateActions{Flags: []string{"a", "b"}}))
}
