package corpaction

import (
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/alphaforge/internal/contracts"
	"github.com/wonny/alphaforge/pkg/logger"
)

// Detection windows and thresholds
// ⭐ SSOT: 기업 행위(분할/병합) 탐지 기준은 여기서만
const (
	ConfirmedWindow = 5 * 365 * 24 * time.Hour
	HeuristicWindow = 2 * 365 * 24 * time.Hour

	LargeDailyChange       = 0.40
	ReverseSplitChange     = -0.30
	HighVolatility         = 0.15
	ExtremePriceRange      = 3.0
	LowCurrentPrice        = 100.0
	HighHistoricalPrice    = 150.0
	MarketCapDiscrepancy   = 0.50
	MovingAverageWindow    = 50
	MovingAverageDeviation = 0.30
)

// Split types
const (
	TypeStockSplit            = "Stock Split"
	TypeReverseSplit          = "Reverse Split"
	TypePotentialStockSplit   = "Potential Stock Split"
	TypePotentialReverseSplit = "Potential Reverse Split"
)

// Heuristic flag texts
const (
	FlagHighVolatility    = "Corporate Action: High Volatility Pattern (Requires Review)"
	FlagExtremeRange      = "Corporate Action: Extreme Price Range (Possible Split)"
	FlagLowVsHigh         = "Corporate Action: Low Current vs High Historical Price (Possible Split)"
	FlagMarketCapMismatch = "Corporate Action: Market Cap/Price Discrepancy (Data Inconsistency)"
	FlagPriceDeviation    = "Corporate Action: Significant Price Deviation (Possible Split)"
)

// Split is one split event from market data (ratio = numerator / denominator)
type Split struct {
	Date        time.Time
	Numerator   float64
	Denominator float64
}

// Ratio returns the split ratio (>1 split, <1 reverse split)
func (s Split) Ratio() float64 {
	if s.Denominator == 0 {
		return 0
	}
	return s.Numerator / s.Denominator
}

// PricePoint is one daily close
type PricePoint struct {
	Date  time.Time
	Close float64
}

// Input is the market data used for detection
type Input struct {
	Symbol            string
	Splits            []Split
	Closes            []PricePoint // oldest first
	MarketCap         *float64
	SharesOutstanding *float64
}

// Detector builds contracts.CorporateActions from market data
type Detector struct {
	logger *logger.Logger
	now    func() time.Time
}

// NewDetector creates a new Detector
func NewDetector(log *logger.Logger) *Detector {
	return &Detector{logger: log, now: time.Now}
}

// Detect checks split history first; heuristics run only when no confirmed split exists
func (d *Detector) Detect(in Input) contracts.CorporateActions {
	now := d.now()
	result := d.confirmed(in, now)
	if result.IsConfirmed() {
		return result
	}

	potential := d.heuristic(in, now)
	if potential.PotentialActionDetected {
		d.logger.WithField("symbol", in.Symbol).
			Warn("Potential corporate action detected, requires manual verification")
	}
	return potential
}

func (d *Detector) confirmed(in Input, now time.Time) contracts.CorporateActions {
	var ca contracts.CorporateActions
	cutoff := now.Add(-ConfirmedWindow)

	for _, s := range in.Splits {
		ratio := s.Ratio()
		if ratio == 0 || ratio == 1 || s.Date.Before(cutoff) {
			continue
		}

		splitType := TypeStockSplit
		if ratio < 1 {
			splitType = TypeReverseSplit
		}

		ca.RecentSplits = append(ca.RecentSplits, contracts.SplitEvent{
			Date:       s.Date,
			Ratio:      ratio,
			Type:       splitType,
			Confidence: contracts.ConfidenceHigh,
		})
		ca.Flags = append(ca.Flags, "Corporate Action: "+splitType)

		d.logger.WithFields(map[string]interface{}{
			"symbol": in.Symbol,
			"type":   splitType,
			"date":   s.Date.Format("2006-01-02"),
			"ratio":  ratio,
		}).Info("Found split")
	}

	ca.SplitCount = len(ca.RecentSplits)
	ca.HasRecentSplits = ca.SplitCount > 0
	return ca
}

// heuristic looks for split-like price patterns (low confidence)
func (d *Detector) heuristic(in Input, now time.Time) contracts.CorporateActions {
	var ca contracts.CorporateActions

	closes, dates := recentCloses(in.Closes, now.Add(-HeuristicWindow))
	if len(closes) == 0 {
		return ca
	}

	flag := func(text string) {
		ca.PotentialActionDetected = true
		ca.Flags = append(ca.Flags, text)
	}

	returns := dailyReturns(closes)

	// 하루 40% 이상 변동 → 분할/병합 추정
	for i, r := range returns {
		if math.Abs(r) <= LargeDailyChange {
			continue
		}

		splitType := TypePotentialStockSplit
		ratio := 1 + r
		if r < ReverseSplitChange {
			splitType = TypePotentialReverseSplit
			ratio = 1 / (1 + math.Abs(r))
		}

		ca.RecentSplits = append(ca.RecentSplits, contracts.SplitEvent{
			Date:       dates[i+1],
			Ratio:      math.Round(ratio*100) / 100,
			Type:       splitType,
			Confidence: contracts.ConfidenceLow,
		})
		flag("Corporate Action: " + splitType + " (Detected)")
	}

	if len(returns) > 1 && stat.StdDev(returns, nil) > HighVolatility {
		flag(FlagHighVolatility)
	}

	current := closes[len(closes)-1]
	maxPrice := floats.Max(closes)
	minPrice := floats.Min(closes)

	if minPrice > 0 && maxPrice/minPrice > ExtremePriceRange {
		flag(FlagExtremeRange)
	}

	if current < LowCurrentPrice && maxPrice > HighHistoricalPrice {
		flag(FlagLowVsHigh)
	}

	if in.MarketCap != nil && in.SharesOutstanding != nil && *in.MarketCap > 0 && *in.SharesOutstanding > 0 && current > 0 {
		implied := *in.MarketCap / *in.SharesOutstanding
		if math.Abs(implied-current)/current > MarketCapDiscrepancy {
			flag(FlagMarketCapMismatch)
		}
	}

	if len(closes) > MovingAverageWindow {
		avg := stat.Mean(closes[len(closes)-MovingAverageWindow:], nil)
		if avg != 0 && math.Abs(current-avg)/avg > MovingAverageDeviation {
			flag(FlagPriceDeviation)
		}
	}

	return ca
}

// recentCloses keeps positive closes on or after cutoff
func recentCloses(points []PricePoint, cutoff time.Time) ([]float64, []time.Time) {
	closes := make([]float64, 0, len(points))
	dates := make([]time.Time, 0, len(points))
	for _, p := range points {
		if p.Date.Before(cutoff) || p.Close <= 0 || math.IsNaN(p.Close) {
			continue
		}
		closes = append(closes, p.Close)
		dates = append(dates, p.Date)
	}
	return closes, dates
}

// dailyReturns returns close-to-close percentage changes (len = len(closes)-1)
func dailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// Summary renders the flags for logs and CLI output
func Summary(ca contracts.CorporateActions) string {
	if len(ca.Flags) == 0 {
		return "none"
	}
	return strings.Join(ca.Flags, "; ")
}
