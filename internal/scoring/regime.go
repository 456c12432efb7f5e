package scoring

import (
	"math"

	"cryptobot/internal/config"
)

// Regime labels the prevailing market state for one asset.
type Regime uint8

const (
	RegimeNoTrade Regime = iota
	RegimePanic
	RegimeTrendUp
	RegimeTrendDown
	RegimeRange
)

func (r Regime) String() string {
	switch r {
	case RegimePanic:
		return "panic"
	case RegimeTrendUp:
		return "trend_up"
	case RegimeTrendDown:
		return "trend_down"
	case RegimeRange:
		return "range"
	default:
		return "no_trade"
	}
}

// SkipsEntry reports whether the regime suppresses new entries this cycle.
// Only panic is a hard override; exit management always runs regardless.
func (r Regime) SkipsEntry() bool {
	return r == RegimePanic
}

// RegimeInputs is the recent daily series (oldest first) plus the latest
// trend/funding context for one asset.
type RegimeInputs struct {
	Prices  []float64
	Highs   []float64
	Lows    []float64
	Volumes []float64

	EMA50       *float64
	EMA200      *float64
	RSI         *float64
	FundingRate *float64
}

// RegimeClassifier labels volatility/trend state. Panic conditions are
// checked first and override everything else.
type RegimeClassifier struct {
	Config config.RegimeConfig
}

func (c *RegimeClassifier) Classify(in RegimeInputs) Regime {
	n := len(in.Prices)
	if n < 5 || len(in.Highs) < n || len(in.Lows) < n {
		return RegimeNoTrade
	}

	price := in.Prices[n-1]

	atrPct := 0.0
	if atr, ok := averageTrueRange(in.Highs, in.Lows, in.Prices, c.Config.ATRPeriod); ok && price > 0 {
		atrPct = atr / price
	}

	volumeRatio := 1.0
	if len(in.Volumes) >= 2 {
		mean := 0.0
		for _, v := range in.Volumes[:len(in.Volumes)-1] {
			mean += v
		}
		mean /= float64(len(in.Volumes) - 1)
		if mean > 0 {
			volumeRatio = in.Volumes[len(in.Volumes)-1] / mean
		}
	}

	funding := value(in.FundingRate)
	if atrPct > c.Config.ATRPanicPct ||
		volumeRatio > c.Config.VolumePanicRatio ||
		math.Abs(funding) > c.Config.FundingPanicAbs {
		return RegimePanic
	}

	ema50 := value(in.EMA50)
	ema200 := value(in.EMA200)
	rsi := value(in.RSI)
	switch {
	case ema50 > ema200 && price > ema200 && rsi > c.Config.TrendRSIUpper:
		return RegimeTrendUp
	case ema50 < ema200 && price < ema200 && rsi < c.Config.TrendRSILower:
		return RegimeTrendDown
	case rsi >= c.Config.TrendRSILower && rsi <= c.Config.TrendRSIUpper:
		return RegimeRange
	default:
		return RegimeNoTrade
	}
}

// averageTrueRange computes the ATR over the last min(period, n-1) bars.
// True range of bar i = max(high-low, |high-prevClose|, |low-prevClose|).
func averageTrueRange(highs, lows, closes []float64, period int) (float64, bool) {
	n := len(closes)
	if n < 2 {
		return 0, false
	}
	if period > n-1 {
		period = n - 1
	}
	if period <= 0 {
		return 0, false
	}

	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}

	sum := 0.0
	for _, tr := range trs[len(trs)-period:] {
		sum += tr
	}
	return sum / float64(period), true
}
