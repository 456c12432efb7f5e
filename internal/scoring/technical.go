package scoring

import (
	"math"

	"cryptobot/internal/config"
)

// TechnicalScorer turns one asset's indicator bundle into a directional score
// in [-1, 1]. Seven independently bounded sub-scores are combined with the
// configured weights (weights sum to 1.0).
type TechnicalScorer struct {
	Config config.ScoringConfig
}

// TechnicalBreakdown carries the sub-scores next to the weighted total so the
// cycle can persist them for audit.
type TechnicalBreakdown struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	EMA        float64 `json:"ema"`
	SMA        float64 `json:"sma"`
	Pivot      float64 `json:"pivot"`
	Fibo       float64 `json:"fibo"`
	Volatility float64 `json:"volatility"`

	Total float64 `json:"total"`
}

func (s *TechnicalScorer) Score(b IndicatorBundle, m MarketData) TechnicalBreakdown {
	bd := TechnicalBreakdown{
		RSI:        s.scoreRSI(value(b.RSI)),
		MACD:       s.scoreMACD(b),
		EMA:        s.scoreEMA(b, m.Price),
		SMA:        s.scoreSMA(b, m.Price),
		Pivot:      s.scorePivot(b, m.Price),
		Fibo:       s.scoreFibo(b, m.Price),
		Volatility: s.scoreVolatility(m),
	}

	total := s.Config.WeightRSI*bd.RSI +
		s.Config.WeightMACD*bd.MACD +
		s.Config.WeightEMA*bd.EMA +
		s.Config.WeightSMA*bd.SMA +
		s.Config.WeightPivot*bd.Pivot +
		s.Config.WeightFibo*bd.Fibo +
		s.Config.WeightVolatility*bd.Volatility
	bd.Total = clamp(total, -1, 1)
	return bd
}

// scoreRSI maps the oscillator through a piecewise step: oversold is bullish,
// overbought is bearish, with a weaker band on either side.
func (s *TechnicalScorer) scoreRSI(rsi float64) float64 {
	switch {
	case rsi <= s.Config.RSIOversoldStrong:
		return 1.0
	case rsi >= s.Config.RSIOverboughtStrong:
		return -1.0
	case rsi <= s.Config.RSIOversoldWeak:
		return 0.5
	case rsi >= s.Config.RSIOverboughtWeak:
		return -0.5
	default:
		return 0
	}
}

// scoreMACD sums the daily crossover sign, the hourly crossover sign and the
// normalized histogram strength. Range is [-2.5, 2.5] before weighting.
func (s *TechnicalScorer) scoreMACD(b IndicatorBundle) float64 {
	score := -1.0
	if value(b.MACDDaily) > value(b.SignalDaily) {
		score = 1.0
	}
	if value(b.MACDHourly) > value(b.SignalHourly) {
		score += 0.5
	} else {
		score -= 0.5
	}

	hist := value(b.Histogram)
	norm := value(b.HistogramNorm)
	switch {
	case norm == 0:
	case hist > 0:
		score += math.Min(hist/norm, 1.0)
	default:
		score += math.Max(hist/norm, -1.0)
	}
	return score
}

func (s *TechnicalScorer) scoreEMA(b IndicatorBundle, price float64) float64 {
	ema50 := value(b.EMA50)
	ema200 := value(b.EMA200)
	switch {
	case ema50 > ema200 && price > ema50:
		return 1.0
	case ema50 < ema200 && price < ema50:
		return -1.0
	case ema50 > ema200:
		return 0.5
	case ema50 < ema200:
		return -0.5
	default:
		return 0
	}
}

// scoreSMA confirms golden/death cross orderings relative to price.
func (s *TechnicalScorer) scoreSMA(b IndicatorBundle, price float64) float64 {
	sma50 := value(b.SMA50)
	sma200 := value(b.SMA200)
	switch {
	case price > sma50 && sma50 > sma200:
		return 1.0
	case price < sma50 && sma50 < sma200:
		return -1.0
	default:
		return 0
	}
}

func (s *TechnicalScorer) scorePivot(b IndicatorBundle, price float64) float64 {
	switch {
	case price > value(b.PivotR1):
		return -0.5
	case price < value(b.PivotS1):
		return 0.5
	case price > value(b.Pivot):
		return 0.25
	default:
		return -0.25
	}
}

func (s *TechnicalScorer) scoreFibo(b IndicatorBundle, price float64) float64 {
	switch {
	case price < value(b.Fibo382):
		return 0.5
	case price > value(b.Fibo618):
		return -0.5
	default:
		return 0
	}
}

// scoreVolatility blends |1d|/|7d|/|14d| change with a volume-adjusted term,
// then maps the result through the low/high bands: below low penalizes,
// between the bands grows linearly from 0, above high saturates toward 1.
func (s *TechnicalScorer) scoreVolatility(m MarketData) float64 {
	d1 := math.Abs(value(m.Change1dPct))
	d7 := math.Abs(value(m.Change7dPct))
	d14 := math.Abs(value(m.Change14dPct))
	volScore := 0.5*d1 + 0.3*d7 + 0.2*d14

	ratio := 1.0
	if avg := value(m.AvgVolume7d); avg > 0 {
		ratio = m.TotalVolume / avg
	}
	smart := d1 * ratio

	combined := 0.6*volScore + 0.4*smart
	low := s.Config.VolatilityLow
	high := s.Config.VolatilityHigh

	var score float64
	switch {
	case combined < low:
		score = combined/low - 1.0
	case combined < high:
		score = (combined - low) / (high - low)
	default:
		score = math.Min(1.0, 0.5+(combined-high)/10.0)
	}
	return clamp(score, -1, 1)
}
