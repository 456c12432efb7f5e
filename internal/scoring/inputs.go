package scoring

// IndicatorBundle is one asset's externally computed technical bundle. Every
// pointer field may be nil; scorers coerce missing values to 0.0 and keep
// going, never erroring on absent data.
type IndicatorBundle struct {
	RSI *float64

	MACDDaily     *float64
	SignalDaily   *float64
	MACDHourly    *float64
	SignalHourly  *float64
	Histogram     *float64
	HistogramNorm *float64

	EMA50  *float64
	EMA200 *float64
	SMA50  *float64
	SMA200 *float64

	Pivot   *float64
	PivotR1 *float64
	PivotS1 *float64

	Fibo382 *float64
	Fibo618 *float64
}

// MarketData is the latest market snapshot fields the scorers read.
type MarketData struct {
	Price       float64
	High24h     float64
	Low24h      float64
	TotalVolume float64

	Change1dPct  *float64
	Change7dPct  *float64
	Change14dPct *float64
	AvgVolume7d  *float64

	FundingRate *float64
}

// SentimentData is the pre-aggregated social sentiment for one asset.
type SentimentData struct {
	Score12h *float64
	Count12h int
	Score24h *float64
	Count24h int
}

// value coerces a missing numeric input to 0.0.
func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
