package engine

import (
	"cryptobot/internal/models"
	"cryptobot/internal/scoring"
)

// The collectors persist snapshots with nullable columns; the scorers take
// pointer inputs and coerce missing values to neutral themselves. These
// mappers only reshape rows, they never fill gaps.

func bundleFromSnapshot(ind *models.IndicatorSnapshot) scoring.IndicatorBundle {
	if ind == nil {
		return scoring.IndicatorBundle{}
	}
	return scoring.IndicatorBundle{
		RSI: ind.RSI,

		MACDDaily:     ind.MACDDaily,
		SignalDaily:   ind.SignalDaily,
		MACDHourly:    ind.MACDHourly,
		SignalHourly:  ind.SignalHourly,
		Histogram:     ind.Histogram,
		HistogramNorm: ind.HistogramNorm,

		EMA50:  ind.EMA50,
		EMA200: ind.EMA200,
		SMA50:  ind.SMA50,
		SMA200: ind.SMA200,

		Pivot:   ind.Pivot,
		PivotR1: ind.PivotR1,
		PivotS1: ind.PivotS1,

		Fibo382: ind.Fibo382,
		Fibo618: ind.Fibo618,
	}
}

func marketFromSnapshot(m *models.MarketSnapshot) scoring.MarketData {
	if m == nil {
		return scoring.MarketData{}
	}
	return scoring.MarketData{
		Price:       m.Price.InexactFloat64(),
		High24h:     m.High24h.InexactFloat64(),
		Low24h:      m.Low24h.InexactFloat64(),
		TotalVolume: m.TotalVolume.InexactFloat64(),

		Change1dPct:  m.Change1dPct,
		Change7dPct:  m.Change7dPct,
		Change14dPct: m.Change14dPct,
		AvgVolume7d:  m.AvgVolume7d,

		FundingRate: m.FundingRate,
	}
}

func sentimentFromSnapshot(s *models.SentimentSnapshot) scoring.SentimentData {
	if s == nil {
		return scoring.SentimentData{}
	}
	return scoring.SentimentData{
		Score12h: s.Score12h,
		Count12h: s.Count12h,
		Score24h: s.Score24h,
		Count24h: s.Count24h,
	}
}

func regimeInputs(series []models.PricePoint, ind *models.IndicatorSnapshot, market *models.MarketSnapshot) scoring.RegimeInputs {
	in := scoring.RegimeInputs{
		Prices:  make([]float64, 0, len(series)),
		Highs:   make([]float64, 0, len(series)),
		Lows:    make([]float64, 0, len(series)),
		Volumes: make([]float64, 0, len(series)),
	}
	for _, p := range series {
		in.Prices = append(in.Prices, p.Close.InexactFloat64())
		in.Highs = append(in.Highs, p.High.InexactFloat64())
		in.Lows = append(in.Lows, p.Low.InexactFloat64())
		in.Volumes = append(in.Volumes, p.Volume.InexactFloat64())
	}
	if ind != nil {
		in.EMA50 = ind.EMA50
		in.EMA200 = ind.EMA200
		in.RSI = ind.RSI
	}
	if market != nil {
		in.FundingRate = market.FundingRate
	}
	return in
}

// closesOf flattens a daily series into the float closes the correlation
// check consumes, oldest first.
func closesOf(series []models.PricePoint) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, 0, len(series))
	for _, p := range series {
		out = append(out, p.Close.InexactFloat64())
	}
	return out
}
