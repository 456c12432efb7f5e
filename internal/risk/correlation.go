package risk

import (
	"fmt"
	"math"

	"cryptobot/internal/config"
)

// CorrelationCheck compares the candidate's daily closes against every asset
// that already carries an active trade and blocks when any absolute Pearson
// correlation reaches max_correlation. No active trades, or no usable series,
// means no concentration to guard against.
type CorrelationCheck struct{}

func (c *CorrelationCheck) Name() string { return GateCorrelation }

func (c *CorrelationCheck) Check(req Request, cfg config.RiskConfig) CheckResult {
	if len(req.ActiveCloses) == 0 {
		return CheckResult{Name: c.Name(), Status: StatusPass, Value: 0.0}
	}

	maxCorr := 0.0
	var worst uint64
	for assetID, series := range req.ActiveCloses {
		if assetID == req.AssetID {
			continue
		}
		corr := absPearson(req.CandidateCloses, series)
		if corr > maxCorr {
			maxCorr = corr
			worst = assetID
		}
	}

	if cfg.MaxCorrelation > 0 && maxCorr >= cfg.MaxCorrelation {
		return CheckResult{
			Name:   c.Name(),
			Status: StatusBlock,
			Value:  maxCorr,
			Msg:    fmt.Sprintf("correlation %.3f with asset %d at limit %.3f", maxCorr, worst, cfg.MaxCorrelation),
		}
	}
	return CheckResult{Name: c.Name(), Status: StatusPass, Value: maxCorr}
}

// absPearson right-aligns the two series to their common length and returns
// the absolute Pearson coefficient. Fewer than two shared points, or a flat
// series, yields 0.
func absPearson(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < 2 {
		return 0
	}
	a = a[len(a)-n:]
	b = b[len(b)-n:]

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return math.Abs(cov / math.Sqrt(varA*varB))
}
