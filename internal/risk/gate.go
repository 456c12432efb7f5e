package risk

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/config"
)

const (
	StatusPass  = "pass"
	StatusBlock = "block"
)

const (
	GateDailyLoss   = "daily_loss"
	GateDrawdown    = "drawdown"
	GateCorrelation = "correlation"
	GateFrequency   = "frequency"
)

// Request is the portfolio context a candidate entry is judged against.
// Series are daily closes, oldest first.
type Request struct {
	AssetID uint64
	Now     time.Time

	TotalBalance float64
	OpenTradePnL []float64

	CandidateCloses []float64
	ActiveCloses    map[uint64][]float64
}

// CheckResult is one gate's outcome, persisted into the risk event journal.
type CheckResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Value  any    `json:"value,omitempty"`
	Msg    string `json:"msg,omitempty"`
}

// Verdict aggregates the gates run for one candidate. Gates short-circuit:
// checks after the blocking one are not evaluated.
type Verdict struct {
	Allowed   bool          `json:"allowed"`
	BlockedBy string        `json:"blocked_by,omitempty"`
	Checks    []CheckResult `json:"checks"`
}

// Check is one independent risk control.
type Check interface {
	Name() string
	Check(req Request, cfg config.RiskConfig) CheckResult
}

// Gate runs the four controls in a fixed order: daily loss, drawdown,
// correlation, trade frequency. Config swaps atomically for hot reload.
type Gate struct {
	Logger *zap.Logger

	mu     sync.Mutex
	cfg    config.RiskConfig
	checks []Check
}

func NewGate(cfg config.RiskConfig, initialCapital float64, state *State, logger *zap.Logger) *Gate {
	return &Gate{
		Logger: logger,
		cfg:    cfg,
		checks: []Check{
			&DailyLossCheck{InitialCapital: initialCapital, State: state},
			&DrawdownCheck{State: state},
			&CorrelationCheck{},
			&FrequencyCheck{State: state},
		},
	}
}

// UpdateConfig replaces the live limits. Takes effect on the next Allow call.
func (g *Gate) UpdateConfig(cfg config.RiskConfig) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()
}

// Config returns the live limits.
func (g *Gate) Config() config.RiskConfig {
	if g == nil {
		return config.RiskConfig{}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// Allow evaluates the gates for one candidate entry. A nil gate permits
// everything, mirroring an absent risk layer.
func (g *Gate) Allow(req Request) Verdict {
	if g == nil {
		return Verdict{Allowed: true}
	}
	if req.Now.IsZero() {
		req.Now = time.Now().UTC()
	}
	cfg := g.Config()
	verdict := Verdict{Allowed: true}
	for _, check := range g.checks {
		res := check.Check(req, cfg)
		verdict.Checks = append(verdict.Checks, res)
		if res.Status == StatusBlock {
			verdict.Allowed = false
			verdict.BlockedBy = check.Name()
			if g.Logger != nil {
				g.Logger.Debug("risk: blocked entry",
					zap.String("gate", check.Name()),
					zap.Uint64("asset_id", req.AssetID),
					zap.String("msg", res.Msg),
				)
			}
			break
		}
	}
	return verdict
}
