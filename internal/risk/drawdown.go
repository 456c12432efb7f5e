package risk

import (
	"fmt"

	"cryptobot/internal/config"
)

// DrawdownCheck ratchets the balance peak and blocks entries once the
// retreat from that peak reaches max_drawdown_pct. The peak never decays.
type DrawdownCheck struct {
	State *State
}

func (c *DrawdownCheck) Name() string { return GateDrawdown }

func (c *DrawdownCheck) Check(req Request, cfg config.RiskConfig) CheckResult {
	if c.State != nil {
		c.State.ObserveBalance(req.TotalBalance)
	}
	peak := c.State.Peak()
	if peak <= 0 {
		return CheckResult{Name: c.Name(), Status: StatusPass, Value: 0.0}
	}

	dd := (peak - req.TotalBalance) / peak * 100
	if dd < 0 {
		dd = 0
	}
	if cfg.MaxDrawdownPct > 0 && dd >= cfg.MaxDrawdownPct {
		return CheckResult{
			Name:   c.Name(),
			Status: StatusBlock,
			Value:  dd,
			Msg:    fmt.Sprintf("drawdown %.2f%% at limit %.2f%% (peak %.2f)", dd, cfg.MaxDrawdownPct, peak),
		}
	}
	return CheckResult{Name: c.Name(), Status: StatusPass, Value: dd}
}
