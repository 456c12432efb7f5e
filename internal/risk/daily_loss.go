package risk

import (
	"fmt"

	"cryptobot/internal/config"
)

// DailyLossCheck sums the negative unrealized marks across open trades and
// blocks new entries once the day's open loss reaches
// max_daily_loss_pct of the initial capital. Winning trades do not offset
// the figure.
type DailyLossCheck struct {
	InitialCapital float64
	State          *State
}

func (c *DailyLossCheck) Name() string { return GateDailyLoss }

func (c *DailyLossCheck) Check(req Request, cfg config.RiskConfig) CheckResult {
	loss := 0.0
	for _, pnl := range req.OpenTradePnL {
		if pnl < 0 {
			loss += pnl
		}
	}
	if c.State != nil {
		c.State.SetDailyLoss(req.Now, loss)
	}

	maxLoss := c.InitialCapital * cfg.MaxDailyLossPct / 100
	if maxLoss <= 0 {
		return CheckResult{Name: c.Name(), Status: StatusPass, Value: 0.0}
	}

	absLoss := -loss
	remaining := maxLoss - absLoss
	if remaining < 0 {
		remaining = 0
	}
	if absLoss >= maxLoss {
		return CheckResult{
			Name:   c.Name(),
			Status: StatusBlock,
			Value:  remaining,
			Msg:    fmt.Sprintf("open loss %.2f at daily limit %.2f", absLoss, maxLoss),
		}
	}
	return CheckResult{Name: c.Name(), Status: StatusPass, Value: remaining}
}
