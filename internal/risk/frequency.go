package risk

import (
	"fmt"
	"time"

	"cryptobot/internal/config"
)

// FrequencyCheck enforces a cooldown between entries on the same asset.
// An asset with no recorded entry is always allowed.
type FrequencyCheck struct {
	State *State
}

func (c *FrequencyCheck) Name() string { return GateFrequency }

func (c *FrequencyCheck) Check(req Request, cfg config.RiskConfig) CheckResult {
	if cfg.MinTradeInterval <= 0 {
		return CheckResult{Name: c.Name(), Status: StatusPass}
	}
	last, ok := c.State.LastTradeAt(req.AssetID)
	if !ok {
		return CheckResult{Name: c.Name(), Status: StatusPass}
	}
	elapsed := req.Now.Sub(last)
	if elapsed >= cfg.MinTradeInterval {
		return CheckResult{Name: c.Name(), Status: StatusPass, Value: elapsed.String()}
	}
	return CheckResult{
		Name:   c.Name(),
		Status: StatusBlock,
		Value:  elapsed.String(),
		Msg:    fmt.Sprintf("last entry %s ago, cooldown %s", elapsed.Truncate(time.Second), cfg.MinTradeInterval),
	}
}
