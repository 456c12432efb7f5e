package decision

import (
	"math"

	"cryptobot/internal/config"
	"cryptobot/internal/models"
)

// Ladder is the planned exit set, expressed in percent points relative to the
// entry price. The runner leg has a take-profit only.
type Ladder struct {
	RiskReward   float64 `json:"risk_reward"`
	TakeProfit1  float64 `json:"take_profit_1"`
	StopLoss1    float64 `json:"stop_loss_1"`
	TakeProfit2  float64 `json:"take_profit_2"`
	StopLoss2    float64 `json:"stop_loss_2"`
	RunnerTarget float64 `json:"runner_target"`
}

// PositionSizer converts a combined score into a stop distance, a position
// size and the three-leg exit ladder.
type PositionSizer struct {
	Config config.DecisionConfig
}

// StopDistance widens as conviction drops: base_stop_pct scaled by how far
// |score| sits below 0.8, floored at min_stop_pct. Result is percent points.
func (p *PositionSizer) StopDistance(score float64) float64 {
	abs := math.Abs(score)
	if abs > 0.8 {
		abs = 0.8
	}
	sd := p.Config.BaseStopPct * (1 - abs)
	if sd < p.Config.MinStopPct {
		sd = p.Config.MinStopPct
	}
	return sd
}

// Size returns the notional to deploy: capital scaled by the score tier's
// risk fraction, divided by the stop distance, capped at
// capital*max_position_fraction. Returns 0 when the score sits outside the
// entry bands or capital is exhausted.
func (p *PositionSizer) Size(score, capital, stopDistance float64) float64 {
	riskPct := p.riskPct(score)
	if riskPct == 0 || capital <= 0 {
		return 0
	}
	sd := stopDistance
	if sd < p.Config.MinStopDistance {
		sd = p.Config.MinStopDistance
	}
	size := capital * riskPct / sd
	if limit := capital * p.Config.MaxPositionFraction; size > limit {
		size = limit
	}
	return size
}

func (p *PositionSizer) riskPct(score float64) float64 {
	cfg := p.Config
	switch {
	case score >= cfg.LongThreshold:
		switch {
		case score < cfg.TierMediumBand:
			return cfg.TierLowRisk
		case score < cfg.TierHighBand:
			return cfg.TierMediumRisk
		default:
			return cfg.TierHighRisk
		}
	case score <= cfg.ShortThreshold:
		switch {
		case score > -cfg.TierMediumBand:
			return cfg.TierLowRisk
		case score > -cfg.TierHighBand:
			return cfg.TierMediumRisk
		default:
			return cfg.TierHighRisk
		}
	default:
		return 0
	}
}

// ExitLadder lays the legs around the stop distance. Longs run a 1:1 ladder
// with a tight second take-profit; shorts run 2:1 with a tighter second stop.
// Both plan a runner at 3.5x the stop distance.
func (p *PositionSizer) ExitLadder(direction models.Direction, stopDistance float64) Ladder {
	sd := stopDistance
	if direction == models.DirectionShort {
		return Ladder{
			RiskReward:   2.0,
			TakeProfit1:  sd * 1.6,
			StopLoss1:    sd,
			TakeProfit2:  sd * 2.4,
			StopLoss2:    sd * 0.8,
			RunnerTarget: sd * 3.5,
		}
	}
	return Ladder{
		RiskReward:   1.0,
		TakeProfit1:  sd * 1.2,
		StopLoss1:    sd,
		TakeProfit2:  sd * 0.8,
		StopLoss2:    sd * 2.0,
		RunnerTarget: sd * 3.5,
	}
}
