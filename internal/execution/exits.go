package execution

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// ExitKind labels why a leg closed.
type ExitKind string

const (
	ExitTakeProfit ExitKind = "take_profit"
	ExitStopLoss   ExitKind = "stop_loss"
)

// LegClose is one triggered exit: which leg, why, the configured trigger
// level and the mark it actually fills at.
type LegClose struct {
	Leg   repository.TradeLeg
	Kind  ExitKind
	Level decimal.Decimal
	Mark  decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// TakeProfitLevel converts a percent-point target into an absolute price:
// above the entry for longs, below for shorts.
func TakeProfitLevel(entry decimal.Decimal, direction models.Direction, pct decimal.Decimal) decimal.Decimal {
	offset := entry.Mul(pct).Div(hundred)
	if direction == models.DirectionShort {
		return entry.Sub(offset)
	}
	return entry.Add(offset)
}

// StopLossLevel is the mirror of TakeProfitLevel: below the entry for longs,
// above for shorts.
func StopLossLevel(entry decimal.Decimal, direction models.Direction, pct decimal.Decimal) decimal.Decimal {
	offset := entry.Mul(pct).Div(hundred)
	if direction == models.DirectionShort {
		return entry.Add(offset)
	}
	return entry.Sub(offset)
}

// ExitEngine evaluates open legs against the latest mark. It only reports
// which legs trigger; persisting the transition and settling cash are the
// caller's job, which keeps a re-check of an already closed leg a no-op.
type ExitEngine struct {
	Logger *zap.Logger
}

// Check walks the open legs of one trade. A non-positive mark means the feed
// is missing or broken; every leg holds. Take-profit wins when a wide bar
// crosses both levels at once.
func (e *ExitEngine) Check(t models.Trade, mark decimal.Decimal) []LegClose {
	if t.Direction == models.DirectionNone {
		return nil
	}
	if mark.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	var out []LegClose
	if t.Status1 == models.LegOpen {
		if close, ok := e.checkLeg(t, repository.TradeLeg1, t.TakeProfit1, &t.StopLoss1, mark); ok {
			out = append(out, close)
		}
	}
	if t.Status2 == models.LegOpen {
		if close, ok := e.checkLeg(t, repository.TradeLeg2, t.TakeProfit2, &t.StopLoss2, mark); ok {
			out = append(out, close)
		}
	}
	if t.RunnerTarget != nil && t.RunnerStatus == models.LegOpen {
		if close, ok := e.checkLeg(t, repository.TradeLegRunner, *t.RunnerTarget, nil, mark); ok {
			out = append(out, close)
		}
	}
	return out
}

// checkLeg tests one leg; slPct is nil for the stop-less runner.
func (e *ExitEngine) checkLeg(t models.Trade, leg repository.TradeLeg, tpPct decimal.Decimal, slPct *decimal.Decimal, mark decimal.Decimal) (LegClose, bool) {
	tp := TakeProfitLevel(t.EntryPrice, t.Direction, tpPct)
	if crossedTakeProfit(t.Direction, mark, tp) {
		return LegClose{Leg: leg, Kind: ExitTakeProfit, Level: tp, Mark: mark}, true
	}
	if slPct != nil {
		sl := StopLossLevel(t.EntryPrice, t.Direction, *slPct)
		if crossedStopLoss(t.Direction, mark, sl) {
			return LegClose{Leg: leg, Kind: ExitStopLoss, Level: sl, Mark: mark}, true
		}
	}
	return LegClose{}, false
}

func crossedTakeProfit(direction models.Direction, mark, level decimal.Decimal) bool {
	if direction == models.DirectionShort {
		return mark.LessThanOrEqual(level)
	}
	return mark.GreaterThanOrEqual(level)
}

func crossedStopLoss(direction models.Direction, mark, level decimal.Decimal) bool {
	if direction == models.DirectionShort {
		return mark.GreaterThanOrEqual(level)
	}
	return mark.LessThanOrEqual(level)
}
