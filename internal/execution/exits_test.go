package execution

import (
	"testing"

	"github.com/shopspring/decimal"

	"cryptobot/internal/config"
	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

func mkTrade(t *testing.T, direction models.Direction, entry float64) models.Trade {
	t.Helper()
	runner := decimal.NewFromFloat(3.5)
	return models.Trade{
		ID:           1,
		AssetID:      1,
		Direction:    direction,
		PositionSize: decimal.NewFromInt(600),
		EntryPrice:   decimal.NewFromFloat(entry),
		TakeProfit1:  decimal.NewFromFloat(1.2),
		StopLoss1:    decimal.NewFromFloat(0.6),
		TakeProfit2:  decimal.NewFromFloat(0.8),
		StopLoss2:    decimal.NewFromFloat(2.0),
		RunnerTarget: &runner,
	}
}

func TestCheckLongTakeProfit(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	// tp1 at 101.2, tp2 at 100.8: a mark of 101.3 fills both.
	closes := e.Check(trade, decimal.NewFromFloat(101.3))
	if len(closes) != 2 {
		t.Fatalf("closes=%d want=2", len(closes))
	}
	first := closes[0]
	if first.Leg != repository.TradeLeg1 || first.Kind != ExitTakeProfit {
		t.Fatalf("leg=%v kind=%s want leg1 take_profit", first.Leg, first.Kind)
	}
	if first.Level.Cmp(decimal.NewFromFloat(101.2)) != 0 {
		t.Fatalf("level=%s want=101.2", first.Level)
	}
	if first.Mark.Cmp(decimal.NewFromFloat(101.3)) != 0 {
		t.Fatalf("mark=%s want=101.3", first.Mark)
	}
}

func TestCheckLongStopLoss(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	// sl1 at 99.4 triggers; sl2 at 98.0 does not.
	closes := e.Check(trade, decimal.NewFromFloat(99.3))
	if len(closes) != 1 {
		t.Fatalf("closes=%d want=1", len(closes))
	}
	if closes[0].Leg != repository.TradeLeg1 || closes[0].Kind != ExitStopLoss {
		t.Fatalf("leg=%v kind=%s want leg1 stop_loss", closes[0].Leg, closes[0].Kind)
	}
	if closes[0].Level.Cmp(decimal.NewFromFloat(99.4)) != 0 {
		t.Fatalf("level=%s want=99.4", closes[0].Level)
	}
}

func TestCheckShortMirrors(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionShort, 100)
	// Short take-profits sit below the entry: tp1 98.8, tp2 99.2.
	closes := e.Check(trade, decimal.NewFromFloat(98.7))
	if len(closes) != 2 {
		t.Fatalf("closes=%d want=2", len(closes))
	}
	for _, c := range closes {
		if c.Kind != ExitTakeProfit {
			t.Fatalf("kind=%s want take_profit", c.Kind)
		}
	}

	// A rally through 100.6 stops leg1 out.
	closes = e.Check(trade, decimal.NewFromFloat(100.7))
	if len(closes) != 1 || closes[0].Kind != ExitStopLoss {
		t.Fatalf("closes=%v want single stop_loss", closes)
	}
}

func TestCheckClosedLegsSkipped(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	trade.Status1 = models.LegClosed
	trade.Status2 = models.LegClosed
	// Only the runner remains; 101.3 is far from its 103.5 target.
	closes := e.Check(trade, decimal.NewFromFloat(101.3))
	if len(closes) != 0 {
		t.Fatalf("closes=%d want=0 (idempotent re-check)", len(closes))
	}
}

func TestCheckRunnerHasNoStop(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	trade.Status1 = models.LegClosed
	trade.Status2 = models.LegClosed
	// A crash would stop out legs 1-2, but the runner only exits on target.
	if closes := e.Check(trade, decimal.NewFromFloat(80)); len(closes) != 0 {
		t.Fatalf("closes=%d want=0 (runner holds through drawdown)", len(closes))
	}
	closes := e.Check(trade, decimal.NewFromFloat(103.5))
	if len(closes) != 1 || closes[0].Leg != repository.TradeLegRunner || closes[0].Kind != ExitTakeProfit {
		t.Fatalf("closes=%v want runner take_profit", closes)
	}
}

func TestCheckMissingMarkHolds(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	if closes := e.Check(trade, decimal.Zero); len(closes) != 0 {
		t.Fatalf("closes=%d want=0 on zero mark", len(closes))
	}
}

func TestCheckNoRunnerPlanned(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	trade.RunnerTarget = nil
	trade.Status1 = models.LegClosed
	trade.Status2 = models.LegClosed
	if closes := e.Check(trade, decimal.NewFromFloat(200)); len(closes) != 0 {
		t.Fatalf("closes=%d want=0 without a planned runner", len(closes))
	}
}

func TestTakeProfitWinsOnWideBar(t *testing.T) {
	e := &ExitEngine{}
	trade := mkTrade(t, models.DirectionLong, 100)
	// Degenerate ladder where a single mark crosses tp and sl. TP is
	// checked first and wins.
	trade.TakeProfit1 = decimal.NewFromFloat(0.1)
	trade.StopLoss1 = decimal.NewFromFloat(-0.2)
	closes := e.Check(trade, decimal.NewFromFloat(100.2))
	if len(closes) == 0 || closes[0].Kind != ExitTakeProfit {
		t.Fatalf("closes=%v want take_profit first", closes)
	}
}

func TestFeeModelCharge(t *testing.T) {
	f := NewFeeModel(config.FeesConfig{Pct: 0.005, Flat: 0})
	got := f.Charge(decimal.NewFromInt(200))
	if got.Cmp(decimal.NewFromInt(1)) != 0 {
		t.Fatalf("fee=%s want=1", got)
	}

	withFlat := NewFeeModel(config.FeesConfig{Pct: 0.005, Flat: 0.1})
	got = withFlat.Charge(decimal.NewFromInt(-200))
	if got.Cmp(decimal.NewFromFloat(1.1)) != 0 {
		t.Fatalf("fee=%s want=1.1 (absolute notional)", got)
	}
}
