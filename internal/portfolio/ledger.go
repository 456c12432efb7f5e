package portfolio

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"cryptobot/internal/execution"
	"cryptobot/internal/models"
)

// Settlement is the cash movement from closing a single exit leg.
// NetCredit is what returns to free cash: the leg's share of the position
// principal plus the realized P&L on that share, minus fees.
type Settlement struct {
	LegNotional decimal.Decimal `json:"leg_notional"`
	Realized    decimal.Decimal `json:"realized"`
	Fee         decimal.Decimal `json:"fee"`
	NetCredit   decimal.Decimal `json:"net_credit"`
}

// Settle computes the settlement for one leg close. The position principal
// is split evenly across the planned legs; the realized amount is the price
// return at the fill mark, signed by direction, applied to that share.
func Settle(t models.Trade, close execution.LegClose, fees execution.FeeModel) Settlement {
	legNotional := t.PositionSize.Div(decimal.NewFromInt(int64(t.LegCount())))

	var realized decimal.Decimal
	if t.EntryPrice.Sign() > 0 {
		ret := close.Mark.Sub(t.EntryPrice).Div(t.EntryPrice)
		realized = ret.Mul(decimal.NewFromInt(int64(t.Direction))).Mul(legNotional)
	}

	fee := fees.Charge(legNotional)
	return Settlement{
		LegNotional: legNotional,
		Realized:    realized,
		Fee:         fee,
		NetCredit:   legNotional.Add(realized).Sub(fee),
	}
}

// UnrealizedPnL marks one trade to the given price over its full position
// size. A non-positive mark or entry contributes nothing, matching the
// exit engine's hold behavior when the feed is missing.
func UnrealizedPnL(t models.Trade, mark decimal.Decimal) decimal.Decimal {
	if t.EntryPrice.Sign() <= 0 || mark.Sign() <= 0 {
		return decimal.Zero
	}
	ret := mark.Sub(t.EntryPrice).Div(t.EntryPrice)
	return ret.Mul(decimal.NewFromInt(int64(t.Direction))).Mul(t.PositionSize)
}

// Ledger tracks modeled free cash. Entries debit the full position size up
// front; leg closes credit their settlement back. The cycle is the only
// writer, but HTTP reads may race it, hence the mutex.
type Ledger struct {
	mu   sync.Mutex
	free decimal.Decimal
}

func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{free: decimal.NewFromFloat(initialCapital)}
}

// Restore replaces free cash with a persisted value, used at startup to
// resume from the last snapshot instead of the configured initial capital.
func (l *Ledger) Restore(freeCash decimal.Decimal) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.free = freeCash
}

func (l *Ledger) FreeCash() decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.free
}

// Debit removes the position principal when a trade opens.
func (l *Ledger) Debit(positionSize decimal.Decimal) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.free = l.free.Sub(positionSize)
}

// SettleLeg computes the settlement for a leg close and credits it.
func (l *Ledger) SettleLeg(t models.Trade, close execution.LegClose, fees execution.FeeModel) Settlement {
	st := Settle(t, close, fees)
	if l == nil {
		return st
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.free = l.free.Add(st.NetCredit)
	return st
}

// Snapshot builds the append-only capital record for one cycle.
// TotalBalance is free cash plus the unrealized sum the caller marked.
func (l *Ledger) Snapshot(cycleID string, at time.Time, unrealized decimal.Decimal, openTrades int) models.PortfolioSnapshot {
	free := l.FreeCash()
	return models.PortfolioSnapshot{
		CycleID:       cycleID,
		SnapshotAt:    at.UTC(),
		TotalBalance:  free.Add(unrealized),
		FreeCash:      free,
		UnrealizedPnL: unrealized,
		OpenTrades:    openTrades,
	}
}
