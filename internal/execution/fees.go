package execution

import (
	"github.com/shopspring/decimal"

	"cryptobot/internal/config"
)

// FeeModel charges a proportional fee on the closed notional plus an
// optional flat per-close amount.
type FeeModel struct {
	Pct  decimal.Decimal
	Flat decimal.Decimal
}

func NewFeeModel(cfg config.FeesConfig) FeeModel {
	return FeeModel{
		Pct:  decimal.NewFromFloat(cfg.Pct),
		Flat: decimal.NewFromFloat(cfg.Flat),
	}
}

func (f FeeModel) Charge(notional decimal.Decimal) decimal.Decimal {
	return notional.Abs().Mul(f.Pct).Add(f.Flat)
}
