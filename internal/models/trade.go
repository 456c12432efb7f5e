package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a trade. The numeric value is also the P&L sign
// multiplier, so it is stored as-is.
type Direction int16

const (
	DirectionShort Direction = -1
	DirectionNone  Direction = 0
	DirectionLong  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "none"
	}
}

// LegStatus tracks one exit leg. Transitions exactly once, Open to Closed.
type LegStatus int16

const (
	LegOpen   LegStatus = 0
	LegClosed LegStatus = 1
)

func (s LegStatus) String() string {
	if s == LegClosed {
		return "closed"
	}
	return "open"
}

// Trade is a modeled position intent with a three-leg TP/SL ladder. Leg
// percentages are percent points relative to the entry price. The runner leg
// has a take-profit only; RunnerTarget is nil when no third leg was planned.
type Trade struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	AssetID uint64 `gorm:"not null;index"`
	CycleID string `gorm:"type:varchar(36);index"`

	OpenedAt  time.Time `gorm:"type:timestamptz;not null;index"`
	Direction Direction `gorm:"type:smallint;not null"`

	PositionSize    decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	EntryPrice      decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	RiskRewardRatio decimal.Decimal `gorm:"type:numeric(10,4);not null"`

	TakeProfit1 decimal.Decimal `gorm:"column:take_profit_1;type:numeric(10,4);not null"`
	StopLoss1   decimal.Decimal `gorm:"column:stop_loss_1;type:numeric(10,4);not null"`
	Status1     LegStatus       `gorm:"column:status_1;type:smallint;not null;default:0"`

	TakeProfit2 decimal.Decimal `gorm:"column:take_profit_2;type:numeric(10,4);not null"`
	StopLoss2   decimal.Decimal `gorm:"column:stop_loss_2;type:numeric(10,4);not null"`
	Status2     LegStatus       `gorm:"column:status_2;type:smallint;not null;default:0"`

	RunnerTarget *decimal.Decimal `gorm:"type:numeric(10,4)"`
	RunnerStatus LegStatus        `gorm:"type:smallint;not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Trade) TableName() string {
	return "trades"
}

// Active reports whether any leg is still open.
func (t Trade) Active() bool {
	if t.Status1 == LegOpen || t.Status2 == LegOpen {
		return true
	}
	return t.RunnerTarget != nil && t.RunnerStatus == LegOpen
}

// LegCount is the number of planned exit legs (2, or 3 with a runner).
func (t Trade) LegCount() int {
	if t.RunnerTarget != nil {
		return 3
	}
	return 2
}
