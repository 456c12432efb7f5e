package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot is one append-only capital record per cycle.
// TotalBalance = FreeCash + UnrealizedPnL.
type PortfolioSnapshot struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	CycleID    string    `gorm:"type:varchar(36);index"`
	SnapshotAt time.Time `gorm:"type:timestamptz;not null;index"`

	TotalBalance  decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	FreeCash      decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	UnrealizedPnL decimal.Decimal `gorm:"column:unrealized_pnl;type:numeric(30,10);not null"`

	OpenTrades int `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (PortfolioSnapshot) TableName() string {
	return "portfolio_snapshots"
}
