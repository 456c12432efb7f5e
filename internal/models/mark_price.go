package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarkPrice is the latest mark per asset, used by exit checks and
// mark-to-market P&L. Fed by the Binance stream with the CoinGecko poller as
// fallback.
type MarkPrice struct {
	AssetID   uint64          `gorm:"primaryKey"`
	Price     decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	Source    *string         `gorm:"type:text"`
	UpdatedAt time.Time       `gorm:"type:timestamptz;not null"`
}

func (MarkPrice) TableName() string {
	return "mark_prices"
}
