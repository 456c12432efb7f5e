package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSnapshot is the latest market state per asset, replaced wholesale by
// the collectors each poll. One row per asset.
type MarketSnapshot struct {
	AssetID uint64 `gorm:"primaryKey"`

	Price       decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	High24h     decimal.Decimal `gorm:"column:high_24h;type:numeric(20,10);not null"`
	Low24h      decimal.Decimal `gorm:"column:low_24h;type:numeric(20,10);not null"`
	TotalVolume decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Change1dPct  *float64 `gorm:"column:change_1d_pct;type:numeric"`
	Change7dPct  *float64 `gorm:"column:change_7d_pct;type:numeric"`
	Change14dPct *float64 `gorm:"column:change_14d_pct;type:numeric"`
	AvgVolume7d  *float64 `gorm:"column:avg_volume_7d;type:numeric"`

	FundingRate  *float64 `gorm:"type:numeric"`
	OpenInterest *float64 `gorm:"type:numeric"`

	Source    *string   `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (MarketSnapshot) TableName() string {
	return "market_snapshots"
}
