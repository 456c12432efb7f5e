package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one daily bar per asset, maintained by the market poller.
// The regime classifier and the correlation check read trailing windows of
// this series. High/Low mirror the rolling 24h values at write time.
type PricePoint struct {
	ID      uint64    `gorm:"primaryKey;autoIncrement"`
	AssetID uint64    `gorm:"not null;uniqueIndex:idx_price_points_asset_day"`
	Day     time.Time `gorm:"type:date;not null;uniqueIndex:idx_price_points_asset_day"`

	Close  decimal.Decimal `gorm:"type:numeric(20,10);not null"`
	High   decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	Low    decimal.Decimal `gorm:"type:numeric(20,10);not null;default:0"`
	Volume decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PricePoint) TableName() string {
	return "price_points"
}
