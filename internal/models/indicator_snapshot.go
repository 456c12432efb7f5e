package models

import "time"

// IndicatorSnapshot is the externally computed technical bundle for one asset,
// replaced wholesale on each ingest. Every field is optional; the scorers
// coerce missing values to neutral.
type IndicatorSnapshot struct {
	AssetID uint64 `gorm:"primaryKey"`

	RSI *float64 `gorm:"column:rsi;type:numeric"`

	MACDDaily    *float64 `gorm:"column:macd_daily;type:numeric"`
	SignalDaily  *float64 `gorm:"column:signal_daily;type:numeric"`
	MACDHourly   *float64 `gorm:"column:macd_hourly;type:numeric"`
	SignalHourly *float64 `gorm:"column:signal_hourly;type:numeric"`
	Histogram    *float64 `gorm:"type:numeric"`
	// HistogramNorm is the reference amplitude used to normalize histogram strength.
	HistogramNorm *float64 `gorm:"type:numeric"`

	EMA50  *float64 `gorm:"column:ema_50;type:numeric"`
	EMA200 *float64 `gorm:"column:ema_200;type:numeric"`
	SMA50  *float64 `gorm:"column:sma_50;type:numeric"`
	SMA200 *float64 `gorm:"column:sma_200;type:numeric"`

	Pivot   *float64 `gorm:"type:numeric"`
	PivotR1 *float64 `gorm:"column:pivot_r1;type:numeric"`
	PivotS1 *float64 `gorm:"column:pivot_s1;type:numeric"`

	Fibo382 *float64 `gorm:"column:fibo_382;type:numeric"`
	Fibo618 *float64 `gorm:"column:fibo_618;type:numeric"`

	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (IndicatorSnapshot) TableName() string {
	return "indicator_snapshots"
}
