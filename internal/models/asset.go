package models

import "time"

const (
	AssetStatusActive = "active"
	AssetStatusStale  = "stale"
	AssetStatusHalted = "halted"
)

// Asset is the registry of tracked instruments. Collectors key their writes on
// asset ID; the decision cycle only evaluates enabled+active assets.
type Asset struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	Symbol        string `gorm:"type:varchar(20);not null;uniqueIndex"`
	CoingeckoID   string `gorm:"type:varchar(60);not null;index"`
	BinanceSymbol string `gorm:"type:varchar(20);index"`

	Enabled bool   `gorm:"not null;default:true"`
	Status  string `gorm:"type:varchar(20);not null;default:'active';index"`

	LastDataAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Asset) TableName() string {
	return "assets"
}

func (a Asset) Tradeable() bool {
	return a.Enabled && a.Status == AssetStatusActive
}
