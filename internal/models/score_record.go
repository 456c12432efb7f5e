package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ScoreRecord is the immutable audit entry written once per asset per cycle,
// whatever the decision was. Details carries the sub-scores and the regime
// label for offline analysis.
type ScoreRecord struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	CycleID string `gorm:"type:varchar(36);index"`
	AssetID uint64 `gorm:"not null;index"`

	TechnicalScore float64   `gorm:"not null"`
	CombinedScore  float64   `gorm:"not null"`
	Direction      Direction `gorm:"type:smallint;not null"`

	ReferencePrice decimal.Decimal `gorm:"type:numeric(20,10);not null"`

	Details datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ScoreRecord) TableName() string {
	return "score_records"
}
