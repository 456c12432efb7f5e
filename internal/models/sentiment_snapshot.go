package models

import "time"

// SentimentSnapshot is the pre-aggregated social sentiment per asset, pushed
// by the external NLP pipeline. One row per asset, replaced on each ingest.
type SentimentSnapshot struct {
	AssetID uint64 `gorm:"primaryKey"`

	Score12h *float64 `gorm:"column:score_12h;type:numeric"`
	Count12h int      `gorm:"column:count_12h;not null;default:0"`
	Score24h *float64 `gorm:"column:score_24h;type:numeric"`
	Count24h int      `gorm:"column:count_24h;not null;default:0"`

	Source    *string   `gorm:"type:text"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null"`
}

func (SentimentSnapshot) TableName() string {
	return "sentiment_snapshots"
}
