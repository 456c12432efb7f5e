package models

import (
	"time"

	"gorm.io/datatypes"
)

// EngineSetting stores runtime-tunable settings in DB: feature switches and
// the live decision/risk parameter set.
type EngineSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key string `gorm:"type:varchar(120);not null;uniqueIndex"`

	// JSON value, e.g. true/false for switches, or an object for parameter sets.
	Value datatypes.JSON `gorm:"type:jsonb;not null"`

	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (EngineSetting) TableName() string {
	return "engine_settings"
}
