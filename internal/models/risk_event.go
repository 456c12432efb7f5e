package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RiskEventTradeOpened   = "trade_opened"
	RiskEventEntryRejected = "entry_rejected"
	RiskEventLegClosed     = "leg_closed"
	RiskEventPanicSkip     = "panic_skip"
	RiskEventDailyReset    = "daily_reset"
)

// RiskEvent is the audit trail of the gates and the exit engine: every
// rejection, every leg close, every daily reset.
type RiskEvent struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement"`
	CycleID string  `gorm:"type:varchar(36);index"`
	AssetID *uint64 `gorm:"index"`

	Kind string  `gorm:"type:varchar(40);not null;index"`
	Gate *string `gorm:"type:varchar(40)"`

	Details datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (RiskEvent) TableName() string {
	return "risk_events"
}
