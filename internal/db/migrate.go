package db

import (
	"cryptobot/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Asset{},
		&models.MarketSnapshot{},
		&models.IndicatorSnapshot{},
		&models.SentimentSnapshot{},
		&models.MarkPrice{},
		&models.PricePoint{},
		&models.ScoreRecord{},
		&models.Trade{},
		&models.PortfolioSnapshot{},
		&models.RiskEvent{},
		&models.EngineSetting{},
		&models.DataSource{},
	)
}
