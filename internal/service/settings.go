package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

const (
	FeatureTrading        = "feature.trading"
	FeatureExitManagement = "feature.exit_management"
	FeatureScreener       = "feature.screener"
	FeatureRetention      = "feature.retention"

	FeatureCollectorCoinGecko      = "feature.collector.coingecko"
	FeatureCollectorBinanceMark    = "feature.collector.binance_mark"
	FeatureCollectorBinanceFunding = "feature.collector.binance_funding"
)

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		FeatureTrading:        true,
		FeatureExitManagement: true,
		FeatureScreener:       true,
		FeatureRetention:      true,

		FeatureCollectorCoinGecko:      true,
		FeatureCollectorBinanceMark:    true,
		FeatureCollectorBinanceFunding: true,
	}
}

// SettingsService reads and writes the DB-backed feature switches. A nil
// service answers with the caller's fallback, so wiring it is optional.
type SettingsService struct {
	Repo repository.Repository
}

// EnsureDefaultSwitches seeds missing switches at startup. Existing values
// are never overwritten; operators own them once set.
func (s *SettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetEngineSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		raw, _ := json.Marshal(enabled)
		item := &models.EngineSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: "feature switch",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertEngineSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetEngineSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	raw, _ := json.Marshal(enabled)
	item := &models.EngineSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: "feature switch",
		UpdatedAt:   time.Now().UTC(),
	}
	return s.Repo.UpsertEngineSetting(ctx, item)
}
