package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"cryptobot/internal/config"
	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// SettingTradingParams is the engine_settings key holding the live
// parameter overrides as one JSON document.
const SettingTradingParams = "params.trading"

// TradingParams is every runtime-tunable knob of the decision pipeline.
// File config provides the baseline; the stored document overlays it field
// by field, so a partial override leaves the rest at their defaults.
type TradingParams struct {
	Scoring   config.ScoringConfig   `json:"scoring"`
	Sentiment config.SentimentConfig `json:"sentiment"`
	Regime    config.RegimeConfig    `json:"regime"`
	Decision  config.DecisionConfig  `json:"decision"`
	Risk      config.RiskConfig      `json:"risk"`
}

func DefaultTradingParams(cfg config.Config) TradingParams {
	return TradingParams{
		Scoring:   cfg.Scoring,
		Sentiment: cfg.Sentiment,
		Regime:    cfg.Regime,
		Decision:  cfg.Decision,
		Risk:      cfg.Risk,
	}
}

// ParamsService merges the file-config baseline with the DB override
// document. The cycle reads Current at the start of every pass, which is
// what makes every limit hot-updatable without a restart.
type ParamsService struct {
	Repo     repository.Repository
	Defaults TradingParams
}

func (s *ParamsService) Current(ctx context.Context) TradingParams {
	params := s.Defaults
	if s == nil || s.Repo == nil {
		return params
	}
	item, err := s.Repo.GetEngineSettingByKey(ctx, SettingTradingParams)
	if err != nil || item == nil || len(item.Value) == 0 {
		return params
	}
	// Unmarshal over the defaults: absent fields keep their baseline.
	if err := json.Unmarshal(item.Value, &params); err != nil {
		return s.Defaults
	}
	return params
}

// Update overlays a partial JSON patch onto the current parameters and
// stores the merged document, returning what is now live.
func (s *ParamsService) Update(ctx context.Context, patch json.RawMessage) (TradingParams, error) {
	if s == nil || s.Repo == nil {
		return TradingParams{}, errors.New("params service not configured")
	}
	params := s.Current(ctx)
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, &params); err != nil {
			return TradingParams{}, err
		}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return TradingParams{}, err
	}
	item := &models.EngineSetting{
		Key:         SettingTradingParams,
		Value:       datatypes.JSON(raw),
		Description: "live trading parameters",
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.UpsertEngineSetting(ctx, item); err != nil {
		return TradingParams{}, err
	}
	return params, nil
}

// Reset removes the override by storing the file-config baseline again.
func (s *ParamsService) Reset(ctx context.Context) (TradingParams, error) {
	if s == nil || s.Repo == nil {
		return TradingParams{}, errors.New("params service not configured")
	}
	raw, err := json.Marshal(s.Defaults)
	if err != nil {
		return TradingParams{}, err
	}
	item := &models.EngineSetting{
		Key:         SettingTradingParams,
		Value:       datatypes.JSON(raw),
		Description: "live trading parameters",
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.UpsertEngineSetting(ctx, item); err != nil {
		return TradingParams{}, err
	}
	return s.Defaults, nil
}
