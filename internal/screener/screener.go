package screener

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// Screener sweeps the asset registry and flips enabled assets between active
// and stale from data freshness and the volume floor. Halted is an operator
// state and is never touched. The decision cycle only evaluates active
// assets; exit management keeps running for the rest.
type Screener struct {
	Repo   repository.Repository
	Logger *zap.Logger

	MaxSnapshotAge time.Duration
	MinVolume      float64
}

type SweepResult struct {
	Checked int `json:"checked"`
	Active  int `json:"active"`
	Stale   int `json:"stale"`
	Halted  int `json:"halted"`
	Changed int `json:"changed"`
}

func (s *Screener) Sweep(ctx context.Context) (SweepResult, error) {
	if s == nil || s.Repo == nil {
		return SweepResult{}, nil
	}
	maxAge := s.MaxSnapshotAge
	if maxAge <= 0 {
		maxAge = 30 * time.Minute
	}
	now := time.Now().UTC()

	enabled := true
	assets, err := s.Repo.ListAssets(ctx, repository.ListAssetsParams{Enabled: &enabled})
	if err != nil {
		return SweepResult{}, err
	}

	var res SweepResult
	for _, a := range assets {
		res.Checked++
		if a.Status == models.AssetStatusHalted {
			res.Halted++
			continue
		}
		status, reason := s.classify(ctx, a, now, maxAge)
		switch status {
		case models.AssetStatusActive:
			res.Active++
		case models.AssetStatusStale:
			res.Stale++
		}
		if status == a.Status {
			continue
		}
		if err := s.Repo.SetAssetStatus(ctx, a.ID, status); err != nil {
			if s.Logger != nil {
				s.Logger.Warn("screener status update failed",
					zap.String("symbol", a.Symbol), zap.Error(err))
			}
			continue
		}
		res.Changed++
		if s.Logger != nil {
			s.Logger.Info("asset status changed",
				zap.String("symbol", a.Symbol),
				zap.String("from", a.Status),
				zap.String("to", status),
				zap.String("reason", reason),
			)
		}
	}
	return res, nil
}

func (s *Screener) classify(ctx context.Context, a models.Asset, now time.Time, maxAge time.Duration) (string, string) {
	if a.LastDataAt == nil {
		return models.AssetStatusStale, "no data yet"
	}
	if now.Sub(*a.LastDataAt) > maxAge {
		return models.AssetStatusStale, "data stale"
	}
	if s.MinVolume > 0 {
		snap, err := s.Repo.GetMarketSnapshot(ctx, a.ID)
		if err != nil || snap == nil {
			return models.AssetStatusStale, "no market snapshot"
		}
		if snap.TotalVolume.InexactFloat64() < s.MinVolume {
			return models.AssetStatusStale, "volume below floor"
		}
	}
	return models.AssetStatusActive, "data fresh"
}
