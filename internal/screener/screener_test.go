package screener

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cryptobot/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestSweepMarksStaleAndActive(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{assets: []models.Asset{
		{ID: 1, Symbol: "BTC", Enabled: true, Status: models.AssetStatusActive,
			LastDataAt: timePtr(now.Add(-time.Minute))},
		{ID: 2, Symbol: "ETH", Enabled: true, Status: models.AssetStatusActive,
			LastDataAt: timePtr(now.Add(-2 * time.Hour))},
		{ID: 3, Symbol: "SOL", Enabled: true, Status: models.AssetStatusStale,
			LastDataAt: timePtr(now.Add(-30 * time.Second))},
		{ID: 4, Symbol: "DOGE", Enabled: true, Status: models.AssetStatusActive}, // never collected
	}}

	s := &Screener{Repo: repo, MaxSnapshotAge: 30 * time.Minute}
	res, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if res.Checked != 4 {
		t.Fatalf("checked = %d, want 4", res.Checked)
	}
	if res.Active != 2 || res.Stale != 2 {
		t.Fatalf("active/stale = %d/%d, want 2/2", res.Active, res.Stale)
	}
	// ETH and DOGE go stale, SOL recovers; BTC stays put.
	if res.Changed != 3 {
		t.Fatalf("changed = %d, want 3", res.Changed)
	}
	if got := repo.statuses[2]; got != models.AssetStatusStale {
		t.Fatalf("ETH status = %q, want stale", got)
	}
	if got := repo.statuses[4]; got != models.AssetStatusStale {
		t.Fatalf("DOGE status = %q, want stale", got)
	}
	if got := repo.statuses[3]; got != models.AssetStatusActive {
		t.Fatalf("SOL status = %q, want active", got)
	}
	if _, ok := repo.statuses[1]; ok {
		t.Fatalf("BTC status should not have been written")
	}
}

func TestSweepLeavesHaltedAlone(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{assets: []models.Asset{
		{ID: 1, Symbol: "BTC", Enabled: true, Status: models.AssetStatusHalted,
			LastDataAt: timePtr(now)},
	}}

	s := &Screener{Repo: repo, MaxSnapshotAge: 30 * time.Minute}
	res, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Halted != 1 || res.Changed != 0 {
		t.Fatalf("halted/changed = %d/%d, want 1/0", res.Halted, res.Changed)
	}
	if len(repo.statuses) != 0 {
		t.Fatalf("halted asset status was written: %v", repo.statuses)
	}
}

func TestSweepVolumeFloor(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{
		assets: []models.Asset{
			{ID: 1, Symbol: "BTC", Enabled: true, Status: models.AssetStatusActive,
				LastDataAt: timePtr(now)},
			{ID: 2, Symbol: "ETH", Enabled: true, Status: models.AssetStatusActive,
				LastDataAt: timePtr(now)},
		},
		markets: map[uint64]*models.MarketSnapshot{
			1: {AssetID: 1, TotalVolume: decimal.NewFromInt(5_000_000)},
			2: {AssetID: 2, TotalVolume: decimal.NewFromInt(500)},
		},
	}

	s := &Screener{Repo: repo, MaxSnapshotAge: 30 * time.Minute, MinVolume: 10_000}
	res, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Active != 1 || res.Stale != 1 {
		t.Fatalf("active/stale = %d/%d, want 1/1", res.Active, res.Stale)
	}
	if got := repo.statuses[2]; got != models.AssetStatusStale {
		t.Fatalf("low volume asset status = %q, want stale", got)
	}
}

func TestSweepSkipsDisabled(t *testing.T) {
	repo := &stubRepo{assets: []models.Asset{
		{ID: 1, Symbol: "BTC", Enabled: false, Status: models.AssetStatusActive},
	}}
	s := &Screener{Repo: repo}
	res, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Checked != 0 {
		t.Fatalf("checked = %d, want 0", res.Checked)
	}
}
