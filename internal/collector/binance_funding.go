package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/client/binance"
	"cryptobot/internal/repository"
)

// BinanceFunding polls the futures premium index and attaches the funding
// rate to each asset's market snapshot. The regime classifier reads it as a
// crowding signal.
type BinanceFunding struct {
	Client *binance.Client
	Repo   repository.Repository
	Logger *zap.Logger

	Endpoint     string
	PollInterval time.Duration

	mu        sync.Mutex
	lastPoll  *time.Time
	lastError *string
	status    string
}

func (c *BinanceFunding) Name() string { return "binance_funding" }

func (c *BinanceFunding) SourceInfo() SourceInfo {
	interval := c.PollInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return SourceInfo{
		SourceType:   "rest_poll",
		Endpoint:     strings.TrimSpace(c.Endpoint),
		PollInterval: interval,
	}
}

func (c *BinanceFunding) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Client == nil {
		c.Client = binance.NewClient(&http.Client{Timeout: 15 * time.Second}, c.Endpoint)
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	// Run immediately once.
	c.pollOnce(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			c.pollOnce(ctx)
		}
	}
}

func (c *BinanceFunding) Stop() error { return nil }

func (c *BinanceFunding) Health() HealthStatus {
	if c == nil {
		return HealthStatus{Status: "unknown"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	status := c.status
	if strings.TrimSpace(status) == "" {
		status = "unknown"
	}
	return HealthStatus{
		Status:     status,
		LastPollAt: c.lastPoll,
		LastError:  c.lastError,
	}
}

func (c *BinanceFunding) pollOnce(ctx context.Context) {
	now := time.Now().UTC()
	enabled := true
	assets, err := c.Repo.ListAssets(ctx, repository.ListAssetsParams{Enabled: &enabled})
	if err != nil {
		c.setHealth(now, "down", strPtr(err.Error()))
		return
	}

	attempted, failed := 0, 0
	var lastErr error
	for _, a := range assets {
		symbol := strings.TrimSpace(a.BinanceSymbol)
		if symbol == "" {
			continue
		}
		attempted++
		if err := c.updateFunding(ctx, a.ID, symbol, now); err != nil {
			failed++
			lastErr = err
			if c.Logger != nil {
				c.Logger.Warn("funding update failed",
					zap.String("symbol", a.Symbol), zap.Error(err))
			}
		}
	}

	switch {
	case attempted == 0:
		c.setHealth(now, "degraded", strPtr("no assets with a binance symbol"))
	case failed == attempted:
		c.setHealth(now, "down", strPtr(lastErr.Error()))
	case failed > 0:
		c.setHealth(now, "degraded", strPtr(fmt.Sprintf("%d/%d symbols failed: %v", failed, attempted, lastErr)))
	default:
		c.setHealth(now, "healthy", nil)
	}
}

func (c *BinanceFunding) updateFunding(ctx context.Context, assetID uint64, symbol string, now time.Time) error {
	idx, err := c.Client.PremiumIndex(ctx, symbol)
	if err != nil {
		return err
	}
	snap, err := c.Repo.GetMarketSnapshot(ctx, assetID)
	if err != nil {
		return err
	}
	if snap == nil {
		// Nothing to attach the rate to until the markets poller has run.
		return nil
	}
	rate, _ := idx.LastFundingRate.Float64()
	snap.FundingRate = &rate
	snap.UpdatedAt = now
	return c.Repo.UpsertMarketSnapshot(ctx, snap)
}

func (c *BinanceFunding) setHealth(ts time.Time, status string, errStr *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPoll = &ts
	c.status = status
	c.lastError = errStr
}
