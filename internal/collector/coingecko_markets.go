package collector

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"cryptobot/internal/client/coingecko"
	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// Marks written by the stream go stale after this; the poller then takes over.
const markFallbackAge = 5 * time.Minute

// CoinGeckoMarkets polls /coins/markets for every enabled asset and maintains
// the market snapshot, the daily bar series and (as a fallback) the mark price.
// On first sight of an asset it seeds the bar series from /market_chart so the
// regime and correlation classifiers have history to work with.
type CoinGeckoMarkets struct {
	Client *coingecko.Client
	Repo   repository.Repository
	Logger *zap.Logger

	Endpoint     string
	VsCurrency   string
	PollInterval time.Duration
	BackfillDays int

	mu        sync.Mutex
	lastPoll  *time.Time
	lastError *string
	status    string
	seeded    map[uint64]bool
}

func (c *CoinGeckoMarkets) Name() string { return "coingecko_markets" }

func (c *CoinGeckoMarkets) SourceInfo() SourceInfo {
	interval := c.PollInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return SourceInfo{
		SourceType:   "rest_poll",
		Endpoint:     strings.TrimSpace(c.Endpoint),
		PollInterval: interval,
	}
}

func (c *CoinGeckoMarkets) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.Client == nil {
		c.Client = coingecko.NewClient(&http.Client{Timeout: 15 * time.Second}, c.Endpoint)
	}
	interval := c.PollInterval
	if interval <= 0 {
		interval = 2 * time.Minute
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

func (c *CoinGeckoMarkets) Stop() error { return nil }

func (c *CoinGeckoMarkets) Health() HealthStatus {
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

func (c *CoinGeckoMarkets) pollOnce(ctx context.Context) {
	now := time.Now().UTC()
	enabled := true
	assets, err := c.Repo.ListAssets(ctx, repository.ListAssetsParams{Enabled: &enabled})
	if err != nil {
		c.setHealth(now, "down", strPtr(err.Error()))
		return
	}

	byID := make(map[string]models.Asset, len(assets))
	ids := make([]string, 0, len(assets))
	for _, a := range assets {
		id := strings.TrimSpace(a.CoingeckoID)
		if id == "" {
			continue
		}
		byID[id] = a
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		c.setHealth(now, "degraded", strPtr("no assets with a coingecko id"))
		return
	}

	rows, err := c.Client.Markets(ctx, c.VsCurrency, ids)
	if err != nil {
		if coingecko.RateLimited(err) && c.Logger != nil {
			c.Logger.Warn("coingecko rate limited, holding until next poll")
		}
		c.setHealth(now, "down", strPtr(err.Error()))
		return
	}
	c.setHealth(now, "healthy", nil)

	for _, row := range rows {
		asset, ok := byID[row.ID]
		if !ok || row.CurrentPrice == nil || !row.CurrentPrice.IsPositive() {
			continue
		}
		if err := c.storeRow(ctx, asset, row, now); err != nil && c.Logger != nil {
			c.Logger.Warn("coingecko store failed",
				zap.String("symbol", asset.Symbol), zap.Error(err))
		}
	}
}

func (c *CoinGeckoMarkets) storeRow(ctx context.Context, asset models.Asset, row coingecko.Market, now time.Time) error {
	if err := c.seedHistory(ctx, asset, now); err != nil && c.Logger != nil {
		c.Logger.Warn("coingecko history seed failed",
			zap.String("symbol", asset.Symbol), zap.Error(err))
	}

	price := *row.CurrentPrice
	point := &models.PricePoint{
		AssetID: asset.ID,
		Day:     day(now),
		Close:   price,
		High:    price,
		Low:     price,
	}
	if row.High24h != nil && row.High24h.IsPositive() {
		point.High = *row.High24h
	}
	if row.Low24h != nil && row.Low24h.IsPositive() {
		point.Low = *row.Low24h
	}
	if row.TotalVolume != nil {
		point.Volume = *row.TotalVolume
	}
	if err := c.Repo.UpsertPricePoint(ctx, point); err != nil {
		return err
	}

	src := "coingecko"
	snap := &models.MarketSnapshot{
		AssetID:     asset.ID,
		Price:       price,
		High24h:     point.High,
		Low24h:      point.Low,
		TotalVolume: point.Volume,
		Source:      &src,
		UpdatedAt:   now,
	}
	snap.Change1dPct = row.Change1d()
	snap.Change7dPct = row.Change7d
	snap.Change14dPct = row.Change14d
	snap.AvgVolume7d = c.avgVolume7d(ctx, asset.ID, now)

	// Funding and open interest belong to the funding poller; the upsert
	// replaces the whole row, so carry the current values over.
	if existing, err := c.Repo.GetMarketSnapshot(ctx, asset.ID); err == nil && existing != nil {
		snap.FundingRate = existing.FundingRate
		snap.OpenInterest = existing.OpenInterest
	}
	if err := c.Repo.UpsertMarketSnapshot(ctx, snap); err != nil {
		return err
	}

	c.fallbackMark(ctx, asset.ID, price, now)
	return c.Repo.TouchAssetData(ctx, asset.ID, now)
}

// seedHistory backfills daily bars from /market_chart the first time an asset
// comes through with a thin series. Half the window is enough for the
// classifiers; checking against it avoids refetching on every boot.
func (c *CoinGeckoMarkets) seedHistory(ctx context.Context, asset models.Asset, now time.Time) error {
	days := c.BackfillDays
	if days <= 0 {
		days = 30
	}

	c.mu.Lock()
	if c.seeded == nil {
		c.seeded = map[uint64]bool{}
	}
	done := c.seeded[asset.ID]
	c.mu.Unlock()
	if done {
		return nil
	}

	since := now.AddDate(0, 0, -days)
	points, err := c.Repo.ListPricePointsSince(ctx, asset.ID, since)
	if err != nil {
		return err
	}
	if len(points) >= days/2 {
		c.markSeeded(asset.ID)
		return nil
	}

	chart, err := c.Client.MarketChart(ctx, asset.CoingeckoID, c.VsCurrency, days)
	if err != nil {
		return err
	}
	volumes := make(map[time.Time]decimal.Decimal, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		volumes[day(v.TS)] = v.Value
	}
	seeded := 0
	for _, p := range chart.Prices {
		if !p.Value.IsPositive() {
			continue
		}
		d := day(p.TS)
		// Close-only history; High=Low=Close keeps range-based math sane.
		bar := &models.PricePoint{
			AssetID: asset.ID,
			Day:     d,
			Close:   p.Value,
			High:    p.Value,
			Low:     p.Value,
		}
		if v, ok := volumes[d]; ok {
			bar.Volume = v
		}
		if err := c.Repo.UpsertPricePoint(ctx, bar); err != nil {
			return err
		}
		seeded++
	}
	c.markSeeded(asset.ID)
	if c.Logger != nil {
		c.Logger.Info("seeded price history",
			zap.String("symbol", asset.Symbol), zap.Int("bars", seeded))
	}
	return nil
}

func (c *CoinGeckoMarkets) markSeeded(assetID uint64) {
	c.mu.Lock()
	if c.seeded == nil {
		c.seeded = map[uint64]bool{}
	}
	c.seeded[assetID] = true
	c.mu.Unlock()
}

func (c *CoinGeckoMarkets) avgVolume7d(ctx context.Context, assetID uint64, now time.Time) *float64 {
	points, err := c.Repo.ListPricePointsSince(ctx, assetID, now.AddDate(0, 0, -7))
	if err != nil || len(points) == 0 {
		return nil
	}
	sum := decimal.Zero
	n := 0
	for _, p := range points {
		if p.Volume.IsPositive() {
			sum = sum.Add(p.Volume)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg, _ := sum.Div(decimal.NewFromInt(int64(n))).Float64()
	return &avg
}

// fallbackMark writes the poll price as the mark when the stream has gone
// quiet. The stream normally owns the mark row.
func (c *CoinGeckoMarkets) fallbackMark(ctx context.Context, assetID uint64, price decimal.Decimal, now time.Time) {
	existing, err := c.Repo.GetMarkPrice(ctx, assetID)
	if err != nil {
		return
	}
	if existing != nil && now.Sub(existing.UpdatedAt) < markFallbackAge {
		return
	}
	src := "coingecko"
	_ = c.Repo.UpsertMarkPrice(ctx, &models.MarkPrice{
		AssetID:   assetID,
		Price:     price,
		Source:    &src,
		UpdatedAt: now,
	})
}

func (c *CoinGeckoMarkets) setHealth(ts time.Time, status string, errStr *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPoll = &ts
	c.status = status
	c.lastError = errStr
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }
