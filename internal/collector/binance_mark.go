package collector

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/client/binance"
	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// bookTicker is chatty; cap the write rate per asset.
const markWriteInterval = 2 * time.Second

// BinanceMark subscribes to per-symbol bookTicker streams and keeps the mark
// price table current from the bid/ask midpoint. Exit checks and unrealized
// P&L read these rows.
type BinanceMark struct {
	Repo   repository.Repository
	Logger *zap.Logger

	URL string

	mu        sync.Mutex
	lastTick  *time.Time
	lastError *string
	status    string
	assets    map[string]uint64 // "BTCUSDT" -> asset id
	lastWrite map[uint64]time.Time
}

func (c *BinanceMark) Name() string { return "binance_mark" }

func (c *BinanceMark) SourceInfo() SourceInfo {
	endpoint := strings.TrimSpace(c.URL)
	if endpoint == "" {
		endpoint = binance.DefaultStreamURL
	}
	return SourceInfo{
		SourceType: "websocket",
		Endpoint:   endpoint,
	}
}

func (c *BinanceMark) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}
	stream := binance.NewStream(binance.StreamOptions{
		URL:            c.URL,
		StreamProvider: c.refreshStreams,
		Logger:         c.Logger,
	})
	err := stream.Run(ctx, func(tick binance.BookTicker, _ []byte) {
		c.onTick(ctx, tick)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		now := time.Now().UTC()
		c.setHealth(now, "down", strPtr(err.Error()))
	}
	return err
}

func (c *BinanceMark) Stop() error { return nil }

func (c *BinanceMark) Health() HealthStatus {
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
		LastPollAt: c.lastTick,
		LastError:  c.lastError,
	}
}

// refreshStreams doubles as the subscription list and the symbol->asset map
// refresh, so newly enabled assets start streaming within one refresh.
func (c *BinanceMark) refreshStreams(ctx context.Context) ([]string, error) {
	enabled := true
	assets, err := c.Repo.ListAssets(ctx, repository.ListAssetsParams{Enabled: &enabled})
	if err != nil {
		return nil, err
	}
	bySymbol := make(map[string]uint64, len(assets))
	streams := make([]string, 0, len(assets))
	for _, a := range assets {
		symbol := strings.ToUpper(strings.TrimSpace(a.BinanceSymbol))
		if symbol == "" {
			continue
		}
		bySymbol[symbol] = a.ID
		streams = append(streams, binance.StreamName(symbol))
	}
	c.mu.Lock()
	c.assets = bySymbol
	c.mu.Unlock()
	return streams, nil
}

func (c *BinanceMark) onTick(ctx context.Context, tick binance.BookTicker) {
	if tick.Symbol == "" {
		return // subscription ack or other control frame
	}
	mid := tick.Mid()
	if !mid.IsPositive() {
		return
	}
	now := time.Now().UTC()

	c.mu.Lock()
	assetID, ok := c.assets[strings.ToUpper(tick.Symbol)]
	write := false
	if ok {
		if c.lastWrite == nil {
			c.lastWrite = map[uint64]time.Time{}
		}
		if now.Sub(c.lastWrite[assetID]) >= markWriteInterval {
			c.lastWrite[assetID] = now
			write = true
		}
	}
	c.lastTick = &now
	c.status = "healthy"
	c.lastError = nil
	c.mu.Unlock()

	if !write {
		return
	}
	src := "binance"
	err := c.Repo.UpsertMarkPrice(ctx, &models.MarkPrice{
		AssetID:   assetID,
		Price:     mid,
		Source:    &src,
		UpdatedAt: now,
	})
	if err != nil {
		c.mu.Lock()
		c.lastError = strPtr(err.Error())
		c.status = "degraded"
		c.mu.Unlock()
		if c.Logger != nil {
			c.Logger.Warn("mark write failed", zap.String("symbol", tick.Symbol), zap.Error(err))
		}
	}
}

func (c *BinanceMark) setHealth(ts time.Time, status string, errStr *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastTick = &ts
	c.status = status
	c.lastError = errStr
}
