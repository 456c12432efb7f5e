package collector

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// Runner starts registered collectors and keeps their data_sources rows
// current so the API can report feed health.
type Runner struct {
	collectors map[string]Collector
	mu         sync.RWMutex

	repo   repository.Repository
	logger *zap.Logger
}

func NewRunner(repo repository.Repository, logger *zap.Logger) *Runner {
	return &Runner{
		collectors: map[string]Collector{},
		repo:       repo,
		logger:     logger,
	}
}

func (r *Runner) Register(c Collector) {
	if r == nil || c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Health returns the current status of every registered collector.
func (r *Runner) Health() map[string]HealthStatus {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]HealthStatus, len(r.collectors))
	for name, c := range r.collectors {
		out[name] = c.Health()
	}
	return out
}

func (r *Runner) Run(ctx context.Context) error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	collectors := make([]Collector, 0, len(r.collectors))
	for _, c := range r.collectors {
		collectors = append(collectors, c)
	}
	r.mu.RUnlock()

	for _, c := range collectors {
		c := c
		r.upsertSource(ctx, c, HealthStatus{Status: "unknown"})
		go func() {
			if err := c.Start(ctx); err != nil && r.logger != nil {
				r.logger.Warn("collector stopped", zap.String("collector", c.Name()), zap.Error(err))
			}
		}()
	}

	healthTicker := time.NewTicker(30 * time.Second)
	defer healthTicker.Stop()
	statsTicker := time.NewTicker(60 * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			for _, c := range collectors {
				_ = c.Stop()
			}
			return ctx.Err()
		case <-healthTicker.C:
			for _, c := range collectors {
				r.upsertSource(ctx, c, c.Health())
			}
		case <-statsTicker.C:
			if r.logger != nil {
				healthy, down := 0, 0
				for _, c := range collectors {
					switch c.Health().Status {
					case "healthy":
						healthy++
					case "down":
						down++
					}
				}
				r.logger.Info("collector stats",
					zap.Int("collectors", len(collectors)),
					zap.Int("healthy", healthy),
					zap.Int("down", down),
				)
			}
		}
	}
}

func (r *Runner) upsertSource(ctx context.Context, c Collector, health HealthStatus) {
	if r == nil || r.repo == nil || c == nil {
		return
	}
	info := SourceInfo{SourceType: "internal", PollInterval: 0}
	if p, ok := c.(CollectorSourceInfo); ok {
		info = p.SourceInfo()
	}
	hs := health.Status
	if hs == "" {
		hs = "unknown"
	}
	now := time.Now().UTC()
	lastPoll := health.LastPollAt
	if lastPoll == nil {
		lastPoll = &now
	}
	item := &models.DataSource{
		Name:         c.Name(),
		SourceType:   info.SourceType,
		Endpoint:     info.Endpoint,
		PollInterval: durationString(info.PollInterval),
		Enabled:      true,
		LastPollAt:   lastPoll,
		LastError:    health.LastError,
		HealthStatus: hs,
	}
	_ = r.repo.UpsertDataSource(ctx, item)
}

func durationString(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.String()
}
