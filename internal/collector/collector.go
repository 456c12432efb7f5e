package collector

import (
	"context"
	"time"
)

type HealthStatus struct {
	Status     string
	LastPollAt *time.Time
	LastError  *string
}

type SourceInfo struct {
	SourceType   string
	Endpoint     string
	PollInterval time.Duration
}

type CollectorSourceInfo interface {
	SourceInfo() SourceInfo
}

// Collector feeds the market data tables. Collectors write straight to the
// repository; Start blocks until the context is cancelled.
type Collector interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Health() HealthStatus
}
