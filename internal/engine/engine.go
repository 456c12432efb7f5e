package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cryptobot/internal/config"
	"cryptobot/internal/execution"
	"cryptobot/internal/portfolio"
	"cryptobot/internal/repository"
	"cryptobot/internal/risk"
	"cryptobot/internal/service"
)

// Engine owns the decision cycle: exit management, scoring, entry decisions,
// risk gating and the per-cycle portfolio snapshot. It is the single writer
// of trades and of the ledger; everything else only reads.
type Engine struct {
	Repo   repository.Repository
	Logger *zap.Logger

	Config   config.EngineConfig
	Defaults service.TradingParams

	Gate   *risk.Gate
	State  *risk.State
	Ledger *portfolio.Ledger
	Exits  *execution.ExitEngine
	Fees   execution.FeeModel

	Flags  *service.SettingsService
	Params *service.ParamsService
}

// Bootstrap rebuilds the in-memory state from persistence: free cash from
// the last snapshot, the drawdown peak from the all-time balance high, and
// the frequency clock from each asset's most recent trade.
func (e *Engine) Bootstrap(ctx context.Context) error {
	if e == nil || e.Repo == nil {
		return nil
	}
	snap, err := e.Repo.LatestPortfolioSnapshot(ctx)
	if err != nil {
		return err
	}
	if snap != nil {
		e.Ledger.Restore(snap.FreeCash)
	}
	maxBalance, err := e.Repo.MaxTotalBalance(ctx)
	if err != nil {
		return err
	}
	lastTrades, err := e.Repo.LatestTradeOpenTimes(ctx)
	if err != nil {
		return err
	}
	e.State.Restore(maxBalance.InexactFloat64(), lastTrades)

	if e.Logger != nil {
		e.Logger.Info("engine: state restored",
			zap.String("free_cash", e.Ledger.FreeCash().String()),
			zap.Float64("peak_balance", e.State.Peak()),
			zap.Int("assets_with_trades", len(lastTrades)),
		)
	}
	return nil
}

// Run executes one cycle immediately, then on every tick until the context
// is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil || e.Repo == nil {
		return nil
	}
	interval := e.Config.CycleInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.RunOnce(ctx); err != nil && e.Logger != nil && !errors.Is(err, context.Canceled) {
			e.Logger.Warn("cycle failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
