package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"cryptobot/internal/decision"
	"cryptobot/internal/models"
	"cryptobot/internal/portfolio"
	"cryptobot/internal/repository"
	"cryptobot/internal/risk"
	"cryptobot/internal/scoring"
	"cryptobot/internal/service"
)

// CycleReport summarizes one pass over the book and the asset universe.
// A cycle always completes; per-asset failures land in Errors.
type CycleReport struct {
	CycleID   string        `json:"cycle_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	AssetsEvaluated int `json:"assets_evaluated"`
	LegsClosed      int `json:"legs_closed"`
	TradesOpened    int `json:"trades_opened"`
	EntriesRejected int `json:"entries_rejected"`
	PanicSkips      int `json:"panic_skips"`
	Errors          int `json:"errors"`
}

// entryContext is the portfolio-wide context shared by every entry
// evaluation in one cycle. activeCloses grows as trades open, so assets
// later in the pass see correlation against entries made earlier in it.
type entryContext struct {
	params  service.TradingParams
	cycleID string
	now     time.Time
	since   time.Time

	balance      float64
	openPnL      []float64
	activeCloses map[uint64][]float64
}

type scoreDetails struct {
	Technical scoring.TechnicalBreakdown `json:"technical"`
	Sentiment int                        `json:"sentiment"`
	Regime    string                     `json:"regime"`
}

type legCloseDetails struct {
	TradeID    uint64               `json:"trade_id"`
	Leg        repository.TradeLeg  `json:"leg"`
	Kind       string               `json:"kind"`
	Level      decimal.Decimal      `json:"level"`
	Mark       decimal.Decimal      `json:"mark"`
	Settlement portfolio.Settlement `json:"settlement"`
}

type tradeOpenDetails struct {
	TradeID         uint64             `json:"trade_id"`
	Direction       string             `json:"direction"`
	CombinedScore   float64            `json:"combined_score"`
	StopDistancePct float64            `json:"stop_distance_pct"`
	PositionSize    decimal.Decimal    `json:"position_size"`
	EntryPrice      decimal.Decimal    `json:"entry_price"`
	Ladder          decision.Ladder    `json:"ladder"`
	Checks          []risk.CheckResult `json:"checks"`
}

type panicSkipDetails struct {
	Regime        string  `json:"regime"`
	CombinedScore float64 `json:"combined_score"`
}

// RunOnce executes a full cycle: exits over the whole book first, so
// realized P&L is back in free cash before anything new is sized, then
// entry evaluation per asset, then the snapshot.
func (e *Engine) RunOnce(ctx context.Context) (CycleReport, error) {
	report := CycleReport{CycleID: uuid.NewString(), StartedAt: time.Now().UTC()}
	if e == nil || e.Repo == nil {
		return report, nil
	}

	params := e.Defaults
	if e.Params != nil {
		params = e.Params.Current(ctx)
	}
	e.Gate.UpdateConfig(params.Risk)

	if e.Flags.IsEnabled(ctx, service.FeatureExitManagement, true) {
		e.manageExits(ctx, report.CycleID, &report)
	}
	if e.Flags.IsEnabled(ctx, service.FeatureTrading, true) {
		if err := e.evaluateEntries(ctx, params, report.StartedAt, &report); err != nil {
			report.Duration = time.Since(report.StartedAt)
			return report, err
		}
	}
	e.snapshotPortfolio(ctx, report.CycleID, report.StartedAt, &report)

	metricCycles.Inc()
	report.Duration = time.Since(report.StartedAt)
	if e.Logger != nil {
		e.Logger.Info("cycle complete",
			zap.String("cycle_id", report.CycleID),
			zap.Int("assets", report.AssetsEvaluated),
			zap.Int("legs_closed", report.LegsClosed),
			zap.Int("trades_opened", report.TradesOpened),
			zap.Int("rejected", report.EntriesRejected),
			zap.Int("panic_skips", report.PanicSkips),
			zap.Int("errors", report.Errors),
			zap.Duration("took", report.Duration),
		)
	}
	return report, nil
}

// manageExits walks every active trade against its latest mark. Panic
// regimes never suppress this: exits always run. A trade without a usable
// mark holds all legs this cycle.
func (e *Engine) manageExits(ctx context.Context, cycleID string, report *CycleReport) {
	trades, err := e.Repo.ListActiveTrades(ctx)
	if err != nil {
		report.Errors++
		metricAssetErrors.Inc()
		if e.Logger != nil {
			e.Logger.Warn("cycle: list active trades failed", zap.Error(err))
		}
		return
	}
	if len(trades) == 0 {
		return
	}
	marks := e.marksFor(ctx, tradeAssetIDs(trades))

	for _, t := range trades {
		if ctx.Err() != nil {
			return
		}
		mark, ok := marks[t.AssetID]
		if !ok {
			continue
		}
		for _, c := range e.Exits.Check(t, mark) {
			if err := e.Repo.CloseTradeLeg(ctx, t.ID, c.Leg); err != nil {
				report.Errors++
				metricAssetErrors.Inc()
				if e.Logger != nil {
					e.Logger.Warn("cycle: close leg failed", zap.Uint64("trade_id", t.ID), zap.Error(err))
				}
				continue
			}
			st := e.Ledger.SettleLeg(t, c, e.Fees)
			e.insertRiskEvent(ctx, cycleID, &t.AssetID, models.RiskEventLegClosed, nil, legCloseDetails{
				TradeID:    t.ID,
				Leg:        c.Leg,
				Kind:       string(c.Kind),
				Level:      c.Level,
				Mark:       c.Mark,
				Settlement: st,
			})
			metricLegCloses.WithLabelValues(string(c.Kind)).Inc()
			report.LegsClosed++
			if e.Logger != nil {
				e.Logger.Info("leg closed",
					zap.Uint64("trade_id", t.ID),
					zap.Int("leg", int(c.Leg)),
					zap.String("kind", string(c.Kind)),
					zap.String("mark", c.Mark.String()),
					zap.String("realized", st.Realized.String()),
				)
			}
		}
	}
}

func (e *Engine) evaluateEntries(ctx context.Context, params service.TradingParams, now time.Time, report *CycleReport) error {
	assets, err := e.Repo.ListTradeableAssets(ctx)
	if err != nil {
		return err
	}
	if len(assets) == 0 {
		return nil
	}
	env, err := e.buildEntryContext(ctx, params, now, report.CycleID)
	if err != nil {
		return err
	}
	for _, a := range assets {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := e.evaluateAsset(ctx, &env, a, report); err != nil {
			report.Errors++
			metricAssetErrors.Inc()
			if e.Logger != nil {
				e.Logger.Warn("cycle: asset evaluation failed", zap.String("symbol", a.Symbol), zap.Error(err))
			}
		}
		report.AssetsEvaluated++
	}
	return nil
}

func (e *Engine) buildEntryContext(ctx context.Context, params service.TradingParams, now time.Time, cycleID string) (entryContext, error) {
	env := entryContext{
		params:       params,
		cycleID:      cycleID,
		now:          now,
		activeCloses: map[uint64][]float64{},
	}
	window := params.Risk.CorrelationDays
	if window <= 0 {
		window = 30
	}
	env.since = now.AddDate(0, 0, -window)

	active, err := e.Repo.ListActiveTrades(ctx)
	if err != nil {
		return env, err
	}
	marks := e.marksFor(ctx, tradeAssetIDs(active))

	unrealized := decimal.Zero
	env.openPnL = make([]float64, 0, len(active))
	for _, t := range active {
		mark, ok := marks[t.AssetID]
		if !ok {
			continue
		}
		pnl := portfolio.UnrealizedPnL(t, mark)
		unrealized = unrealized.Add(pnl)
		env.openPnL = append(env.openPnL, pnl.InexactFloat64())
	}
	env.balance = e.Ledger.FreeCash().Add(unrealized).InexactFloat64()

	for _, t := range active {
		if _, ok := env.activeCloses[t.AssetID]; ok {
			continue
		}
		series, _ := e.Repo.ListPricePointsSince(ctx, t.AssetID, env.since)
		if len(series) > 0 {
			env.activeCloses[t.AssetID] = closesOf(series)
		}
	}
	return env, nil
}

// evaluateAsset runs the full decision pipeline for one asset. The score
// record is written for every evaluation, whatever the outcome; the regime
// and the gates only decide what happens after it.
func (e *Engine) evaluateAsset(ctx context.Context, env *entryContext, a models.Asset, report *CycleReport) error {
	market, err := e.Repo.GetMarketSnapshot(ctx, a.ID)
	if err != nil {
		return err
	}
	if market == nil {
		if e.Logger != nil {
			e.Logger.Debug("cycle: no market data", zap.String("symbol", a.Symbol))
		}
		return nil
	}
	indicators, err := e.Repo.GetIndicatorSnapshot(ctx, a.ID)
	if err != nil {
		return err
	}
	sentimentRow, err := e.Repo.GetSentimentSnapshot(ctx, a.ID)
	if err != nil {
		return err
	}
	series, err := e.Repo.ListPricePointsSince(ctx, a.ID, env.since)
	if err != nil {
		return err
	}

	params := env.params
	technical := (&scoring.TechnicalScorer{Config: params.Scoring}).Score(bundleFromSnapshot(indicators), marketFromSnapshot(market))
	sentiment := (&scoring.SentimentScorer{Config: params.Sentiment}).Score(sentimentFromSnapshot(sentimentRow))
	regime := (&scoring.RegimeClassifier{Config: params.Regime}).Classify(regimeInputs(series, indicators, market))
	dec := (&decision.EntryEngine{Config: params.Decision}).Decide(technical.Total, sentiment)

	record := models.ScoreRecord{
		CycleID:        env.cycleID,
		AssetID:        a.ID,
		TechnicalScore: technical.Total,
		CombinedScore:  dec.Combined,
		Direction:      dec.Direction,
		ReferencePrice: market.Price,
		Details: jsonDetails(scoreDetails{
			Technical: technical,
			Sentiment: sentiment,
			Regime:    regime.String(),
		}),
	}
	if err := e.Repo.InsertScoreRecord(ctx, &record); err != nil {
		return err
	}

	if regime.SkipsEntry() {
		e.insertRiskEvent(ctx, env.cycleID, &a.ID, models.RiskEventPanicSkip, nil, panicSkipDetails{
			Regime:        regime.String(),
			CombinedScore: dec.Combined,
		})
		metricPanicSkips.Inc()
		report.PanicSkips++
		if e.Logger != nil {
			e.Logger.Info("entry skipped: panic regime", zap.String("symbol", a.Symbol))
		}
		return nil
	}
	if dec.Direction == models.DirectionNone {
		return nil
	}

	sizer := &decision.PositionSizer{Config: params.Decision}
	stopDistance := sizer.StopDistance(dec.Combined)
	size := sizer.Size(dec.Combined, e.Ledger.FreeCash().InexactFloat64(), stopDistance)
	if size <= 0 {
		if e.Logger != nil {
			e.Logger.Debug("cycle: no free cash to size entry", zap.String("symbol", a.Symbol))
		}
		return nil
	}

	verdict := e.Gate.Allow(risk.Request{
		AssetID:         a.ID,
		Now:             env.now,
		TotalBalance:    env.balance,
		OpenTradePnL:    env.openPnL,
		CandidateCloses: closesOf(series),
		ActiveCloses:    env.activeCloses,
	})
	if !verdict.Allowed {
		blocked := verdict.BlockedBy
		e.insertRiskEvent(ctx, env.cycleID, &a.ID, models.RiskEventEntryRejected, &blocked, verdict)
		metricRejections.WithLabelValues(blocked).Inc()
		report.EntriesRejected++
		return nil
	}

	ladder := sizer.ExitLadder(dec.Direction, stopDistance)
	runner := decimal.NewFromFloat(ladder.RunnerTarget)
	trade := models.Trade{
		AssetID:         a.ID,
		CycleID:         env.cycleID,
		OpenedAt:        env.now,
		Direction:       dec.Direction,
		PositionSize:    decimal.NewFromFloat(size),
		EntryPrice:      market.Price,
		RiskRewardRatio: decimal.NewFromFloat(ladder.RiskReward),
		TakeProfit1:     decimal.NewFromFloat(ladder.TakeProfit1),
		StopLoss1:       decimal.NewFromFloat(ladder.StopLoss1),
		TakeProfit2:     decimal.NewFromFloat(ladder.TakeProfit2),
		StopLoss2:       decimal.NewFromFloat(ladder.StopLoss2),
		RunnerTarget:    &runner,
	}
	if err := e.Repo.InsertTrade(ctx, &trade); err != nil {
		return err
	}
	e.Ledger.Debit(trade.PositionSize)
	e.State.RecordTrade(a.ID, env.now)
	if len(series) > 0 {
		// Later assets in this pass correlate against this entry too.
		env.activeCloses[a.ID] = closesOf(series)
	}

	e.insertRiskEvent(ctx, env.cycleID, &a.ID, models.RiskEventTradeOpened, nil, tradeOpenDetails{
		TradeID:         trade.ID,
		Direction:       dec.Direction.String(),
		CombinedScore:   dec.Combined,
		StopDistancePct: stopDistance,
		PositionSize:    trade.PositionSize,
		EntryPrice:      trade.EntryPrice,
		Ladder:          ladder,
		Checks:          verdict.Checks,
	})
	metricEntries.WithLabelValues(dec.Direction.String()).Inc()
	report.TradesOpened++
	if e.Logger != nil {
		e.Logger.Info("trade opened",
			zap.String("symbol", a.Symbol),
			zap.String("direction", dec.Direction.String()),
			zap.Float64("combined_score", dec.Combined),
			zap.String("size", trade.PositionSize.String()),
			zap.String("entry", trade.EntryPrice.String()),
		)
	}
	return nil
}

// snapshotPortfolio writes the one append-only capital record per cycle and
// feeds the total back into the drawdown peak.
func (e *Engine) snapshotPortfolio(ctx context.Context, cycleID string, now time.Time, report *CycleReport) {
	trades, err := e.Repo.ListActiveTrades(ctx)
	if err != nil {
		report.Errors++
		metricAssetErrors.Inc()
		if e.Logger != nil {
			e.Logger.Warn("cycle: snapshot skipped", zap.Error(err))
		}
		return
	}
	marks := e.marksFor(ctx, tradeAssetIDs(trades))
	unrealized := decimal.Zero
	for _, t := range trades {
		mark, ok := marks[t.AssetID]
		if !ok {
			continue
		}
		unrealized = unrealized.Add(portfolio.UnrealizedPnL(t, mark))
	}

	snap := e.Ledger.Snapshot(cycleID, now, unrealized, len(trades))
	if err := e.Repo.InsertPortfolioSnapshot(ctx, &snap); err != nil {
		report.Errors++
		metricAssetErrors.Inc()
		if e.Logger != nil {
			e.Logger.Warn("cycle: snapshot insert failed", zap.Error(err))
		}
		return
	}
	e.State.ObserveBalance(snap.TotalBalance.InexactFloat64())
	metricTotalBalance.Set(snap.TotalBalance.InexactFloat64())
	metricFreeCash.Set(snap.FreeCash.InexactFloat64())
	metricOpenTrades.Set(float64(snap.OpenTrades))
}

// marksFor resolves the latest positive mark per asset. Zero or missing
// marks are dropped so callers treat those assets as feed-stale.
func (e *Engine) marksFor(ctx context.Context, assetIDs []uint64) map[uint64]decimal.Decimal {
	out := map[uint64]decimal.Decimal{}
	if len(assetIDs) == 0 {
		return out
	}
	items, err := e.Repo.ListMarkPricesByAssetIDs(ctx, assetIDs)
	if err != nil {
		if e.Logger != nil {
			e.Logger.Warn("cycle: mark prices unavailable", zap.Error(err))
		}
		return out
	}
	for _, m := range items {
		if m.Price.Sign() > 0 {
			out[m.AssetID] = m.Price
		}
	}
	return out
}

func (e *Engine) insertRiskEvent(ctx context.Context, cycleID string, assetID *uint64, kind string, gate *string, details any) {
	event := models.RiskEvent{
		CycleID: cycleID,
		AssetID: assetID,
		Kind:    kind,
		Gate:    gate,
		Details: jsonDetails(details),
	}
	if err := e.Repo.InsertRiskEvent(ctx, &event); err != nil && e.Logger != nil {
		e.Logger.Warn("cycle: risk event insert failed", zap.String("kind", kind), zap.Error(err))
	}
}

func jsonDetails(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func tradeAssetIDs(trades []models.Trade) []uint64 {
	seen := map[uint64]struct{}{}
	out := make([]uint64, 0, len(trades))
	for _, t := range trades {
		if _, ok := seen[t.AssetID]; ok {
			continue
		}
		seen[t.AssetID] = struct{}{}
		out = append(out, t.AssetID)
	}
	return out
}
