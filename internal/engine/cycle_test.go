package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"cryptobot/internal/config"
	"cryptobot/internal/execution"
	"cryptobot/internal/models"
	"cryptobot/internal/portfolio"
	"cryptobot/internal/risk"
	"cryptobot/internal/service"
)

func fptr(v float64) *float64 { return &v }

func testTradingParams() service.TradingParams {
	return service.TradingParams{
		Scoring: config.ScoringConfig{
			WeightEMA:        0.22,
			WeightMACD:       0.22,
			WeightRSI:        0.13,
			WeightSMA:        0.09,
			WeightVolatility: 0.20,
			WeightPivot:      0.07,
			WeightFibo:       0.07,

			RSIOversoldStrong:   35,
			RSIOversoldWeak:     42,
			RSIOverboughtWeak:   58,
			RSIOverboughtStrong: 65,

			VolatilityLow:  2.0,
			VolatilityHigh: 5.0,
		},
		Sentiment: config.SentimentConfig{
			MinTweets:         30,
			PositiveThreshold: 0.2,
			NegativeThreshold: -0.1,
			TrendBonus:        0.1,
		},
		Regime: config.RegimeConfig{
			ATRPeriod:        14,
			ATRPanicPct:      0.05,
			VolumePanicRatio: 2.0,
			FundingPanicAbs:  0.1,
			TrendRSIUpper:    52,
			TrendRSILower:    48,
		},
		Decision: config.DecisionConfig{
			TechnicalWeight: 0.85,
			SentimentWeight: 0.15,
			LongThreshold:   0.55,
			ShortThreshold:  -0.55,

			TierMediumBand: 0.70,
			TierHighBand:   0.85,
			TierLowRisk:    0.01,
			TierMediumRisk: 0.015,
			TierHighRisk:   0.02,

			MinStopDistance:     0.005,
			MaxPositionFraction: 0.10,
			BaseStopPct:         0.6,
			MinStopPct:          0.25,
		},
		Risk: config.RiskConfig{
			MaxDailyLossPct:  2.0,
			MaxDrawdownPct:   20.0,
			MaxCorrelation:   0.7,
			MinTradeInterval: 2 * time.Hour,
			CorrelationDays:  30,
		},
	}
}

func testEngine(t *testing.T, repo *stubRepo) *Engine {
	t.Helper()
	params := testTradingParams()
	state := risk.NewState(10000)
	return &Engine{
		Repo:     repo,
		Defaults: params,
		Gate:     risk.NewGate(params.Risk, 10000, state, nil),
		State:    state,
		Ledger:   portfolio.NewLedger(10000),
		Exits:    &execution.ExitEngine{},
		Fees:     execution.NewFeeModel(config.FeesConfig{Pct: 0.005}),
	}
}

// seedBullishAsset wires one asset whose indicators push the technical score
// to the clamp, so the combined score is 0.85 and the decision is long.
func seedBullishAsset(repo *stubRepo, assetID uint64) {
	repo.assets = append(repo.assets, models.Asset{
		ID: assetID, Symbol: "BTC", Enabled: true, Status: models.AssetStatusActive,
	})
	if repo.markets == nil {
		repo.markets = map[uint64]*models.MarketSnapshot{}
	}
	repo.markets[assetID] = &models.MarketSnapshot{
		AssetID:      assetID,
		Price:        decimal.NewFromInt(100),
		High24h:      decimal.NewFromInt(101),
		Low24h:       decimal.NewFromInt(99),
		TotalVolume:  decimal.NewFromInt(1000),
		Change1dPct:  fptr(5),
		Change7dPct:  fptr(5),
		Change14dPct: fptr(5),
		AvgVolume7d:  fptr(1000),
	}
	if repo.indicators == nil {
		repo.indicators = map[uint64]*models.IndicatorSnapshot{}
	}
	repo.indicators[assetID] = &models.IndicatorSnapshot{
		AssetID:       assetID,
		MACDDaily:     fptr(2),
		SignalDaily:   fptr(1),
		MACDHourly:    fptr(2),
		SignalHourly:  fptr(1),
		Histogram:     fptr(2),
		HistogramNorm: fptr(2),
		EMA50:         fptr(90),
		EMA200:        fptr(80),
		SMA50:         fptr(95),
		SMA200:        fptr(90),
		Pivot:         fptr(99),
		PivotR1:       fptr(105),
		PivotS1:       fptr(95),
		Fibo382:       fptr(102),
		Fibo618:       fptr(108),
	}
}

func mkOpenTrade(id, assetID uint64, openedAt time.Time) models.Trade {
	runner := decimal.NewFromFloat(3.5)
	return models.Trade{
		ID:           id,
		AssetID:      assetID,
		Direction:    models.DirectionLong,
		OpenedAt:     openedAt,
		PositionSize: decimal.NewFromInt(600),
		EntryPrice:   decimal.NewFromInt(100),
		TakeProfit1:  decimal.NewFromFloat(1.2),
		StopLoss1:    decimal.NewFromFloat(0.6),
		TakeProfit2:  decimal.NewFromInt(5),
		StopLoss2:    decimal.NewFromInt(3),
		RunnerTarget: &runner,
	}
}

func eventKinds(repo *stubRepo) map[string]int {
	out := map[string]int{}
	for _, e := range repo.events {
		out[e.Kind]++
	}
	return out
}

func TestRunOnceOpensTradeOnStrongSignal(t *testing.T) {
	repo := &stubRepo{}
	seedBullishAsset(repo, 1)
	e := testEngine(t, repo)

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.TradesOpened != 1 || report.Errors != 0 {
		t.Fatalf("report=%+v want one opened trade and no errors", report)
	}
	if len(repo.trades) != 1 {
		t.Fatalf("trades=%d want=1", len(repo.trades))
	}

	trade := repo.trades[0]
	if trade.Direction != models.DirectionLong {
		t.Fatalf("direction=%v want long", trade.Direction)
	}
	// Combined 0.85 is the high tier: 2% of 10000 free cash over a 0.25
	// stop distance is an 800 position.
	if trade.PositionSize.Cmp(decimal.NewFromInt(800)) != 0 {
		t.Fatalf("size=%s want=800", trade.PositionSize)
	}
	if trade.TakeProfit1.Cmp(decimal.NewFromFloat(0.3)) != 0 || trade.StopLoss1.Cmp(decimal.NewFromFloat(0.25)) != 0 {
		t.Fatalf("leg1=%s/%s want=0.3/0.25", trade.TakeProfit1, trade.StopLoss1)
	}
	if trade.RunnerTarget == nil || trade.RunnerTarget.Cmp(decimal.NewFromFloat(0.875)) != 0 {
		t.Fatalf("runner=%v want=0.875", trade.RunnerTarget)
	}

	if got := e.Ledger.FreeCash(); got.Cmp(decimal.NewFromInt(9200)) != 0 {
		t.Fatalf("free=%s want=9200 after debit", got)
	}
	if len(repo.scores) != 1 {
		t.Fatalf("scores=%d want=1", len(repo.scores))
	}
	if repo.scores[0].TechnicalScore != 1.0 {
		t.Fatalf("technical=%v want=1.0 (clamped)", repo.scores[0].TechnicalScore)
	}
	if kinds := eventKinds(repo); kinds[models.RiskEventTradeOpened] != 1 {
		t.Fatalf("events=%v want one trade_opened", kinds)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots=%d want=1", len(repo.snapshots))
	}
	if got := repo.snapshots[0].TotalBalance; got.Cmp(decimal.NewFromInt(9200)) != 0 {
		t.Fatalf("total=%s want=9200 (no mark for the new trade)", got)
	}
}

func TestRunOnceRecordsScoreWithoutTrading(t *testing.T) {
	repo := &stubRepo{}
	repo.assets = append(repo.assets, models.Asset{ID: 1, Symbol: "ETH", Enabled: true, Status: models.AssetStatusActive})
	repo.markets = map[uint64]*models.MarketSnapshot{1: {AssetID: 1, Price: decimal.NewFromInt(100)}}
	// No indicators at all: RSI coerces to the oversold branch but every
	// other family stays flat, leaving the combined score under threshold.
	e := testEngine(t, repo)

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.TradesOpened != 0 || len(repo.trades) != 0 {
		t.Fatalf("report=%+v trades=%d want none", report, len(repo.trades))
	}
	if len(repo.scores) != 1 {
		t.Fatalf("scores=%d want=1 (recorded on every evaluation)", len(repo.scores))
	}
	if repo.scores[0].Direction != models.DirectionNone {
		t.Fatalf("direction=%v want none", repo.scores[0].Direction)
	}
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots=%d want=1", len(repo.snapshots))
	}
}

func TestRunOnceClosesLegAndSettles(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{
		trades:      []models.Trade{mkOpenTrade(1, 1, now.Add(-time.Hour))},
		nextTradeID: 1,
		marks:       map[uint64]decimal.Decimal{1: decimal.NewFromFloat(101.3)},
	}
	e := testEngine(t, repo)
	e.Ledger.Restore(decimal.NewFromInt(9400))

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.LegsClosed != 1 {
		t.Fatalf("legs_closed=%d want=1", report.LegsClosed)
	}
	if repo.trades[0].Status1 != models.LegClosed {
		t.Fatalf("status_1=%v want closed", repo.trades[0].Status1)
	}
	if repo.trades[0].Status2 != models.LegOpen {
		t.Fatalf("status_2=%v want still open", repo.trades[0].Status2)
	}
	// 200 principal back plus 2.6 realized minus 1 fee.
	if got := e.Ledger.FreeCash(); got.Cmp(decimal.NewFromFloat(9601.6)) != 0 {
		t.Fatalf("free=%s want=9601.6", got)
	}
	if kinds := eventKinds(repo); kinds[models.RiskEventLegClosed] != 1 {
		t.Fatalf("events=%v want one leg_closed", kinds)
	}
	// Snapshot marks the remaining position: 1.3% on the full 600.
	if got := repo.snapshots[0].TotalBalance; got.Cmp(decimal.NewFromFloat(9609.4)) != 0 {
		t.Fatalf("total=%s want=9609.4", got)
	}
}

func TestRunOncePanicSkipsEntryButStillExits(t *testing.T) {
	now := time.Now().UTC()
	repo := &stubRepo{
		trades:      []models.Trade{mkOpenTrade(1, 1, now.Add(-3 * time.Hour))},
		nextTradeID: 1,
		marks:       map[uint64]decimal.Decimal{1: decimal.NewFromFloat(101.3)},
	}
	seedBullishAsset(repo, 1)
	// Funding blowout: the regime turns panic while the signal stays long.
	repo.markets[1].FundingRate = fptr(0.15)
	repo.points = map[uint64][]models.PricePoint{}
	for i := 0; i < 6; i++ {
		px := decimal.NewFromInt(int64(100 + i))
		repo.points[1] = append(repo.points[1], models.PricePoint{
			AssetID: 1,
			Day:     now.AddDate(0, 0, i-6),
			Close:   px,
			High:    px.Add(decimal.NewFromFloat(0.5)),
			Low:     px.Sub(decimal.NewFromFloat(0.5)),
			Volume:  decimal.NewFromInt(1000),
		})
	}
	e := testEngine(t, repo)
	e.Ledger.Restore(decimal.NewFromInt(9400))

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.LegsClosed != 1 {
		t.Fatalf("legs_closed=%d want=1 (exits run in panic)", report.LegsClosed)
	}
	if report.PanicSkips != 1 || report.TradesOpened != 0 {
		t.Fatalf("report=%+v want one panic skip and no entry", report)
	}
	if len(repo.trades) != 1 {
		t.Fatalf("trades=%d want=1 (no new entry)", len(repo.trades))
	}
	kinds := eventKinds(repo)
	if kinds[models.RiskEventPanicSkip] != 1 || kinds[models.RiskEventLegClosed] != 1 {
		t.Fatalf("events=%v want panic_skip and leg_closed", kinds)
	}
	if len(repo.scores) != 1 {
		t.Fatalf("scores=%d want=1 (scored even in panic)", len(repo.scores))
	}
}

func TestRunOnceFrequencyGateRejects(t *testing.T) {
	repo := &stubRepo{}
	seedBullishAsset(repo, 1)
	e := testEngine(t, repo)
	e.State.RecordTrade(1, time.Now().UTC().Add(-30*time.Minute))

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.EntriesRejected != 1 || report.TradesOpened != 0 {
		t.Fatalf("report=%+v want one rejection", report)
	}
	if len(repo.trades) != 0 {
		t.Fatalf("trades=%d want=0", len(repo.trades))
	}
	var rejected *models.RiskEvent
	for i := range repo.events {
		if repo.events[i].Kind == models.RiskEventEntryRejected {
			rejected = &repo.events[i]
		}
	}
	if rejected == nil || rejected.Gate == nil || *rejected.Gate != risk.GateFrequency {
		t.Fatalf("event=%+v want entry_rejected by frequency", rejected)
	}
	// The score is still on record.
	if len(repo.scores) != 1 {
		t.Fatalf("scores=%d want=1", len(repo.scores))
	}
}

func TestRunOnceTradingSwitchStopsEntries(t *testing.T) {
	repo := &stubRepo{
		settings: map[string]*models.EngineSetting{
			service.FeatureTrading: {Key: service.FeatureTrading, Value: datatypes.JSON([]byte("false"))},
		},
	}
	seedBullishAsset(repo, 1)
	e := testEngine(t, repo)
	e.Flags = &service.SettingsService{Repo: repo}

	report, err := e.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.AssetsEvaluated != 0 || len(repo.scores) != 0 || len(repo.trades) != 0 {
		t.Fatalf("report=%+v scores=%d want entries fully skipped", report, len(repo.scores))
	}
	// The capital record still lands every cycle.
	if len(repo.snapshots) != 1 {
		t.Fatalf("snapshots=%d want=1", len(repo.snapshots))
	}
}

func TestBootstrapRestoresLedgerAndPeak(t *testing.T) {
	openedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	repo := &stubRepo{
		snapshots: []models.PortfolioSnapshot{
			{ID: 1, TotalBalance: decimal.NewFromInt(12000), FreeCash: decimal.NewFromInt(9900)},
			{ID: 2, TotalBalance: decimal.NewFromInt(11000), FreeCash: decimal.NewFromInt(9100)},
		},
		trades:      []models.Trade{mkOpenTrade(1, 1, openedAt)},
		nextTradeID: 1,
	}
	e := testEngine(t, repo)

	if err := e.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := e.Ledger.FreeCash(); got.Cmp(decimal.NewFromInt(9100)) != 0 {
		t.Fatalf("free=%s want=9100 (latest snapshot)", got)
	}
	if got := e.State.Peak(); got != 12000 {
		t.Fatalf("peak=%v want=12000 (all-time high)", got)
	}
	if at, ok := e.State.LastTradeAt(1); !ok || !at.Equal(openedAt) {
		t.Fatalf("last trade=%v ok=%v want=%v", at, ok, openedAt)
	}
}
