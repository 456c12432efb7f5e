package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but only the cycle's read/write paths
// carry state.
type stubRepo struct {
	assets     []models.Asset
	markets    map[uint64]*models.MarketSnapshot
	indicators map[uint64]*models.IndicatorSnapshot
	sentiments map[uint64]*models.SentimentSnapshot
	marks      map[uint64]decimal.Decimal
	points     map[uint64][]models.PricePoint

	trades    []models.Trade
	scores    []models.ScoreRecord
	events    []models.RiskEvent
	snapshots []models.PortfolioSnapshot
	settings  map[string]*models.EngineSetting

	nextTradeID uint64
}

func (s *stubRepo) UpsertAsset(ctx context.Context, item *models.Asset) error { return nil }
func (s *stubRepo) GetAssetByID(ctx context.Context, id uint64) (*models.Asset, error) {
	for _, a := range s.assets {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}
func (s *stubRepo) GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	return nil, nil
}
func (s *stubRepo) ListAssets(ctx context.Context, params repository.ListAssetsParams) ([]models.Asset, error) {
	return s.assets, nil
}
func (s *stubRepo) CountAssets(ctx context.Context, params repository.ListAssetsParams) (int64, error) {
	return int64(len(s.assets)), nil
}
func (s *stubRepo) ListTradeableAssets(ctx context.Context) ([]models.Asset, error) {
	var out []models.Asset
	for _, a := range s.assets {
		if a.Tradeable() {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubRepo) SetAssetEnabled(ctx context.Context, symbol string, enabled bool) error {
	return nil
}
func (s *stubRepo) SetAssetStatus(ctx context.Context, id uint64, status string) error { return nil }
func (s *stubRepo) TouchAssetData(ctx context.Context, id uint64, at time.Time) error  { return nil }

func (s *stubRepo) UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error {
	if s.markets == nil {
		s.markets = map[uint64]*models.MarketSnapshot{}
	}
	s.markets[item.AssetID] = item
	return nil
}
func (s *stubRepo) GetMarketSnapshot(ctx context.Context, assetID uint64) (*models.MarketSnapshot, error) {
	return s.markets[assetID], nil
}
func (s *stubRepo) UpsertIndicatorSnapshot(ctx context.Context, item *models.IndicatorSnapshot) error {
	if s.indicators == nil {
		s.indicators = map[uint64]*models.IndicatorSnapshot{}
	}
	s.indicators[item.AssetID] = item
	return nil
}
func (s *stubRepo) GetIndicatorSnapshot(ctx context.Context, assetID uint64) (*models.IndicatorSnapshot, error) {
	return s.indicators[assetID], nil
}
func (s *stubRepo) UpsertSentimentSnapshot(ctx context.Context, item *models.SentimentSnapshot) error {
	if s.sentiments == nil {
		s.sentiments = map[uint64]*models.SentimentSnapshot{}
	}
	s.sentiments[item.AssetID] = item
	return nil
}
func (s *stubRepo) GetSentimentSnapshot(ctx context.Context, assetID uint64) (*models.SentimentSnapshot, error) {
	return s.sentiments[assetID], nil
}
func (s *stubRepo) UpsertMarkPrice(ctx context.Context, item *models.MarkPrice) error {
	if s.marks == nil {
		s.marks = map[uint64]decimal.Decimal{}
	}
	s.marks[item.AssetID] = item.Price
	return nil
}
func (s *stubRepo) GetMarkPrice(ctx context.Context, assetID uint64) (*models.MarkPrice, error) {
	price, ok := s.marks[assetID]
	if !ok {
		return nil, nil
	}
	return &models.MarkPrice{AssetID: assetID, Price: price}, nil
}
func (s *stubRepo) ListMarkPricesByAssetIDs(ctx context.Context, assetIDs []uint64) ([]models.MarkPrice, error) {
	var out []models.MarkPrice
	for _, id := range assetIDs {
		if price, ok := s.marks[id]; ok {
			out = append(out, models.MarkPrice{AssetID: id, Price: price})
		}
	}
	return out, nil
}

func (s *stubRepo) UpsertPricePoint(ctx context.Context, item *models.PricePoint) error {
	if s.points == nil {
		s.points = map[uint64][]models.PricePoint{}
	}
	s.points[item.AssetID] = append(s.points[item.AssetID], *item)
	return nil
}
func (s *stubRepo) ListPricePointsSince(ctx context.Context, assetID uint64, since time.Time) ([]models.PricePoint, error) {
	var out []models.PricePoint
	for _, p := range s.points[assetID] {
		if p.Day.Before(since) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
func (s *stubRepo) DeletePricePointsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertScoreRecord(ctx context.Context, item *models.ScoreRecord) error {
	item.ID = uint64(len(s.scores) + 1)
	s.scores = append(s.scores, *item)
	return nil
}
func (s *stubRepo) ListScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) ([]models.ScoreRecord, error) {
	return s.scores, nil
}
func (s *stubRepo) CountScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) (int64, error) {
	return int64(len(s.scores)), nil
}
func (s *stubRepo) DeleteScoreRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertTrade(ctx context.Context, item *models.Trade) error {
	s.nextTradeID++
	item.ID = s.nextTradeID
	s.trades = append(s.trades, *item)
	return nil
}
func (s *stubRepo) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	for _, t := range s.trades {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, nil
}
func (s *stubRepo) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	return s.trades, nil
}
func (s *stubRepo) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	return int64(len(s.trades)), nil
}
func (s *stubRepo) ListActiveTrades(ctx context.Context) ([]models.Trade, error) {
	var out []models.Trade
	for _, t := range s.trades {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *stubRepo) CloseTradeLeg(ctx context.Context, tradeID uint64, leg repository.TradeLeg) error {
	for i := range s.trades {
		if s.trades[i].ID != tradeID {
			continue
		}
		switch leg {
		case repository.TradeLeg1:
			s.trades[i].Status1 = models.LegClosed
		case repository.TradeLeg2:
			s.trades[i].Status2 = models.LegClosed
		case repository.TradeLegRunner:
			s.trades[i].RunnerStatus = models.LegClosed
		}
		return nil
	}
	return nil
}
func (s *stubRepo) LatestTradeOpenTimes(ctx context.Context) (map[uint64]time.Time, error) {
	out := map[uint64]time.Time{}
	for _, t := range s.trades {
		if t.OpenedAt.After(out[t.AssetID]) {
			out[t.AssetID] = t.OpenedAt
		}
	}
	return out, nil
}

func (s *stubRepo) InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error {
	item.ID = uint64(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, *item)
	return nil
}
func (s *stubRepo) LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if len(s.snapshots) == 0 {
		return nil, nil
	}
	last := s.snapshots[len(s.snapshots)-1]
	return &last, nil
}
func (s *stubRepo) ListPortfolioSnapshots(ctx context.Context, params repository.ListPortfolioSnapshotsParams) ([]models.PortfolioSnapshot, error) {
	return s.snapshots, nil
}
func (s *stubRepo) MaxTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	top := decimal.Zero
	for _, snap := range s.snapshots {
		if snap.TotalBalance.GreaterThan(top) {
			top = snap.TotalBalance
		}
	}
	return top, nil
}
func (s *stubRepo) DeletePortfolioSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertRiskEvent(ctx context.Context, item *models.RiskEvent) error {
	item.ID = uint64(len(s.events) + 1)
	s.events = append(s.events, *item)
	return nil
}
func (s *stubRepo) ListRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) ([]models.RiskEvent, error) {
	return s.events, nil
}
func (s *stubRepo) CountRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) (int64, error) {
	return int64(len(s.events)), nil
}
func (s *stubRepo) CountRiskEventsByKind(ctx context.Context, since *time.Time) (map[string]int64, error) {
	out := map[string]int64{}
	for _, e := range s.events {
		out[e.Kind]++
	}
	return out, nil
}
func (s *stubRepo) DeleteRiskEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpsertEngineSetting(ctx context.Context, item *models.EngineSetting) error {
	if s.settings == nil {
		s.settings = map[string]*models.EngineSetting{}
	}
	s.settings[item.Key] = item
	return nil
}
func (s *stubRepo) GetEngineSettingByKey(ctx context.Context, key string) (*models.EngineSetting, error) {
	return s.settings[key], nil
}
func (s *stubRepo) ListEngineSettings(ctx context.Context, params repository.ListEngineSettingsParams) ([]models.EngineSetting, error) {
	var out []models.EngineSetting
	for _, item := range s.settings {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubRepo) UpsertDataSource(ctx context.Context, item *models.DataSource) error { return nil }
func (s *stubRepo) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	return nil, nil
}

func (s *stubRepo) ScoreSummary(ctx context.Context, since *time.Time) ([]repository.AssetScoreSummaryRow, error) {
	return nil, nil
}
func (s *stubRepo) TradeSummary(ctx context.Context) (repository.TradeSummaryResult, error) {
	return repository.TradeSummaryResult{}, nil
}
