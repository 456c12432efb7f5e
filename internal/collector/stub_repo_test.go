package collector

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Only the collector write paths carry state.
type stubRepo struct {
	assets  []models.Asset
	markets map[uint64]*models.MarketSnapshot
	marks   map[uint64]*models.MarkPrice
	points  map[uint64][]models.PricePoint
	touched map[uint64]time.Time
	sources map[string]*models.DataSource
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
	if params.Enabled == nil {
		return s.assets, nil
	}
	var out []models.Asset
	for _, a := range s.assets {
		if a.Enabled == *params.Enabled {
			out = append(out, a)
		}
	}
	return out, nil
}
func (s *stubRepo) CountAssets(ctx context.Context, params repository.ListAssetsParams) (int64, error) {
	return int64(len(s.assets)), nil
}
func (s *stubRepo) ListTradeableAssets(ctx context.Context) ([]models.Asset, error) {
	return nil, nil
}
func (s *stubRepo) SetAssetEnabled(ctx context.Context, symbol string, enabled bool) error {
	return nil
}
func (s *stubRepo) SetAssetStatus(ctx context.Context, id uint64, status string) error { return nil }
func (s *stubRepo) TouchAssetData(ctx context.Context, id uint64, at time.Time) error {
	if s.touched == nil {
		s.touched = map[uint64]time.Time{}
	}
	s.touched[id] = at
	return nil
}

func (s *stubRepo) UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error {
	if s.markets == nil {
		s.markets = map[uint64]*models.MarketSnapshot{}
	}
	clone := *item
	s.markets[item.AssetID] = &clone
	return nil
}
func (s *stubRepo) GetMarketSnapshot(ctx context.Context, assetID uint64) (*models.MarketSnapshot, error) {
	snap, ok := s.markets[assetID]
	if !ok {
		return nil, nil
	}
	clone := *snap
	return &clone, nil
}
func (s *stubRepo) UpsertIndicatorSnapshot(ctx context.Context, item *models.IndicatorSnapshot) error {
	return nil
}
func (s *stubRepo) GetIndicatorSnapshot(ctx context.Context, assetID uint64) (*models.IndicatorSnapshot, error) {
	return nil, nil
}
func (s *stubRepo) UpsertSentimentSnapshot(ctx context.Context, item *models.SentimentSnapshot) error {
	return nil
}
func (s *stubRepo) GetSentimentSnapshot(ctx context.Context, assetID uint64) (*models.SentimentSnapshot, error) {
	return nil, nil
}
func (s *stubRepo) UpsertMarkPrice(ctx context.Context, item *models.MarkPrice) error {
	if s.marks == nil {
		s.marks = map[uint64]*models.MarkPrice{}
	}
	clone := *item
	s.marks[item.AssetID] = &clone
	return nil
}
func (s *stubRepo) GetMarkPrice(ctx context.Context, assetID uint64) (*models.MarkPrice, error) {
	mark, ok := s.marks[assetID]
	if !ok {
		return nil, nil
	}
	clone := *mark
	return &clone, nil
}
func (s *stubRepo) ListMarkPricesByAssetIDs(ctx context.Context, assetIDs []uint64) ([]models.MarkPrice, error) {
	return nil, nil
}

func (s *stubRepo) UpsertPricePoint(ctx context.Context, item *models.PricePoint) error {
	if s.points == nil {
		s.points = map[uint64][]models.PricePoint{}
	}
	for i, p := range s.points[item.AssetID] {
		if p.Day.Equal(item.Day) {
			s.points[item.AssetID][i] = *item
			return nil
		}
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

func (s *stubRepo) InsertScoreRecord(ctx context.Context, item *models.ScoreRecord) error { return nil }
func (s *stubRepo) ListScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) ([]models.ScoreRecord, error) {
	return nil, nil
}
func (s *stubRepo) CountScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) DeleteScoreRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertTrade(ctx context.Context, item *models.Trade) error { return nil }
func (s *stubRepo) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	return nil, nil
}
func (s *stubRepo) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	return nil, nil
}
func (s *stubRepo) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ListActiveTrades(ctx context.Context) ([]models.Trade, error) { return nil, nil }
func (s *stubRepo) CloseTradeLeg(ctx context.Context, tradeID uint64, leg repository.TradeLeg) error {
	return nil
}
func (s *stubRepo) LatestTradeOpenTimes(ctx context.Context) (map[uint64]time.Time, error) {
	return nil, nil
}

func (s *stubRepo) InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error {
	return nil
}
func (s *stubRepo) LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	return nil, nil
}
func (s *stubRepo) ListPortfolioSnapshots(ctx context.Context, params repository.ListPortfolioSnapshotsParams) ([]models.PortfolioSnapshot, error) {
	return nil, nil
}
func (s *stubRepo) MaxTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *stubRepo) DeletePortfolioSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) InsertRiskEvent(ctx context.Context, item *models.RiskEvent) error { return nil }
func (s *stubRepo) ListRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) ([]models.RiskEvent, error) {
	return nil, nil
}
func (s *stubRepo) CountRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) (int64, error) {
	return 0, nil
}
func (s *stubRepo) CountRiskEventsByKind(ctx context.Context, since *time.Time) (map[string]int64, error) {
	return nil, nil
}
func (s *stubRepo) DeleteRiskEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) UpsertEngineSetting(ctx context.Context, item *models.EngineSetting) error {
	return nil
}
func (s *stubRepo) GetEngineSettingByKey(ctx context.Context, key string) (*models.EngineSetting, error) {
	return nil, nil
}
func (s *stubRepo) ListEngineSettings(ctx context.Context, params repository.ListEngineSettingsParams) ([]models.EngineSetting, error) {
	return nil, nil
}

func (s *stubRepo) UpsertDataSource(ctx context.Context, item *models.DataSource) error {
	if s.sources == nil {
		s.sources = map[string]*models.DataSource{}
	}
	clone := *item
	s.sources[item.Name] = &clone
	return nil
}
func (s *stubRepo) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	var out []models.DataSource
	for _, item := range s.sources {
		out = append(out, *item)
	}
	return out, nil
}

func (s *stubRepo) ScoreSummary(ctx context.Context, since *time.Time) ([]repository.AssetScoreSummaryRow, error) {
	return nil, nil
}
func (s *stubRepo) TradeSummary(ctx context.Context) (repository.TradeSummaryResult, error) {
	return repository.TradeSummaryResult{}, nil
}
