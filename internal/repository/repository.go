package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"cryptobot/internal/models"
)

// TradeLeg identifies one exit leg of the three-leg ladder.
type TradeLeg int

const (
	TradeLeg1 TradeLeg = iota + 1
	TradeLeg2
	TradeLegRunner
)

// Repository is the persistence surface shared by the collectors, the decision
// cycle and the HTTP layer.
type Repository interface {
	// Asset registry
	UpsertAsset(ctx context.Context, item *models.Asset) error
	GetAssetByID(ctx context.Context, id uint64) (*models.Asset, error)
	GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error)
	ListAssets(ctx context.Context, params ListAssetsParams) ([]models.Asset, error)
	CountAssets(ctx context.Context, params ListAssetsParams) (int64, error)
	ListTradeableAssets(ctx context.Context) ([]models.Asset, error)
	SetAssetEnabled(ctx context.Context, symbol string, enabled bool) error
	SetAssetStatus(ctx context.Context, id uint64, status string) error
	TouchAssetData(ctx context.Context, id uint64, at time.Time) error

	// Latest market state (one row per asset, replaced by collectors/ingest)
	UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error
	GetMarketSnapshot(ctx context.Context, assetID uint64) (*models.MarketSnapshot, error)
	UpsertIndicatorSnapshot(ctx context.Context, item *models.IndicatorSnapshot) error
	GetIndicatorSnapshot(ctx context.Context, assetID uint64) (*models.IndicatorSnapshot, error)
	UpsertSentimentSnapshot(ctx context.Context, item *models.SentimentSnapshot) error
	GetSentimentSnapshot(ctx context.Context, assetID uint64) (*models.SentimentSnapshot, error)
	UpsertMarkPrice(ctx context.Context, item *models.MarkPrice) error
	GetMarkPrice(ctx context.Context, assetID uint64) (*models.MarkPrice, error)
	ListMarkPricesByAssetIDs(ctx context.Context, assetIDs []uint64) ([]models.MarkPrice, error)

	// Daily bars (history for regime and correlation)
	UpsertPricePoint(ctx context.Context, item *models.PricePoint) error
	ListPricePointsSince(ctx context.Context, assetID uint64, since time.Time) ([]models.PricePoint, error)
	DeletePricePointsBefore(ctx context.Context, before time.Time) (int64, error)

	// Score audit
	InsertScoreRecord(ctx context.Context, item *models.ScoreRecord) error
	ListScoreRecords(ctx context.Context, params ListScoreRecordsParams) ([]models.ScoreRecord, error)
	CountScoreRecords(ctx context.Context, params ListScoreRecordsParams) (int64, error)
	DeleteScoreRecordsBefore(ctx context.Context, before time.Time) (int64, error)

	// Trades
	InsertTrade(ctx context.Context, item *models.Trade) error
	GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error)
	ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error)
	CountTrades(ctx context.Context, params ListTradesParams) (int64, error)
	ListActiveTrades(ctx context.Context) ([]models.Trade, error)
	CloseTradeLeg(ctx context.Context, tradeID uint64, leg TradeLeg) error
	LatestTradeOpenTimes(ctx context.Context) (map[uint64]time.Time, error)

	// Portfolio history (append-only)
	InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error
	LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)
	ListPortfolioSnapshots(ctx context.Context, params ListPortfolioSnapshotsParams) ([]models.PortfolioSnapshot, error)
	MaxTotalBalance(ctx context.Context) (decimal.Decimal, error)
	DeletePortfolioSnapshotsBefore(ctx context.Context, before time.Time) (int64, error)

	// Risk audit
	InsertRiskEvent(ctx context.Context, item *models.RiskEvent) error
	ListRiskEvents(ctx context.Context, params ListRiskEventsParams) ([]models.RiskEvent, error)
	CountRiskEvents(ctx context.Context, params ListRiskEventsParams) (int64, error)
	CountRiskEventsByKind(ctx context.Context, since *time.Time) (map[string]int64, error)
	DeleteRiskEventsBefore(ctx context.Context, before time.Time) (int64, error)

	// Runtime settings
	UpsertEngineSetting(ctx context.Context, item *models.EngineSetting) error
	GetEngineSettingByKey(ctx context.Context, key string) (*models.EngineSetting, error)
	ListEngineSettings(ctx context.Context, params ListEngineSettingsParams) ([]models.EngineSetting, error)

	// Collector registry
	UpsertDataSource(ctx context.Context, item *models.DataSource) error
	ListDataSources(ctx context.Context) ([]models.DataSource, error)

	// Analytics
	ScoreSummary(ctx context.Context, since *time.Time) ([]AssetScoreSummaryRow, error)
	TradeSummary(ctx context.Context) (TradeSummaryResult, error)
}

type ListAssetsParams struct {
	Limit   int
	Offset  int
	Enabled *bool
	Status  *string
	Symbol  *string
	OrderBy string
	Asc     *bool
}

type ListScoreRecordsParams struct {
	Limit     int
	Offset    int
	AssetID   *uint64
	CycleID   *string
	Direction *models.Direction
	Since     *time.Time
	Until     *time.Time
	OrderBy   string
	Asc       *bool
}

type ListTradesParams struct {
	Limit     int
	Offset    int
	AssetID   *uint64
	CycleID   *string
	Direction *models.Direction
	Active    *bool
	Since     *time.Time
	Until     *time.Time
	OrderBy   string
	Asc       *bool
}

type ListPortfolioSnapshotsParams struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
	Asc    *bool
}

type ListRiskEventsParams struct {
	Limit   int
	Offset  int
	Kind    *string
	Gate    *string
	AssetID *uint64
	CycleID *string
	Since   *time.Time
	OrderBy string
	Asc     *bool
}

type ListEngineSettingsParams struct {
	Limit  int
	Offset int
	Prefix *string
}

type AssetScoreSummaryRow struct {
	AssetID      uint64
	Samples      int64
	AvgTechnical float64
	AvgCombined  float64
	LongCount    int64
	ShortCount   int64
}

type TradeSummaryResult struct {
	TotalTrades  int64
	ActiveTrades int64
	LongCount    int64
	ShortCount   int64
}
