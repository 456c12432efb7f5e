package gormrepository

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// activeTradeCond selects trades with at least one open leg. The runner leg
// only counts when it was planned.
const activeTradeCond = "(status_1 = 0 OR status_2 = 0 OR (runner_target IS NOT NULL AND runner_status = 0))"

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Asset registry ---------------------------------------------------------

func (s *Store) UpsertAsset(ctx context.Context, item *models.Asset) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Symbol = strings.ToUpper(strings.TrimSpace(item.Symbol))
	if item.Symbol == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"coingecko_id",
			"binance_symbol",
			"enabled",
			"status",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetAssetByID(ctx context.Context, id uint64) (*models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if id == 0 {
		return nil, nil
	}
	var item models.Asset
	err := s.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetAssetBySymbol(ctx context.Context, symbol string) (*models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, nil
	}
	var item models.Asset
	err := s.db.WithContext(ctx).Model(&models.Asset{}).Where("symbol = ?", symbol).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListAssets(ctx context.Context, params repository.ListAssetsParams) ([]models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.assetFilter(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "symbol")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Asset
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAssets(ctx context.Context, params repository.ListAssetsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.assetFilter(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) assetFilter(ctx context.Context, params repository.ListAssetsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Asset{})
	if params.Enabled != nil {
		query = query.Where("enabled = ?", *params.Enabled)
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	if params.Symbol != nil && strings.TrimSpace(*params.Symbol) != "" {
		query = query.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(*params.Symbol)))
	}
	return query
}

func (s *Store) ListTradeableAssets(ctx context.Context) ([]models.Asset, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Asset
	if err := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("enabled = ?", true).
		Where("status = ?", models.AssetStatusActive).
		Order("symbol asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetAssetEnabled(ctx context.Context, symbol string, enabled bool) error {
	if s == nil || s.db == nil {
		return nil
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("symbol = ?", symbol).
		Updates(map[string]any{"enabled": enabled, "updated_at": time.Now().UTC()}).
		Error
}

func (s *Store) SetAssetStatus(ctx context.Context, id uint64, status string) error {
	if s == nil || s.db == nil {
		return nil
	}
	if id == 0 || strings.TrimSpace(status) == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": strings.TrimSpace(status), "updated_at": time.Now().UTC()}).
		Error
}

func (s *Store) TouchAssetData(ctx context.Context, id uint64, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	if id == 0 {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_data_at": at.UTC(), "updated_at": time.Now().UTC()}).
		Error
}

// --- Latest market state ----------------------------------------------------

func (s *Store) UpsertMarketSnapshot(ctx context.Context, item *models.MarketSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AssetID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price",
			"high_24h",
			"low_24h",
			"total_volume",
			"change_1d_pct",
			"change_7d_pct",
			"change_14d_pct",
			"avg_volume_7d",
			"funding_rate",
			"open_interest",
			"source",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetMarketSnapshot(ctx context.Context, assetID uint64) (*models.MarketSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if assetID == 0 {
		return nil, nil
	}
	var item models.MarketSnapshot
	err := s.db.WithContext(ctx).Model(&models.MarketSnapshot{}).Where("asset_id = ?", assetID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertIndicatorSnapshot(ctx context.Context, item *models.IndicatorSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AssetID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"rsi",
			"macd_daily",
			"signal_daily",
			"macd_hourly",
			"signal_hourly",
			"histogram",
			"histogram_norm",
			"ema_50",
			"ema_200",
			"sma_50",
			"sma_200",
			"pivot",
			"pivot_r1",
			"pivot_s1",
			"fibo_382",
			"fibo_618",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetIndicatorSnapshot(ctx context.Context, assetID uint64) (*models.IndicatorSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if assetID == 0 {
		return nil, nil
	}
	var item models.IndicatorSnapshot
	err := s.db.WithContext(ctx).Model(&models.IndicatorSnapshot{}).Where("asset_id = ?", assetID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertSentimentSnapshot(ctx context.Context, item *models.SentimentSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AssetID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score_12h",
			"count_12h",
			"score_24h",
			"count_24h",
			"source",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetSentimentSnapshot(ctx context.Context, assetID uint64) (*models.SentimentSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if assetID == 0 {
		return nil, nil
	}
	var item models.SentimentSnapshot
	err := s.db.WithContext(ctx).Model(&models.SentimentSnapshot{}).Where("asset_id = ?", assetID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertMarkPrice(ctx context.Context, item *models.MarkPrice) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AssetID == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"price",
			"source",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetMarkPrice(ctx context.Context, assetID uint64) (*models.MarkPrice, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if assetID == 0 {
		return nil, nil
	}
	var item models.MarkPrice
	err := s.db.WithContext(ctx).Model(&models.MarkPrice{}).Where("asset_id = ?", assetID).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMarkPricesByAssetIDs(ctx context.Context, assetIDs []uint64) ([]models.MarkPrice, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if len(assetIDs) == 0 {
		return []models.MarkPrice{}, nil
	}
	var items []models.MarkPrice
	if err := s.db.WithContext(ctx).
		Model(&models.MarkPrice{}).
		Where("asset_id IN ?", assetIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Daily bars -------------------------------------------------------------

func (s *Store) UpsertPricePoint(ctx context.Context, item *models.PricePoint) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.AssetID == 0 || item.Day.IsZero() {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"close",
			"high",
			"low",
			"volume",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListPricePointsSince(ctx context.Context, assetID uint64, since time.Time) ([]models.PricePoint, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if assetID == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.PricePoint{}).
		Where("asset_id = ?", assetID)
	if !since.IsZero() {
		query = query.Where("day >= ?", since.UTC())
	}
	var items []models.PricePoint
	if err := query.Order("day asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeletePricePointsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("day < ?", before.UTC()).
		Delete(&models.PricePoint{})
	return res.RowsAffected, res.Error
}

// --- Score audit ------------------------------------------------------------

func (s *Store) InsertScoreRecord(ctx context.Context, item *models.ScoreRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) ([]models.ScoreRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.scoreRecordFilter(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.ScoreRecord
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountScoreRecords(ctx context.Context, params repository.ListScoreRecordsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.scoreRecordFilter(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) scoreRecordFilter(ctx context.Context, params repository.ListScoreRecordsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.ScoreRecord{})
	if params.AssetID != nil && *params.AssetID != 0 {
		query = query.Where("asset_id = ?", *params.AssetID)
	}
	if params.CycleID != nil && strings.TrimSpace(*params.CycleID) != "" {
		query = query.Where("cycle_id = ?", strings.TrimSpace(*params.CycleID))
	}
	if params.Direction != nil {
		query = query.Where("direction = ?", *params.Direction)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("created_at <= ?", params.Until.UTC())
	}
	return query
}

func (s *Store) DeleteScoreRecordsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&models.ScoreRecord{})
	return res.RowsAffected, res.Error
}

// --- Trades -----------------------------------------------------------------

func (s *Store) InsertTrade(ctx context.Context, item *models.Trade) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTradeByID(ctx context.Context, id uint64) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if id == 0 {
		return nil, nil
	}
	var item models.Trade
	err := s.db.WithContext(ctx).Model(&models.Trade{}).Where("id = ?", id).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTrades(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.tradeFilter(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "opened_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.Trade
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountTrades(ctx context.Context, params repository.ListTradesParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.tradeFilter(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) tradeFilter(ctx context.Context, params repository.ListTradesParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if params.AssetID != nil && *params.AssetID != 0 {
		query = query.Where("asset_id = ?", *params.AssetID)
	}
	if params.CycleID != nil && strings.TrimSpace(*params.CycleID) != "" {
		query = query.Where("cycle_id = ?", strings.TrimSpace(*params.CycleID))
	}
	if params.Direction != nil {
		query = query.Where("direction = ?", *params.Direction)
	}
	if params.Active != nil {
		if *params.Active {
			query = query.Where(activeTradeCond)
		} else {
			query = query.Where("NOT " + activeTradeCond)
		}
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("opened_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("opened_at <= ?", params.Until.UTC())
	}
	return query
}

func (s *Store) ListActiveTrades(ctx context.Context) ([]models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Trade
	if err := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where(activeTradeCond).
		Order("opened_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CloseTradeLeg(ctx context.Context, tradeID uint64, leg repository.TradeLeg) error {
	if s == nil || s.db == nil {
		return nil
	}
	if tradeID == 0 {
		return nil
	}
	var column string
	switch leg {
	case repository.TradeLeg1:
		column = "status_1"
	case repository.TradeLeg2:
		column = "status_2"
	case repository.TradeLegRunner:
		column = "runner_status"
	default:
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Where("id = ?", tradeID).
		Updates(map[string]any{column: models.LegClosed, "updated_at": time.Now().UTC()}).
		Error
}

func (s *Store) LatestTradeOpenTimes(ctx context.Context) (map[uint64]time.Time, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []struct {
		AssetID  uint64
		OpenedAt time.Time
	}
	if err := s.db.WithContext(ctx).
		Table("trades").
		Select("asset_id, MAX(opened_at) AS opened_at").
		Group("asset_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[uint64]time.Time{}
	for _, r := range rows {
		out[r.AssetID] = r.OpenedAt
	}
	return out, nil
}

// --- Portfolio history ------------------------------------------------------

func (s *Store) InsertPortfolioSnapshot(ctx context.Context, item *models.PortfolioSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestPortfolioSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.PortfolioSnapshot
	err := s.db.WithContext(ctx).
		Model(&models.PortfolioSnapshot{}).
		Order("snapshot_at desc, id desc").
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPortfolioSnapshots(ctx context.Context, params repository.ListPortfolioSnapshotsParams) ([]models.PortfolioSnapshot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.PortfolioSnapshot{})
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("snapshot_at >= ?", params.Since.UTC())
	}
	if params.Until != nil && !params.Until.IsZero() {
		query = query.Where("snapshot_at <= ?", params.Until.UTC())
	}
	direction := "desc"
	if params.Asc != nil && *params.Asc {
		direction = "asc"
	}
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.PortfolioSnapshot
	if err := query.Order("snapshot_at " + direction).Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MaxTotalBalance(ctx context.Context) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var out float64
	err := s.db.WithContext(ctx).
		Table("portfolio_snapshots").
		Select("COALESCE(MAX(total_balance),0)").
		Scan(&out).Error
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(out), nil
}

func (s *Store) DeletePortfolioSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("snapshot_at < ?", before.UTC()).
		Delete(&models.PortfolioSnapshot{})
	return res.RowsAffected, res.Error
}

// --- Risk audit -------------------------------------------------------------

func (s *Store) InsertRiskEvent(ctx context.Context, item *models.RiskEvent) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) ([]models.RiskEvent, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.riskEventFilter(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.RiskEvent
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountRiskEvents(ctx context.Context, params repository.ListRiskEventsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.riskEventFilter(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) riskEventFilter(ctx context.Context, params repository.ListRiskEventsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.RiskEvent{})
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Gate != nil && strings.TrimSpace(*params.Gate) != "" {
		query = query.Where("gate = ?", strings.TrimSpace(*params.Gate))
	}
	if params.AssetID != nil && *params.AssetID != 0 {
		query = query.Where("asset_id = ?", *params.AssetID)
	}
	if params.CycleID != nil && strings.TrimSpace(*params.CycleID) != "" {
		query = query.Where("cycle_id = ?", strings.TrimSpace(*params.CycleID))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", params.Since.UTC())
	}
	return query
}

func (s *Store) CountRiskEventsByKind(ctx context.Context, since *time.Time) (map[string]int64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("risk_events").
		Select("kind, COUNT(*) AS total").
		Group("kind")
	if since != nil && !since.IsZero() {
		query = query.Where("created_at >= ?", since.UTC())
	}
	var rows []struct {
		Kind  string
		Total int64
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, r := range rows {
		out[r.Kind] = r.Total
	}
	return out, nil
}

func (s *Store) DeleteRiskEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before.UTC()).
		Delete(&models.RiskEvent{})
	return res.RowsAffected, res.Error
}

// --- Runtime settings -------------------------------------------------------

func (s *Store) UpsertEngineSetting(ctx context.Context, item *models.EngineSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	item.Key = strings.TrimSpace(item.Key)
	if item.Key == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"description",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetEngineSettingByKey(ctx context.Context, key string) (*models.EngineSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.EngineSetting
	err := s.db.WithContext(ctx).Model(&models.EngineSetting{}).Where("key = ?", key).First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListEngineSettings(ctx context.Context, params repository.ListEngineSettingsParams) ([]models.EngineSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.EngineSetting{})
	if params.Prefix != nil && strings.TrimSpace(*params.Prefix) != "" {
		pattern := strings.TrimSpace(*params.Prefix) + "%"
		query = query.Where("key LIKE ?", pattern)
	}
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.EngineSetting
	if err := query.Order("key asc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Collector registry -----------------------------------------------------

func (s *Store) UpsertDataSource(ctx context.Context, item *models.DataSource) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source_type",
			"endpoint",
			"poll_interval",
			"enabled",
			"last_poll_at",
			"last_error",
			"health_status",
			"config",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) ListDataSources(ctx context.Context) ([]models.DataSource, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.DataSource
	if err := s.db.WithContext(ctx).
		Model(&models.DataSource{}).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Analytics --------------------------------------------------------------

func (s *Store) ScoreSummary(ctx context.Context, since *time.Time) ([]repository.AssetScoreSummaryRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Table("score_records").
		Select(`
			asset_id,
			COUNT(*) AS samples,
			COALESCE(AVG(technical_score),0) AS avg_technical,
			COALESCE(AVG(combined_score),0) AS avg_combined,
			COALESCE(SUM(CASE WHEN direction = 1 THEN 1 ELSE 0 END),0) AS long_count,
			COALESCE(SUM(CASE WHEN direction = -1 THEN 1 ELSE 0 END),0) AS short_count
		`).
		Group("asset_id")
	if since != nil && !since.IsZero() {
		query = query.Where("created_at >= ?", since.UTC())
	}
	var rows []repository.AssetScoreSummaryRow
	if err := query.Order("asset_id asc").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) TradeSummary(ctx context.Context) (repository.TradeSummaryResult, error) {
	if s == nil || s.db == nil {
		return repository.TradeSummaryResult{}, nil
	}
	var row repository.TradeSummaryResult
	err := s.db.WithContext(ctx).
		Table("trades").
		Select(`
			COUNT(*) AS total_trades,
			COALESCE(SUM(CASE WHEN ` + activeTradeCond + ` THEN 1 ELSE 0 END),0) AS active_trades,
			COALESCE(SUM(CASE WHEN direction = 1 THEN 1 ELSE 0 END),0) AS long_count,
			COALESCE(SUM(CASE WHEN direction = -1 THEN 1 ELSE 0 END),0) AS short_count
		`).
		Scan(&row).Error
	if err != nil {
		return repository.TradeSummaryResult{}, err
	}
	return row, nil
}

// --- Helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
