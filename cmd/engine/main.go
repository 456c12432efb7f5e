package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"cryptobot/internal/client/binance"
	"cryptobot/internal/client/coingecko"
	"cryptobot/internal/collector"
	"cryptobot/internal/config"
	cronrunner "cryptobot/internal/cron"
	"cryptobot/internal/db"
	"cryptobot/internal/engine"
	"cryptobot/internal/execution"
	"cryptobot/internal/handler"
	"cryptobot/internal/logger"
	"cryptobot/internal/models"
	"cryptobot/internal/portfolio"
	gormrepository "cryptobot/internal/repository/gorm"
	"cryptobot/internal/risk"
	"cryptobot/internal/screener"
	"cryptobot/internal/service"

	_ "cryptobot/docs"
)

func main() {
	cfgPath := os.Getenv("CB_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("CB_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	seedAssets(context.Background(), store, cfg.Engine.Assets, logger)

	settingsSvc := &service.SettingsService{Repo: store}
	if err := settingsSvc.EnsureDefaultSwitches(context.Background()); err != nil {
		logger.Warn("init default feature switches failed", zap.Error(err))
	}
	paramsSvc := &service.ParamsService{
		Repo:     store,
		Defaults: service.DefaultTradingParams(cfg),
	}

	state := risk.NewState(cfg.Engine.InitialCapital)
	eng := &engine.Engine{
		Repo:     store,
		Logger:   logger,
		Config:   cfg.Engine,
		Defaults: service.DefaultTradingParams(cfg),
		Gate:     risk.NewGate(cfg.Risk, cfg.Engine.InitialCapital, state, logger),
		State:    state,
		Ledger:   portfolio.NewLedger(cfg.Engine.InitialCapital),
		Exits:    &execution.ExitEngine{Logger: logger},
		Fees:     execution.NewFeeModel(cfg.Fees),
		Flags:    settingsSvc,
		Params:   paramsSvc,
	}
	if err := eng.Bootstrap(context.Background()); err != nil {
		logger.Fatal("engine bootstrap failed", zap.Error(err))
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(handler.TokenAuthMiddleware(cfg.Server.APIToken))
	router.Use(handler.WriteAuditMiddleware(logger))

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Repo: store}
	healthHandler.Register(router)
	assetHandler := &handler.AssetHandler{Repo: store}
	assetHandler.Register(router)
	scoreHandler := &handler.ScoreHandler{Repo: store}
	scoreHandler.Register(router)
	tradeHandler := &handler.TradeHandler{Repo: store}
	tradeHandler.Register(router)
	portfolioHandler := &handler.PortfolioHandler{Repo: store}
	portfolioHandler.Register(router)
	riskHandler := &handler.RiskHandler{Repo: store, State: state}
	riskHandler.Register(router)
	engineHandler := &handler.EngineHandler{Engine: eng}
	engineHandler.Register(router)
	ingestHandler := &handler.IngestHandler{Repo: store}
	ingestHandler.Register(router)
	analyticsHandler := &handler.AnalyticsHandler{Repo: store}
	analyticsHandler.Register(router)
	settingsHandler := &handler.SettingsHandler{Repo: store, Settings: settingsSvc, Params: paramsSvc}
	settingsHandler.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scr := &screener.Screener{
		Repo:           store,
		Logger:         logger,
		MaxSnapshotAge: cfg.Screener.MaxSnapshotAge,
		MinVolume:      cfg.Screener.MinVolume,
	}

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)

		_, err = cronRunner.Add(cfg.Cron.RiskReset, func(ctx context.Context) {
			now := time.Now().UTC()
			loss, _ := state.DailyLoss(now.Add(-time.Minute))
			state.ResetDaily(now)
			details, _ := json.Marshal(map[string]any{"previous_daily_loss": loss})
			if err := store.InsertRiskEvent(ctx, &models.RiskEvent{
				Kind:      models.RiskEventDailyReset,
				Details:   datatypes.JSON(details),
				CreatedAt: now,
			}); err != nil {
				logger.Warn("daily reset event insert failed", zap.Error(err))
			}
			logger.Info("daily loss counter reset", zap.Float64("previous_daily_loss", loss))
		})
		if err != nil {
			logger.Warn("cron register risk reset failed", zap.Error(err))
		}

		if cfg.Screener.Enabled {
			_, err = cronRunner.Add(cfg.Cron.Screener, func(ctx context.Context) {
				if !settingsSvc.IsEnabled(ctx, service.FeatureScreener, true) {
					return
				}
				result, err := scr.Sweep(ctx)
				if err != nil {
					logger.Warn("screener sweep failed", zap.Error(err))
					return
				}
				if result.Changed > 0 {
					logger.Info("screener sweep ok",
						zap.Int("checked", result.Checked),
						zap.Int("active", result.Active),
						zap.Int("stale", result.Stale),
						zap.Int("changed", result.Changed),
					)
				}
			})
			if err != nil {
				logger.Warn("cron register screener failed", zap.Error(err))
			}
		}

		_, err = cronRunner.Add(cfg.Cron.Retention, func(ctx context.Context) {
			if !settingsSvc.IsEnabled(ctx, service.FeatureRetention, true) {
				return
			}
			runRetention(ctx, store, cfg.Retention, logger)
		})
		if err != nil {
			logger.Warn("cron register retention failed", zap.Error(err))
		}

		cronRunner.Start()
		defer cronRunner.Stop()
	}

	runner := collector.NewRunner(store, logger)
	if cfg.Collectors.CoinGecko.Enabled && settingsSvc.IsEnabled(ctx, service.FeatureCollectorCoinGecko, true) {
		cgHTTP := &http.Client{Timeout: cfg.Collectors.CoinGecko.Timeout}
		runner.Register(&collector.CoinGeckoMarkets{
			Client:       coingecko.NewClient(cgHTTP, cfg.Collectors.CoinGecko.BaseURL),
			Repo:         store,
			Logger:       logger,
			Endpoint:     cfg.Collectors.CoinGecko.BaseURL,
			VsCurrency:   cfg.Collectors.CoinGecko.VsCurrency,
			PollInterval: cfg.Collectors.CoinGecko.PollInterval,
			BackfillDays: cfg.Collectors.CoinGecko.BackfillDays,
		})
	}
	if cfg.Collectors.BinanceFunding.Enabled && settingsSvc.IsEnabled(ctx, service.FeatureCollectorBinanceFunding, true) {
		bnHTTP := &http.Client{Timeout: cfg.Collectors.BinanceFunding.Timeout}
		runner.Register(&collector.BinanceFunding{
			Client:       binance.NewClient(bnHTTP, cfg.Collectors.BinanceFunding.BaseURL),
			Repo:         store,
			Logger:       logger,
			Endpoint:     cfg.Collectors.BinanceFunding.BaseURL,
			PollInterval: cfg.Collectors.BinanceFunding.PollInterval,
		})
	}
	if cfg.Collectors.BinanceMark.Enabled && settingsSvc.IsEnabled(ctx, service.FeatureCollectorBinanceMark, true) {
		runner.Register(&collector.BinanceMark{
			Repo:   store,
			Logger: logger,
			URL:    cfg.Collectors.BinanceMark.URL,
		})
	}
	go func() {
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("collector runner stopped", zap.Error(err))
		}
	}()

	go func() {
		if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("decision engine stopped", zap.Error(err))
		}
	}()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// seedAssets creates registry rows for configured assets that do not exist
// yet. Existing rows are left alone so enable flags and screener status set
// at runtime survive restarts.
func seedAssets(ctx context.Context, store *gormrepository.Store, assets []config.AssetConfig, logger *zap.Logger) {
	created := 0
	for _, a := range assets {
		symbol := strings.ToUpper(strings.TrimSpace(a.Symbol))
		if symbol == "" {
			continue
		}
		existing, err := store.GetAssetBySymbol(ctx, symbol)
		if err != nil {
			logger.Warn("asset seed lookup failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if existing != nil {
			continue
		}
		item := &models.Asset{
			Symbol:        symbol,
			CoingeckoID:   strings.TrimSpace(a.CoingeckoID),
			BinanceSymbol: strings.ToUpper(strings.TrimSpace(a.BinanceSymbol)),
			Enabled:       a.Enabled,
			Status:        models.AssetStatusActive,
		}
		if err := store.UpsertAsset(ctx, item); err != nil {
			logger.Warn("asset seed failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		created++
	}
	if created > 0 {
		logger.Info("seeded assets", zap.Int("created", created))
	}
}

func runRetention(ctx context.Context, store *gormrepository.Store, cfg config.RetentionConfig, logger *zap.Logger) {
	now := time.Now().UTC()
	prune := func(name string, days int, del func(context.Context, time.Time) (int64, error)) {
		if days <= 0 {
			return
		}
		n, err := del(ctx, now.AddDate(0, 0, -days))
		if err != nil {
			logger.Warn("retention prune failed", zap.String("table", name), zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("retention pruned", zap.String("table", name), zap.Int64("rows", n))
		}
	}
	prune("score_records", cfg.ScoreDays, store.DeleteScoreRecordsBefore)
	prune("risk_events", cfg.RiskEventDays, store.DeleteRiskEventsBefore)
	prune("price_points", cfg.PricePointDays, store.DeletePricePointsBefore)
	prune("portfolio_snapshots", cfg.PortfolioDays, store.DeletePortfolioSnapshotsBefore)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
