package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Engine    EngineConfig    `mapstructure:"engine"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Sentiment SentimentConfig `mapstructure:"sentiment"`
	Regime    RegimeConfig    `mapstructure:"regime"`
	Decision  DecisionConfig  `mapstructure:"decision"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Fees      FeesConfig      `mapstructure:"fees"`

	Collectors CollectorsConfig `mapstructure:"collectors"`
	Screener   ScreenerConfig   `mapstructure:"screener"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	APIToken string `mapstructure:"api_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	RiskReset string `mapstructure:"risk_reset"`
	Screener  string `mapstructure:"screener"`
	Retention string `mapstructure:"retention"`
}

// EngineConfig drives the decision cycle itself.
type EngineConfig struct {
	CycleInterval  time.Duration `mapstructure:"cycle_interval"`
	InitialCapital float64       `mapstructure:"initial_capital"`
	Assets         []AssetConfig `mapstructure:"assets"`
}

type AssetConfig struct {
	Symbol        string `mapstructure:"symbol"`
	CoingeckoID   string `mapstructure:"coingecko_id"`
	BinanceSymbol string `mapstructure:"binance_symbol"`
	Enabled       bool   `mapstructure:"enabled"`
}

// ScoringConfig holds the technical sub-score weights and band constants.
// Weights must sum to 1.0.
type ScoringConfig struct {
	WeightEMA        float64 `mapstructure:"weight_ema" json:"weight_ema"`
	WeightMACD       float64 `mapstructure:"weight_macd" json:"weight_macd"`
	WeightRSI        float64 `mapstructure:"weight_rsi" json:"weight_rsi"`
	WeightSMA        float64 `mapstructure:"weight_sma" json:"weight_sma"`
	WeightVolatility float64 `mapstructure:"weight_volatility" json:"weight_volatility"`
	WeightPivot      float64 `mapstructure:"weight_pivot" json:"weight_pivot"`
	WeightFibo       float64 `mapstructure:"weight_fibo" json:"weight_fibo"`

	RSIOversoldStrong   float64 `mapstructure:"rsi_oversold_strong" json:"rsi_oversold_strong"`
	RSIOversoldWeak     float64 `mapstructure:"rsi_oversold_weak" json:"rsi_oversold_weak"`
	RSIOverboughtWeak   float64 `mapstructure:"rsi_overbought_weak" json:"rsi_overbought_weak"`
	RSIOverboughtStrong float64 `mapstructure:"rsi_overbought_strong" json:"rsi_overbought_strong"`

	VolatilityLow  float64 `mapstructure:"volatility_low" json:"volatility_low"`
	VolatilityHigh float64 `mapstructure:"volatility_high" json:"volatility_high"`
}

type SentimentConfig struct {
	MinTweets         int     `mapstructure:"min_tweets" json:"min_tweets"`
	PositiveThreshold float64 `mapstructure:"positive_threshold" json:"positive_threshold"`
	NegativeThreshold float64 `mapstructure:"negative_threshold" json:"negative_threshold"`
	TrendBonus        float64 `mapstructure:"trend_bonus" json:"trend_bonus"`
}

type RegimeConfig struct {
	ATRPeriod        int     `mapstructure:"atr_period" json:"atr_period"`
	ATRPanicPct      float64 `mapstructure:"atr_panic_pct" json:"atr_panic_pct"`
	VolumePanicRatio float64 `mapstructure:"volume_panic_ratio" json:"volume_panic_ratio"`
	FundingPanicAbs  float64 `mapstructure:"funding_panic_abs" json:"funding_panic_abs"`
	TrendRSIUpper    float64 `mapstructure:"trend_rsi_upper" json:"trend_rsi_upper"`
	TrendRSILower    float64 `mapstructure:"trend_rsi_lower" json:"trend_rsi_lower"`
}

type DecisionConfig struct {
	TechnicalWeight float64 `mapstructure:"technical_weight" json:"technical_weight"`
	SentimentWeight float64 `mapstructure:"sentiment_weight" json:"sentiment_weight"`
	LongThreshold   float64 `mapstructure:"long_threshold" json:"long_threshold"`
	ShortThreshold  float64 `mapstructure:"short_threshold" json:"short_threshold"`

	TierMediumBand float64 `mapstructure:"tier_medium_band" json:"tier_medium_band"`
	TierHighBand   float64 `mapstructure:"tier_high_band" json:"tier_high_band"`
	TierLowRisk    float64 `mapstructure:"tier_low_risk" json:"tier_low_risk"`
	TierMediumRisk float64 `mapstructure:"tier_medium_risk" json:"tier_medium_risk"`
	TierHighRisk   float64 `mapstructure:"tier_high_risk" json:"tier_high_risk"`

	MinStopDistance     float64 `mapstructure:"min_stop_distance" json:"min_stop_distance"`
	MaxPositionFraction float64 `mapstructure:"max_position_fraction" json:"max_position_fraction"`
	BaseStopPct         float64 `mapstructure:"base_stop_pct" json:"base_stop_pct"`
	MinStopPct          float64 `mapstructure:"min_stop_pct" json:"min_stop_pct"`
}

type RiskConfig struct {
	MaxDailyLossPct float64 `mapstructure:"max_daily_loss_pct" json:"max_daily_loss_pct"`
	MaxDrawdownPct  float64 `mapstructure:"max_drawdown_pct" json:"max_drawdown_pct"`
	MaxCorrelation  float64 `mapstructure:"max_correlation" json:"max_correlation"`
	// MinTradeInterval marshals as nanoseconds in JSON overrides.
	MinTradeInterval time.Duration `mapstructure:"min_trade_interval" json:"min_trade_interval"`
	CorrelationDays  int           `mapstructure:"correlation_days" json:"correlation_days"`
}

type FeesConfig struct {
	Pct  float64 `mapstructure:"pct"`
	Flat float64 `mapstructure:"flat"`
}

type CollectorsConfig struct {
	CoinGecko      CoinGeckoConfig      `mapstructure:"coingecko"`
	BinanceMark    BinanceMarkConfig    `mapstructure:"binance_mark"`
	BinanceFunding BinanceFundingConfig `mapstructure:"binance_funding"`
}

type CoinGeckoConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	VsCurrency   string        `mapstructure:"vs_currency"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	BackfillDays int           `mapstructure:"backfill_days"`
}

type BinanceMarkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type BinanceFundingConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type ScreenerConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxSnapshotAge time.Duration `mapstructure:"max_snapshot_age"`
	MinVolume      float64       `mapstructure:"min_volume"`
}

type RetentionConfig struct {
	ScoreDays      int `mapstructure:"score_days"`
	RiskEventDays  int `mapstructure:"risk_event_days"`
	PricePointDays int `mapstructure:"price_point_days"`
	PortfolioDays  int `mapstructure:"portfolio_days"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.risk_reset", "0 0 0 * * *")
	v.SetDefault("cron.screener", "@every 5m")
	v.SetDefault("cron.retention", "@every 6h")

	v.SetDefault("engine.cycle_interval", "15m")
	v.SetDefault("engine.initial_capital", 10000)

	v.SetDefault("scoring.weight_ema", 0.22)
	v.SetDefault("scoring.weight_macd", 0.22)
	v.SetDefault("scoring.weight_rsi", 0.13)
	v.SetDefault("scoring.weight_sma", 0.09)
	v.SetDefault("scoring.weight_volatility", 0.20)
	v.SetDefault("scoring.weight_pivot", 0.07)
	v.SetDefault("scoring.weight_fibo", 0.07)
	v.SetDefault("scoring.rsi_oversold_strong", 35)
	v.SetDefault("scoring.rsi_oversold_weak", 42)
	v.SetDefault("scoring.rsi_overbought_weak", 58)
	v.SetDefault("scoring.rsi_overbought_strong", 65)
	v.SetDefault("scoring.volatility_low", 2.0)
	v.SetDefault("scoring.volatility_high", 5.0)

	v.SetDefault("sentiment.min_tweets", 10)
	v.SetDefault("sentiment.positive_threshold", 0.2)
	v.SetDefault("sentiment.negative_threshold", -0.1)
	v.SetDefault("sentiment.trend_bonus", 0.1)

	v.SetDefault("regime.atr_period", 14)
	v.SetDefault("regime.atr_panic_pct", 0.05)
	v.SetDefault("regime.volume_panic_ratio", 2.0)
	v.SetDefault("regime.funding_panic_abs", 0.1)
	v.SetDefault("regime.trend_rsi_upper", 52)
	v.SetDefault("regime.trend_rsi_lower", 48)

	v.SetDefault("decision.technical_weight", 0.85)
	v.SetDefault("decision.sentiment_weight", 0.15)
	v.SetDefault("decision.long_threshold", 0.55)
	v.SetDefault("decision.short_threshold", -0.55)
	v.SetDefault("decision.tier_medium_band", 0.70)
	v.SetDefault("decision.tier_high_band", 0.85)
	v.SetDefault("decision.tier_low_risk", 0.01)
	v.SetDefault("decision.tier_medium_risk", 0.015)
	v.SetDefault("decision.tier_high_risk", 0.02)
	v.SetDefault("decision.min_stop_distance", 0.005)
	v.SetDefault("decision.max_position_fraction", 0.10)
	v.SetDefault("decision.base_stop_pct", 0.6)
	v.SetDefault("decision.min_stop_pct", 0.25)

	v.SetDefault("risk.max_daily_loss_pct", 2.0)
	v.SetDefault("risk.max_drawdown_pct", 20.0)
	v.SetDefault("risk.max_correlation", 0.7)
	v.SetDefault("risk.min_trade_interval", "2h")
	v.SetDefault("risk.correlation_days", 30)

	v.SetDefault("fees.pct", 0.005)
	v.SetDefault("fees.flat", 0)

	v.SetDefault("collectors.coingecko.enabled", true)
	v.SetDefault("collectors.coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("collectors.coingecko.vs_currency", "usd")
	v.SetDefault("collectors.coingecko.poll_interval", "2m")
	v.SetDefault("collectors.coingecko.timeout", "15s")
	v.SetDefault("collectors.coingecko.backfill_days", 30)
	v.SetDefault("collectors.binance_mark.enabled", true)
	v.SetDefault("collectors.binance_mark.url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("collectors.binance_funding.enabled", true)
	v.SetDefault("collectors.binance_funding.base_url", "https://fapi.binance.com")
	v.SetDefault("collectors.binance_funding.poll_interval", "5m")
	v.SetDefault("collectors.binance_funding.timeout", "15s")

	v.SetDefault("screener.enabled", true)
	v.SetDefault("screener.max_snapshot_age", "30m")
	v.SetDefault("screener.min_volume", 0)

	v.SetDefault("retention.score_days", 90)
	v.SetDefault("retention.risk_event_days", 90)
	v.SetDefault("retention.price_point_days", 120)
	v.SetDefault("retention.portfolio_days", 365)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
