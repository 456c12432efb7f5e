package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

// IngestHandler receives the externally computed inputs: the technical
// indicator bundle and the aggregated sentiment. Both replace the asset's
// previous row wholesale.
type IngestHandler struct {
	Repo repository.Repository
}

func (h *IngestHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/ingest")
	g.POST("/indicators", h.putIndicators)
	g.POST("/sentiment", h.putSentiment)
}

type ingestIndicatorsRequest struct {
	Symbol string `json:"symbol" binding:"required"`

	RSI *float64 `json:"rsi"`

	MACDDaily     *float64 `json:"macd_daily"`
	SignalDaily   *float64 `json:"signal_daily"`
	MACDHourly    *float64 `json:"macd_hourly"`
	SignalHourly  *float64 `json:"signal_hourly"`
	Histogram     *float64 `json:"histogram"`
	HistogramNorm *float64 `json:"histogram_norm"`

	EMA50  *float64 `json:"ema_50"`
	EMA200 *float64 `json:"ema_200"`
	SMA50  *float64 `json:"sma_50"`
	SMA200 *float64 `json:"sma_200"`

	Pivot   *float64 `json:"pivot"`
	PivotR1 *float64 `json:"pivot_r1"`
	PivotS1 *float64 `json:"pivot_s1"`

	Fibo382 *float64 `json:"fibo_382"`
	Fibo618 *float64 `json:"fibo_618"`

	UpdatedAt *time.Time `json:"updated_at"`
}

func (h *IngestHandler) putIndicators(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req ingestIndicatorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	asset, ok := h.lookupAsset(c, req.Symbol)
	if !ok {
		return
	}
	at := time.Now().UTC()
	if req.UpdatedAt != nil {
		at = req.UpdatedAt.UTC()
	}
	item := &models.IndicatorSnapshot{
		AssetID:       asset.ID,
		RSI:           req.RSI,
		MACDDaily:     req.MACDDaily,
		SignalDaily:   req.SignalDaily,
		MACDHourly:    req.MACDHourly,
		SignalHourly:  req.SignalHourly,
		Histogram:     req.Histogram,
		HistogramNorm: req.HistogramNorm,
		EMA50:         req.EMA50,
		EMA200:        req.EMA200,
		SMA50:         req.SMA50,
		SMA200:        req.SMA200,
		Pivot:         req.Pivot,
		PivotR1:       req.PivotR1,
		PivotS1:       req.PivotS1,
		Fibo382:       req.Fibo382,
		Fibo618:       req.Fibo618,
		UpdatedAt:     at,
	}
	if err := h.Repo.UpsertIndicatorSnapshot(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	_ = h.Repo.TouchAssetData(c.Request.Context(), asset.ID, at)
	Ok(c, item, nil)
}

type ingestSentimentRequest struct {
	Symbol string `json:"symbol" binding:"required"`

	Score12h *float64 `json:"score_12h"`
	Count12h int      `json:"count_12h"`
	Score24h *float64 `json:"score_24h"`
	Count24h int      `json:"count_24h"`

	Source    *string    `json:"source"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (h *IngestHandler) putSentiment(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	var req ingestSentimentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	asset, ok := h.lookupAsset(c, req.Symbol)
	if !ok {
		return
	}
	at := time.Now().UTC()
	if req.UpdatedAt != nil {
		at = req.UpdatedAt.UTC()
	}
	item := &models.SentimentSnapshot{
		AssetID:   asset.ID,
		Score12h:  req.Score12h,
		Count12h:  req.Count12h,
		Score24h:  req.Score24h,
		Count24h:  req.Count24h,
		Source:    req.Source,
		UpdatedAt: at,
	}
	if err := h.Repo.UpsertSentimentSnapshot(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	_ = h.Repo.TouchAssetData(c.Request.Context(), asset.ID, at)
	Ok(c, item, nil)
}

// lookupAsset resolves the request symbol and writes the error response
// itself when the asset is unknown.
func (h *IngestHandler) lookupAsset(c *gin.Context, symbol string) (*models.Asset, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		Error(c, http.StatusBadRequest, "invalid symbol", nil)
		return nil, false
	}
	asset, err := h.Repo.GetAssetBySymbol(c.Request.Context(), symbol)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return nil, false
	}
	if asset == nil {
		Error(c, http.StatusNotFound, "asset not found", nil)
		return nil, false
	}
	return asset, true
}
