package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

type AssetHandler struct {
	Repo repository.Repository
}

func (h *AssetHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/assets")
	g.GET("", h.list)
	g.GET("/:symbol", h.get)
	g.PUT("/:symbol/enabled", h.putEnabled)
}

// @Summary List tracked assets
// @Tags assets
// @Success 200 {object} map[string]any
// @Router /api/v1/assets [get]
func (h *AssetHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	orderBy := parseOrder(strings.TrimSpace(c.Query("order_by")), map[string]string{
		"symbol":       "symbol",
		"status":       "status",
		"created_at":   "created_at",
		"last_data_at": "last_data_at",
	})
	if orderBy == "" {
		orderBy = "symbol"
	}
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	asc := true
	if order == "desc" {
		asc = false
	}

	params := repository.ListAssetsParams{
		Limit:   limit,
		Offset:  offset,
		Enabled: boolQueryPtr(c, "enabled"),
		Status:  strQueryPtr(c, "status"),
		Symbol:  strQueryPtr(c, "symbol"),
		OrderBy: orderBy,
		Asc:     boolPtr(asc),
	}
	items, err := h.Repo.ListAssets(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountAssets(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// assetDetail joins the registry row with the latest per-asset state the
// collectors and ingest endpoints maintain. Missing sections stay null.
type assetDetail struct {
	Asset      *models.Asset             `json:"asset"`
	Market     *models.MarketSnapshot    `json:"market,omitempty"`
	Indicators *models.IndicatorSnapshot `json:"indicators,omitempty"`
	Sentiment  *models.SentimentSnapshot `json:"sentiment,omitempty"`
	Mark       *models.MarkPrice         `json:"mark,omitempty"`
}

func (h *AssetHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		Error(c, http.StatusBadRequest, "invalid symbol", nil)
		return
	}
	asset, err := h.Repo.GetAssetBySymbol(c.Request.Context(), symbol)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if asset == nil {
		Error(c, http.StatusNotFound, "asset not found", nil)
		return
	}
	detail := assetDetail{Asset: asset}
	detail.Market, _ = h.Repo.GetMarketSnapshot(c.Request.Context(), asset.ID)
	detail.Indicators, _ = h.Repo.GetIndicatorSnapshot(c.Request.Context(), asset.ID)
	detail.Sentiment, _ = h.Repo.GetSentimentSnapshot(c.Request.Context(), asset.ID)
	detail.Mark, _ = h.Repo.GetMarkPrice(c.Request.Context(), asset.ID)
	Ok(c, detail, nil)
}

type putAssetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AssetHandler) putEnabled(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		Error(c, http.StatusBadRequest, "invalid symbol", nil)
		return
	}
	var req putAssetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	asset, err := h.Repo.GetAssetBySymbol(c.Request.Context(), symbol)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if asset == nil {
		Error(c, http.StatusNotFound, "asset not found", nil)
		return
	}
	if err := h.Repo.SetAssetEnabled(c.Request.Context(), symbol, req.Enabled); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	next, _ := h.Repo.GetAssetBySymbol(c.Request.Context(), symbol)
	Ok(c, next, nil)
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func uint64QueryPtr(c *gin.Context, key string) *uint64 {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		if id, err := strconv.ParseUint(val, 10, 64); err == nil {
			return &id
		}
	}
	return nil
}

func timeQueryPtr(c *gin.Context, key string) *time.Time {
	if raw := strings.TrimSpace(c.Query(key)); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			t := ts.UTC()
			return &t
		}
	}
	return nil
}

func parseOrder(value string, allow map[string]string) string {
	key := strings.TrimSpace(strings.ToLower(value))
	if key == "" {
		return ""
	}
	if mapped, ok := allow[key]; ok {
		return mapped
	}
	return ""
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
