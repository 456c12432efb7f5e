package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

type TradeHandler struct {
	Repo repository.Repository
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/trades")
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

func (h *TradeHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	orderBy := parseOrder(strings.TrimSpace(c.Query("order_by")), map[string]string{
		"opened_at":     "opened_at",
		"created_at":    "created_at",
		"position_size": "position_size",
		"entry_price":   "entry_price",
	})
	if orderBy == "" {
		orderBy = "opened_at"
	}
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	asc := false
	if order == "asc" {
		asc = true
	}

	params := repository.ListTradesParams{
		Limit:     limit,
		Offset:    offset,
		AssetID:   uint64QueryPtr(c, "asset_id"),
		CycleID:   strQueryPtr(c, "cycle_id"),
		Direction: parseDirection(c.Query("direction")),
		Active:    boolQueryPtr(c, "active"),
		Since:     timeQueryPtr(c, "since"),
		Until:     timeQueryPtr(c, "until"),
		OrderBy:   orderBy,
		Asc:       boolPtr(asc),
	}
	items, err := h.Repo.ListTrades(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountTrades(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

type tradeDetail struct {
	Trade *models.Trade `json:"trade"`
	Asset *models.Asset `json:"asset,omitempty"`
}

func (h *TradeHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	id := uint64QueryParam(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Repo.GetTradeByID(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "trade not found", nil)
		return
	}
	detail := tradeDetail{Trade: item}
	detail.Asset, _ = h.Repo.GetAssetByID(c.Request.Context(), item.AssetID)
	Ok(c, detail, nil)
}

func uint64QueryParam(c *gin.Context, key string) uint64 {
	val := strings.TrimSpace(c.Param(key))
	if val == "" {
		return 0
	}
	var out uint64
	for i := 0; i < len(val); i++ {
		ch := val[i]
		if ch < '0' || ch > '9' {
			return 0
		}
		out = out*10 + uint64(ch-'0')
	}
	return out
}
