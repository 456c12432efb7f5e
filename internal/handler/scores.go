package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

type ScoreHandler struct {
	Repo repository.Repository
}

func (h *ScoreHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/scores")
	g.GET("", h.list)
}

func (h *ScoreHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	orderBy := parseOrder(strings.TrimSpace(c.Query("order_by")), map[string]string{
		"created_at":      "created_at",
		"combined_score":  "combined_score",
		"technical_score": "technical_score",
	})
	if orderBy == "" {
		orderBy = "created_at"
	}
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	asc := false
	if order == "asc" {
		asc = true
	}

	params := repository.ListScoreRecordsParams{
		Limit:     limit,
		Offset:    offset,
		AssetID:   uint64QueryPtr(c, "asset_id"),
		CycleID:   strQueryPtr(c, "cycle_id"),
		Direction: parseDirection(c.Query("direction")),
		Since:     timeQueryPtr(c, "since"),
		Until:     timeQueryPtr(c, "until"),
		OrderBy:   orderBy,
		Asc:       boolPtr(asc),
	}
	items, err := h.Repo.ListScoreRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountScoreRecords(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func parseDirection(value string) *models.Direction {
	var d models.Direction
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "long":
		d = models.DirectionLong
	case "short":
		d = models.DirectionShort
	case "none":
		d = models.DirectionNone
	default:
		return nil
	}
	return &d
}

func boolPtr(v bool) *bool { return &v }
