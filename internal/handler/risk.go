package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/repository"
	"cryptobot/internal/risk"
)

type RiskHandler struct {
	Repo  repository.Repository
	State *risk.State
}

func (h *RiskHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/risk")
	g.GET("/events", h.events)
	g.GET("/state", h.state)
}

func (h *RiskHandler) events(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	asc := false
	if order == "asc" {
		asc = true
	}

	params := repository.ListRiskEventsParams{
		Limit:   limit,
		Offset:  offset,
		Kind:    strQueryPtr(c, "kind"),
		Gate:    strQueryPtr(c, "gate"),
		AssetID: uint64QueryPtr(c, "asset_id"),
		CycleID: strQueryPtr(c, "cycle_id"),
		Since:   timeQueryPtr(c, "since"),
		OrderBy: "created_at",
		Asc:     boolPtr(asc),
	}
	items, err := h.Repo.ListRiskEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountRiskEvents(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// state exposes the in-memory gate state: the drawdown peak, the running
// daily loss and each asset's last entry time.
func (h *RiskHandler) state(c *gin.Context) {
	if h.State == nil {
		Error(c, http.StatusInternalServerError, "risk state unavailable", nil)
		return
	}
	Ok(c, h.State.Snapshot(), nil)
}
