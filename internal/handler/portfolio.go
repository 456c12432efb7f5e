package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/repository"
)

type PortfolioHandler struct {
	Repo repository.Repository
}

func (h *PortfolioHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/portfolio")
	g.GET("/snapshots", h.snapshots)
	g.GET("/latest", h.latest)
}

func (h *PortfolioHandler) snapshots(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 168)
	offset := intQuery(c, "offset", 0)
	order := strings.ToLower(strings.TrimSpace(c.Query("order")))
	asc := false
	if order == "asc" {
		asc = true
	}
	items, err := h.Repo.ListPortfolioSnapshots(c.Request.Context(), repository.ListPortfolioSnapshotsParams{
		Limit:  limit,
		Offset: offset,
		Since:  timeQueryPtr(c, "since"),
		Until:  timeQueryPtr(c, "until"),
		Asc:    boolPtr(asc),
	})
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, int64(len(items))))
}

func (h *PortfolioHandler) latest(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	item, err := h.Repo.LatestPortfolioSnapshot(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "no snapshots yet", nil)
		return
	}
	Ok(c, item, nil)
}
