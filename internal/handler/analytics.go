package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/models"
	"cryptobot/internal/repository"
)

type AnalyticsHandler struct {
	Repo repository.Repository
}

func (h *AnalyticsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/analytics")
	g.GET("/overview", h.overview)
}

type analyticsOverview struct {
	Trades     repository.TradeSummaryResult     `json:"trades"`
	Scores     []repository.AssetScoreSummaryRow `json:"scores"`
	RiskEvents map[string]int64                  `json:"risk_events"`
	Portfolio  *models.PortfolioSnapshot         `json:"portfolio,omitempty"`
}

// overview aggregates the trade book, the scoring history and the risk
// audit into one dashboard payload. The optional since filter bounds the
// score and risk-event windows; trade counts are all-time.
func (h *AnalyticsHandler) overview(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	since := timeQueryPtr(c, "since")

	trades, err := h.Repo.TradeSummary(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	scores, err := h.Repo.ScoreSummary(c.Request.Context(), since)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	events, err := h.Repo.CountRiskEventsByKind(c.Request.Context(), since)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	out := analyticsOverview{
		Trades:     trades,
		Scores:     scores,
		RiskEvents: events,
	}
	out.Portfolio, _ = h.Repo.LatestPortfolioSnapshot(c.Request.Context())
	Ok(c, out, nil)
}
