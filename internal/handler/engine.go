package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cryptobot/internal/engine"
)

type EngineHandler struct {
	Engine *engine.Engine
}

func (h *EngineHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/engine")
	g.POST("/cycle", h.runCycle)
}

// @Summary Run one decision cycle now
// @Tags engine
// @Success 200 {object} map[string]any
// @Router /api/v1/engine/cycle [post]
func (h *EngineHandler) runCycle(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "engine unavailable", nil)
		return
	}
	report, err := h.Engine.RunOnce(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, nil)
}
