package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/settings"
	"github.com/mamadbah2/cortinas/internal/syncer"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// SystemHandler serves the configuration singleton and the sync controls.
type SystemHandler struct {
	settings *settings.Service
	engine   *syncer.Engine
	logger   *zap.Logger
}

func NewSystemHandler(settingsSvc *settings.Service, engine *syncer.Engine, log *zap.Logger) *SystemHandler {
	return &SystemHandler{settings: settingsSvc, engine: engine, logger: logger.OrNop(log)}
}

func (h *SystemHandler) GetConfig(c *gin.Context) {
	cfg, err := h.settings.Get()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *SystemHandler) UpdateConfig(c *gin.Context) {
	var req models.Configuration
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	cfg, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *SystemHandler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Info())
}

// TriggerSync runs a full sync within the request.
func (h *SystemHandler) TriggerSync(c *gin.Context) {
	if err := h.engine.SyncAll(c.Request.Context()); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.engine.Info())
}
