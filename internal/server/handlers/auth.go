package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/session"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Activator runs the background jobs while someone is logged in.
type Activator interface {
	Activate() error
	Deactivate()
}

// AuthHandler exposes login, logout and the current session.
type AuthHandler struct {
	gate   *session.Gate
	app    Activator
	logger *zap.Logger
}

func NewAuthHandler(gate *session.Gate, app Activator, log *zap.Logger) *AuthHandler {
	return &AuthHandler{gate: gate, app: app, logger: logger.OrNop(log)}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}

	s, err := h.gate.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.app.Activate(); err != nil {
		h.logger.Error("background jobs unavailable", zap.Error(err))
	}
	c.JSON(http.StatusOK, s)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.gate.Logout(c.Request.Context()); err != nil {
		h.logger.Warn("persisted session not cleared", zap.Error(err))
	}
	h.app.Deactivate()
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	s, ok := h.gate.Current()
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, s)
}
