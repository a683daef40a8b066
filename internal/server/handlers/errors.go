package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/service/budgets"
	"github.com/mamadbah2/cortinas/internal/service/settings"
	"github.com/mamadbah2/cortinas/internal/session"
	"github.com/mamadbah2/cortinas/internal/syncer"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/clients/postalcode"
)

// writeError maps service errors onto HTTP responses. Anything unknown is a
// failure of the remote backend.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Violations})
	case errors.Is(err, remote.ErrNotFound),
		errors.Is(err, settings.ErrNotConfigured),
		errors.Is(err, postalcode.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, postalcode.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, budgets.ErrBudgetLocked),
		errors.Is(err, syncer.ErrSyncInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "remote backend timed out"})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote backend unavailable"})
	}
}

func badBody(c *gin.Context, logger *zap.Logger, err error) {
	logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
