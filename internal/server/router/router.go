package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/server/handlers"
)

// Gate answers access questions for the current device session.
type Gate interface {
	HasAccess(level models.AccessLevel) bool
}

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Catalog *handlers.CatalogHandler
	Budgets *handlers.BudgetHandler
	Visits  *handlers.VisitHandler
	System  *handlers.SystemHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, gate Gate, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	api := r.Group("/", requireAccess(gate, models.AccessStandard))
	admin := requireAccess(gate, models.AccessAdmin)

	api.GET("/customers", h.Catalog.ListCustomers)
	api.GET("/customers/:id", h.Catalog.GetCustomer)
	api.POST("/customers", h.Catalog.CreateCustomer)
	api.PUT("/customers/:id", h.Catalog.UpdateCustomer)
	api.DELETE("/customers/:id", admin, h.Catalog.DeleteCustomer)

	api.GET("/products", h.Catalog.ListProducts)
	api.GET("/products/:id", h.Catalog.GetProduct)
	api.POST("/products", h.Catalog.CreateProduct)
	api.PUT("/products/:id", h.Catalog.UpdateProduct)
	api.DELETE("/products/:id", admin, h.Catalog.DeleteProduct)

	api.GET("/accessories", h.Catalog.ListAccessories)
	api.GET("/accessories/:id", h.Catalog.GetAccessory)
	api.POST("/accessories", h.Catalog.CreateAccessory)
	api.PUT("/accessories/:id", h.Catalog.UpdateAccessory)
	api.DELETE("/accessories/:id", admin, h.Catalog.DeleteAccessory)

	api.GET("/budgets", h.Budgets.List)
	api.GET("/budgets/:id", h.Budgets.Get)
	api.POST("/budgets", h.Budgets.Create)
	api.PUT("/budgets/:id", h.Budgets.Update)
	api.POST("/budgets/:id/finalize", h.Budgets.Finalize)
	api.POST("/budgets/:id/cancel", h.Budgets.Cancel)
	api.DELETE("/budgets/:id", admin, h.Budgets.Delete)

	api.GET("/visits", h.Visits.List)
	api.GET("/visits/:id", h.Visits.Get)
	api.POST("/visits", h.Visits.Schedule)
	api.PUT("/visits/:id", h.Visits.Update)
	api.POST("/visits/:id/confirm", h.Visits.Confirm)
	api.DELETE("/visits/:id", admin, h.Visits.Delete)
	api.GET("/postal-codes/:cep", h.Visits.LookupPostalCode)

	api.GET("/config", h.System.GetConfig)
	api.PUT("/config", admin, h.System.UpdateConfig)
	api.GET("/sync", h.System.SyncStatus)
	api.POST("/sync", h.System.TriggerSync)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

// requireAccess rejects the request unless the session has level. A missing
// session is 401, an insufficient one 403.
func requireAccess(gate Gate, level models.AccessLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		if gate.HasAccess(level) {
			c.Next()
			return
		}
		if !gate.HasAccess(models.AccessStandard) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
