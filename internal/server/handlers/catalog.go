package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/catalog"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// CatalogHandler serves customers, products and accessories. Reads come
// from the state, writes go through the catalog service.
type CatalogHandler struct {
	svc    *catalog.Service
	state  *state.State
	logger *zap.Logger
}

func NewCatalogHandler(svc *catalog.Service, st *state.State, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, state: st, logger: logger.OrNop(log)}
}

func (h *CatalogHandler) ListCustomers(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Customers())
}

func (h *CatalogHandler) GetCustomer(c *gin.Context) {
	customer, ok := h.state.Customer(c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req models.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	created, err := h.svc.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateCustomer(c *gin.Context) {
	var req models.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	updated, err := h.svc.UpdateCustomer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteCustomer(c *gin.Context) {
	if err := h.svc.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Products())
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, ok := h.state.Product(c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	created, err := h.svc.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req models.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	updated, err := h.svc.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	if err := h.svc.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) ListAccessories(c *gin.Context) {
	c.JSON(http.StatusOK, h.state.Accessories())
}

func (h *CatalogHandler) GetAccessory(c *gin.Context) {
	accessory, ok := h.state.Accessory(c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, accessory)
}

func (h *CatalogHandler) CreateAccessory(c *gin.Context) {
	var req models.Accessory
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	created, err := h.svc.CreateAccessory(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *CatalogHandler) UpdateAccessory(c *gin.Context) {
	var req models.Accessory
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	updated, err := h.svc.UpdateAccessory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *CatalogHandler) DeleteAccessory(c *gin.Context) {
	if err := h.svc.DeleteAccessory(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
