package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/visits"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

type VisitHandler struct {
	svc    *visits.Service
	state  *state.State
	logger *zap.Logger
}

func NewVisitHandler(svc *visits.Service, st *state.State, log *zap.Logger) *VisitHandler {
	return &VisitHandler{svc: svc, state: st, logger: logger.OrNop(log)}
}

// List returns the active visits, or every visit with ?all=true.
func (h *VisitHandler) List(c *gin.Context) {
	if c.Query("all") == "true" {
		c.JSON(http.StatusOK, h.state.Visits())
		return
	}
	active := h.state.ActiveVisits()
	if active == nil {
		active = []models.Visit{}
	}
	c.JSON(http.StatusOK, active)
}

func (h *VisitHandler) Get(c *gin.Context) {
	v, ok := h.state.Visit(c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VisitHandler) Schedule(c *gin.Context) {
	var req models.Visit
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	created, err := h.svc.Schedule(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *VisitHandler) Update(c *gin.Context) {
	var req models.Visit
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *VisitHandler) Confirm(c *gin.Context) {
	v, err := h.svc.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *VisitHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *VisitHandler) LookupPostalCode(c *gin.Context) {
	addr, err := h.svc.LookupAddress(c.Request.Context(), c.Param("cep"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, addr)
}
