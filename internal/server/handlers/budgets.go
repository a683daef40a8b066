package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/budgets"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

type BudgetHandler struct {
	svc    *budgets.Service
	state  *state.State
	logger *zap.Logger
}

func NewBudgetHandler(svc *budgets.Service, st *state.State, log *zap.Logger) *BudgetHandler {
	return &BudgetHandler{svc: svc, state: st, logger: logger.OrNop(log)}
}

// budgetView adds the expiry computed from the current validity window.
type budgetView struct {
	models.Budget
	ExpiresAt *string `json:"expires_at,omitempty"`
}

func (h *BudgetHandler) view(b models.Budget) budgetView {
	v := budgetView{Budget: b}
	if days := h.state.QuoteValidityDays(); days > 0 {
		exp := b.ExpiresAt(days).Format(time.RFC3339)
		v.ExpiresAt = &exp
	}
	return v
}

// List returns every budget; ?status= filters on one status.
func (h *BudgetHandler) List(c *gin.Context) {
	status := models.BudgetStatus(c.Query("status"))
	out := []budgetView{}
	for _, b := range h.state.Budgets() {
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, h.view(b))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BudgetHandler) Get(c *gin.Context) {
	b, ok := h.state.Budget(c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, h.view(b))
}

func (h *BudgetHandler) Create(c *gin.Context) {
	var req models.Budget
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	created, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, h.view(created))
}

func (h *BudgetHandler) Update(c *gin.Context) {
	var req models.Budget
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, h.logger, err)
		return
	}
	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.view(updated))
}

func (h *BudgetHandler) Finalize(c *gin.Context) {
	b, err := h.svc.Finalize(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.view(b))
}

func (h *BudgetHandler) Cancel(c *gin.Context) {
	b, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.view(b))
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
