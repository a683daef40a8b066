// Package budgets manages quotes: creation, edits, the pendente ->
// finalizado/cancelado lifecycle and the expiration sweeper.
package budgets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// ErrBudgetLocked is returned for any change to a finalized or cancelled budget.
var ErrBudgetLocked = errors.New("budget is no longer pending")

// Service writes budgets to the remote backend, then mirrors them into the
// cache and the state.
type Service struct {
	budgets remote.Table[models.Budget]
	cache   *cache.Store
	state   *state.State
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new budgets service instance.
func NewService(backend remote.Backend, store *cache.Store, st *state.State, log *zap.Logger) *Service {
	return &Service{
		budgets: remote.For[models.Budget](backend),
		cache:   store,
		state:   st,
		logger:  logger.OrNop(log),
		now:     time.Now,
	}
}

// Get returns the budget from the state, falling back to the remote backend.
func (s *Service) Get(ctx context.Context, id string) (models.Budget, error) {
	if b, ok := s.state.Budget(id); ok {
		return b, nil
	}
	return s.budgets.One(ctx, id)
}

// Create stores a new pending budget. The total is recomputed from the lines.
func (s *Service) Create(ctx context.Context, b models.Budget) (models.Budget, error) {
	b.ID = ""
	b.Status = models.BudgetPending
	b.CreatedAt = s.now().UTC()
	if err := s.prepare(&b); err != nil {
		return models.Budget{}, err
	}

	stored, err := s.budgets.Insert(ctx, b)
	if err != nil {
		return models.Budget{}, err
	}
	s.save(ctx, stored)
	s.logger.Info("budget created", zap.String("id", stored.ID), zap.String("total", stored.TotalValue.StringFixed(2)))
	return stored, nil
}

// Update replaces the lines and customer of a pending budget.
func (s *Service) Update(ctx context.Context, id string, changes models.Budget) (models.Budget, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Budget{}, err
	}
	if current.Status.Terminal() {
		return models.Budget{}, fmt.Errorf("update budget %s: %w", id, ErrBudgetLocked)
	}

	changes.ID = current.ID
	changes.CreatedAt = current.CreatedAt
	changes.Status = current.Status
	if err := s.prepare(&changes); err != nil {
		return models.Budget{}, err
	}

	if err := s.budgets.ReplaceWhere(ctx, changes, stillPending); err != nil {
		return models.Budget{}, s.conflict(ctx, "update", id, err)
	}
	s.save(ctx, changes)
	return changes, nil
}

// Finalize closes a pending budget as accepted.
func (s *Service) Finalize(ctx context.Context, id string) (models.Budget, error) {
	return s.transition(ctx, id, models.BudgetFinalized)
}

// Cancel closes a pending budget as cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (models.Budget, error) {
	return s.transition(ctx, id, models.BudgetCancelled)
}

// Delete removes the budget everywhere.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.budgets.Delete(ctx, id); err != nil {
		return err
	}
	mirror.Delete[models.Budget](ctx, s.cache, s.logger, id)
	s.state.RemoveBudget(id)
	s.logger.Info("budget deleted", zap.String("id", id))
	return nil
}

func (s *Service) transition(ctx context.Context, id string, to models.BudgetStatus) (models.Budget, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Budget{}, err
	}
	if current.Status.Terminal() {
		return models.Budget{}, fmt.Errorf("%s budget %s: %w", to, id, ErrBudgetLocked)
	}

	if err := s.budgets.UpdateWhere(ctx, id, stillPending, map[string]any{"status": to}); err != nil {
		return models.Budget{}, s.conflict(ctx, string(to), id, err)
	}
	current.Status = to
	s.save(ctx, current)
	s.logger.Info("budget status changed", zap.String("id", id), zap.String("status", string(to)))
	return current, nil
}

// stillPending guards remote writes: the local copy may be stale, and a budget
// the backend already holds as terminal must stay untouched.
var stillPending = map[string]any{"status": models.BudgetPending}

// conflict resolves a guarded write that matched no row. The remote copy is
// pulled in so the cache and state stop disagreeing with the backend.
func (s *Service) conflict(ctx context.Context, op, id string, err error) error {
	if !errors.Is(err, remote.ErrNotFound) {
		return err
	}
	fresh, getErr := s.budgets.One(ctx, id)
	switch {
	case errors.Is(getErr, remote.ErrNotFound):
		mirror.Delete[models.Budget](ctx, s.cache, s.logger, id)
		s.state.RemoveBudget(id)
		return err
	case getErr != nil:
		return getErr
	}
	s.logger.Warn("budget changed remotely, keeping the remote copy",
		zap.String("id", id), zap.String("op", op), zap.String("remote_status", string(fresh.Status)))
	s.save(ctx, fresh)
	return fmt.Errorf("%s budget %s: %w", op, id, ErrBudgetLocked)
}

// prepare prices unpriced lines from the catalog, validates and sets the total.
func (s *Service) prepare(b *models.Budget) error {
	if len(b.Products)+len(b.Accessories) == 0 {
		return validation.Field("produtos_json", "required")
	}
	s.priceLines(b)
	for i, line := range b.Products {
		if !line.Price.Valid {
			return validation.Field(fmt.Sprintf("produtos_json[%d].preco", i), "required")
		}
	}
	for i, line := range b.Accessories {
		if !line.Price.Valid {
			return validation.Field(fmt.Sprintf("acessorios_json[%d].preco", i), "required")
		}
	}
	if err := validation.Struct(b); err != nil {
		return err
	}
	b.TotalValue = b.ComputeTotal()
	return nil
}

// priceLines fills the name and price of lines sent without a price. An
// explicit price, zero included, is kept.
func (s *Service) priceLines(b *models.Budget) {
	for i, line := range b.Products {
		p, ok := s.state.Product(line.ProductID)
		if !ok {
			continue
		}
		if line.Name == "" {
			b.Products[i].Name = p.Name
		}
		if !line.Price.Valid {
			b.Products[i].Price = decimal.NewNullDecimal(p.LinePrice(line.Width, line.Height))
		}
	}
	for i, line := range b.Accessories {
		if line.Price.Valid {
			continue
		}
		a, ok := s.state.Accessory(line.AccessoryID)
		if !ok {
			continue
		}
		if price, ok := a.PriceFor(line.Color); ok {
			b.Accessories[i].Price = decimal.NewNullDecimal(price)
		}
	}
}

func (s *Service) save(ctx context.Context, b models.Budget) {
	mirror.Put(ctx, s.cache, s.logger, b)
	s.state.PutBudget(b)
}
