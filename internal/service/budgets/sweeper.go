package budgets

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Expired returns the pending budgets whose validity window ended before now.
// A non-positive window means no configuration is loaded and nothing expires.
func Expired(budgets []models.Budget, validityDays int, now time.Time) []models.Budget {
	if validityDays <= 0 {
		return nil
	}
	var out []models.Budget
	for _, b := range budgets {
		if b.Status != models.BudgetPending {
			continue
		}
		if now.After(b.ExpiresAt(validityDays)) {
			out = append(out, b)
		}
	}
	return out
}

type canceller interface {
	Cancel(ctx context.Context, id string) (models.Budget, error)
}

// Sweeper cancels expired budgets whenever budgets or the validity window change.
type Sweeper struct {
	budgets canceller
	state   *state.State
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	running bool
	pending bool
}

// NewSweeper wires a sweeper over the budgets of st.
func NewSweeper(budgets canceller, st *state.State, log *zap.Logger) *Sweeper {
	return &Sweeper{
		budgets: budgets,
		state:   st,
		logger:  logger.OrNop(log),
		now:     time.Now,
	}
}

// Watch subscribes the sweeper to state changes. It is the only place the
// sweep is triggered from; ctx bounds every run it starts.
func (s *Sweeper) Watch(ctx context.Context) {
	s.state.Subscribe(func(tables []string) {
		if slices.Contains(tables, models.TableBudgets) || slices.Contains(tables, models.TableConfiguration) {
			s.Run(ctx)
		}
	})
}

// Run cancels every expired budget and returns how many were cancelled. A call
// made while a run is in progress is folded into one extra pass of that run.
func (s *Sweeper) Run(ctx context.Context) int {
	s.mu.Lock()
	if s.running {
		s.pending = true
		s.mu.Unlock()
		return 0
	}
	s.running = true
	s.mu.Unlock()

	total := 0
	for {
		total += s.sweep(ctx)

		s.mu.Lock()
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return total
		}
		s.pending = false
		s.mu.Unlock()
	}
}

func (s *Sweeper) sweep(ctx context.Context) int {
	days := s.state.QuoteValidityDays()
	expired := Expired(s.state.Budgets(), days, s.now())

	cancelled := 0
	for _, b := range expired {
		if ctx.Err() != nil {
			return cancelled
		}
		if _, err := s.budgets.Cancel(ctx, b.ID); err != nil {
			if !errors.Is(err, ErrBudgetLocked) {
				s.logger.Warn("cancel expired budget", zap.String("id", b.ID), zap.Error(err))
			}
			continue
		}
		cancelled++
		s.logger.Info("budget expired", zap.String("id", b.ID), zap.Time("created_at", b.CreatedAt), zap.Int("validity_days", days))
	}
	return cancelled
}
