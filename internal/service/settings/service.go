// Package settings reads and writes the company configuration singleton.
package settings

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// ErrNotConfigured is returned by Get before any configuration exists.
var ErrNotConfigured = errors.New("configuration not set")

type Service struct {
	configs remote.Table[models.Configuration]
	cache   *cache.Store
	state   *state.State
	logger  *zap.Logger
}

func NewService(backend remote.Backend, store *cache.Store, st *state.State, log *zap.Logger) *Service {
	return &Service{
		configs: remote.For[models.Configuration](backend),
		cache:   store,
		state:   st,
		logger:  logger.OrNop(log),
	}
}

// Get returns the loaded configuration.
func (s *Service) Get() (models.Configuration, error) {
	cfg, ok := s.state.Configuration()
	if !ok {
		return models.Configuration{}, ErrNotConfigured
	}
	return cfg, nil
}

// Update writes the singleton, inserting it when none exists yet. Changing the
// validity window re-triggers the expiration sweep through the state.
func (s *Service) Update(ctx context.Context, cfg models.Configuration) (models.Configuration, error) {
	if err := validation.Struct(cfg); err != nil {
		return models.Configuration{}, err
	}

	current, ok := s.state.Configuration()
	if !ok {
		// Nothing loaded yet; the backend may still hold the row.
		existing, err := s.configs.All(ctx)
		if err != nil {
			return models.Configuration{}, err
		}
		current, ok = models.SingletonConfiguration(existing)
	}
	if ok {
		cfg.ID = current.ID
		if err := s.configs.Replace(ctx, cfg); err != nil {
			return models.Configuration{}, err
		}
	} else {
		cfg.ID = ""
		stored, err := s.configs.Insert(ctx, cfg)
		if err != nil {
			return models.Configuration{}, err
		}
		cfg = stored
	}

	mirror.Put(ctx, s.cache, s.logger, cfg)
	s.state.PutConfiguration(cfg)
	s.logger.Info("configuration updated", zap.Int("validity_days", cfg.QuoteValidityDays))
	return cfg, nil
}
