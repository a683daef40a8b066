// Package catalog writes customers, products and accessories.
package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Service validates catalog records, stores them remotely and mirrors them
// into the cache and the state.
type Service struct {
	customers   remote.Table[models.Customer]
	products    remote.Table[models.Product]
	accessories remote.Table[models.Accessory]
	cache       *cache.Store
	state       *state.State
	logger      *zap.Logger
}

// NewService wires a new catalog service instance.
func NewService(backend remote.Backend, store *cache.Store, st *state.State, log *zap.Logger) *Service {
	return &Service{
		customers:   remote.For[models.Customer](backend),
		products:    remote.For[models.Product](backend),
		accessories: remote.For[models.Accessory](backend),
		cache:       store,
		state:       st,
		logger:      logger.OrNop(log),
	}
}

func (s *Service) CreateCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	c.ID = ""
	if err := validation.Struct(c); err != nil {
		return models.Customer{}, err
	}
	stored, err := s.customers.Insert(ctx, c)
	if err != nil {
		return models.Customer{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, stored)
	s.state.PutCustomer(stored)
	return stored, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, id string, c models.Customer) (models.Customer, error) {
	c.ID = id
	if err := validation.Struct(c); err != nil {
		return models.Customer{}, err
	}
	if err := s.customers.Replace(ctx, c); err != nil {
		return models.Customer{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, c)
	s.state.PutCustomer(c)
	return c, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.customers.Delete(ctx, id); err != nil {
		return err
	}
	mirror.Delete[models.Customer](ctx, s.cache, s.logger, id)
	s.state.RemoveCustomer(id)
	return nil
}
