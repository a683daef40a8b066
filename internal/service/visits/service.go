// Package visits schedules and confirms measurement visits.
package visits

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/repository/cache"
	"github.com/mamadbah2/cortinas/internal/repository/remote"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/state"
	"github.com/mamadbah2/cortinas/internal/validation"
	"github.com/mamadbah2/cortinas/pkg/clients/postalcode"
	"github.com/mamadbah2/cortinas/pkg/logger"
)

// Service writes visits and resolves postal codes for their address fields.
type Service struct {
	visits     remote.Table[models.Visit]
	postalCode postalcode.Client
	cache      *cache.Store
	state      *state.State
	logger     *zap.Logger
}

// NewService wires a new visits service instance.
func NewService(backend remote.Backend, lookup postalcode.Client, store *cache.Store, st *state.State, log *zap.Logger) *Service {
	return &Service{
		visits:     remote.For[models.Visit](backend),
		postalCode: lookup,
		cache:      store,
		state:      st,
		logger:     logger.OrNop(log),
	}
}

// Schedule stores a new visit in the scheduled state.
func (s *Service) Schedule(ctx context.Context, v models.Visit) (models.Visit, error) {
	v.ID = ""
	v.Status = models.VisitScheduled
	v = s.FillAddress(ctx, v)
	if err := validation.Struct(v); err != nil {
		return models.Visit{}, err
	}
	stored, err := s.visits.Insert(ctx, v)
	if err != nil {
		return models.Visit{}, err
	}
	s.save(ctx, stored)
	s.logger.Info("visit scheduled", zap.String("id", stored.ID), zap.Time("date_time", stored.DateTime))
	return stored, nil
}

// Update replaces the visit details; the status is kept.
func (s *Service) Update(ctx context.Context, id string, v models.Visit) (models.Visit, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return models.Visit{}, err
	}
	v.ID = id
	v.Status = current.Status
	v = s.FillAddress(ctx, v)
	if err := validation.Struct(v); err != nil {
		return models.Visit{}, err
	}
	if err := s.visits.Replace(ctx, v); err != nil {
		return models.Visit{}, err
	}
	s.save(ctx, v)
	return v, nil
}

// Confirm marks the visit as done. It stays stored but leaves the active set.
func (s *Service) Confirm(ctx context.Context, id string) (models.Visit, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return models.Visit{}, err
	}
	if current.Status == models.VisitConfirmed {
		return current, nil
	}
	if err := s.visits.Update(ctx, id, map[string]any{"status": models.VisitConfirmed}); err != nil {
		return models.Visit{}, err
	}
	current.Status = models.VisitConfirmed
	s.save(ctx, current)
	s.logger.Info("visit confirmed", zap.String("id", id))
	return current, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.visits.Delete(ctx, id); err != nil {
		return err
	}
	mirror.Delete[models.Visit](ctx, s.cache, s.logger, id)
	s.state.RemoveVisit(id)
	return nil
}

// LookupAddress resolves a postal code into address fields.
func (s *Service) LookupAddress(ctx context.Context, code string) (postalcode.Address, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return s.postalCode.Lookup(ctx, code)
}

// FillAddress completes the empty address fields of v from its postal code.
// Lookup failures leave v unchanged.
func (s *Service) FillAddress(ctx context.Context, v models.Visit) models.Visit {
	if v.PostalCode == "" || addressComplete(v) {
		return v
	}
	addr, err := s.LookupAddress(ctx, v.PostalCode)
	if err != nil {
		s.logger.Debug("postal code lookup failed", zap.String("cep", v.PostalCode), zap.Error(err))
		return v
	}
	v.PostalCode = addr.PostalCode
	if v.Address == "" {
		v.Address = addr.Address
	}
	if v.Neighborhood == "" {
		v.Neighborhood = addr.Neighborhood
	}
	if v.City == "" {
		v.City = addr.City
	}
	if v.State == "" {
		v.State = addr.State
	}
	return v
}

func addressComplete(v models.Visit) bool {
	return v.Address != "" && v.Neighborhood != "" && v.City != "" && v.State != ""
}

func (s *Service) get(ctx context.Context, id string) (models.Visit, error) {
	if v, ok := s.state.Visit(id); ok {
		return v, nil
	}
	return s.visits.One(ctx, id)
}

func (s *Service) save(ctx context.Context, v models.Visit) {
	mirror.Put(ctx, s.cache, s.logger, v)
	s.state.PutVisit(v)
}
