package catalog

import (
	"context"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/validation"
)

// CreateAccessory stores a new accessory. At least one color entry is required.
func (s *Service) CreateAccessory(ctx context.Context, a models.Accessory) (models.Accessory, error) {
	a.ID = ""
	if err := validation.Struct(a); err != nil {
		return models.Accessory{}, err
	}
	stored, err := s.accessories.Insert(ctx, a)
	if err != nil {
		return models.Accessory{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, stored)
	s.state.PutAccessory(stored)
	return stored, nil
}

func (s *Service) UpdateAccessory(ctx context.Context, id string, a models.Accessory) (models.Accessory, error) {
	a.ID = id
	if err := validation.Struct(a); err != nil {
		return models.Accessory{}, err
	}
	if err := s.accessories.Replace(ctx, a); err != nil {
		return models.Accessory{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, a)
	s.state.PutAccessory(a)
	return a, nil
}

func (s *Service) DeleteAccessory(ctx context.Context, id string) error {
	if err := s.accessories.Delete(ctx, id); err != nil {
		return err
	}
	mirror.Delete[models.Accessory](ctx, s.cache, s.logger, id)
	s.state.RemoveAccessory(id)
	return nil
}
