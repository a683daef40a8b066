package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/cortinas/internal/domain/models"
	"github.com/mamadbah2/cortinas/internal/service/mirror"
	"github.com/mamadbah2/cortinas/internal/validation"
)

// CreateProduct stores a new product. The sale price sent by the caller is
// ignored and derived from cost and margin.
func (s *Service) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.ID = ""
	p.RecomputeSalePrice()
	if err := validation.Struct(p); err != nil {
		return models.Product{}, err
	}
	stored, err := s.products.Insert(ctx, p)
	if err != nil {
		return models.Product{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, stored)
	s.state.PutProduct(stored)
	s.logger.Info("product created", zap.String("id", stored.ID), zap.String("sale_price", stored.SalePrice.StringFixed(2)))
	return stored, nil
}

// UpdateProduct replaces a product, recomputing its sale price.
func (s *Service) UpdateProduct(ctx context.Context, id string, p models.Product) (models.Product, error) {
	p.ID = id
	p.RecomputeSalePrice()
	if err := validation.Struct(p); err != nil {
		return models.Product{}, err
	}
	if err := s.products.Replace(ctx, p); err != nil {
		return models.Product{}, err
	}
	mirror.Put(ctx, s.cache, s.logger, p)
	s.state.PutProduct(p)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	mirror.Delete[models.Product](ctx, s.cache, s.logger, id)
	s.state.RemoveProduct(id)
	return nil
}
