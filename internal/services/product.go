package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nordiska/pricewatch-backend/internal/data/repos"
	"github.com/nordiska/pricewatch-backend/internal/domain/catalog"
	"github.com/nordiska/pricewatch-backend/internal/domain/pricing"
	"github.com/nordiska/pricewatch-backend/internal/domain/staging"
	"github.com/nordiska/pricewatch-backend/internal/pkg/apperrs"
	"github.com/nordiska/pricewatch-backend/internal/platform/logger"
)

// ProductService owns the canonical catalog: reads, creation from
// observations, and the cascade delete that keeps child tables consistent.
type ProductService interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*catalog.Product, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*catalog.Product, int64, error)
	PriceHistory(ctx context.Context, userID, productID uuid.UUID, limit int) ([]*pricing.PriceChange, error)

	// CreateFromObservation materializes a product from one normalized
	// observation, registering its brand on the way.
	CreateFromObservation(ctx context.Context, tx *gorm.DB, user *catalog.User, norm *NormalizedObservation) (*catalog.Product, error)

	// Delete removes products and every row referencing them, child tables
	// first, in one transaction. Partial failure aborts the whole cascade.
	Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

type productService struct {
	db    *gorm.DB
	repos repos.Set
	log   *logger.Logger
}

func NewProductService(db *gorm.DB, rs repos.Set, baseLog *logger.Logger) ProductService {
	return &productService{db: db, repos: rs, log: baseLog.With("service", "ProductService")}
}

func (s *productService) Get(ctx context.Context, userID, id uuid.UUID) (*catalog.Product, error) {
	p, err := s.repos.Products.GetByID(ctx, nil, userID, id)
	if err != nil {
		return nil, apperrs.Storage("product.get", err)
	}
	if p == nil {
		return nil, apperrs.ErrNotFound
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*catalog.Product, int64, error) {
	items, err := s.repos.Products.ListByUser(ctx, nil, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrs.Storage("product.list", err)
	}
	total, err := s.repos.Products.CountByUser(ctx, nil, userID)
	if err != nil {
		return nil, 0, apperrs.Storage("product.count", err)
	}
	return items, total, nil
}

func (s *productService) PriceHistory(ctx context.Context, userID, productID uuid.UUID, limit int) ([]*pricing.PriceChange, error) {
	out, err := s.repos.PriceChanges.ListByProduct(ctx, nil, userID, productID, limit)
	if err != nil {
		return nil, apperrs.Storage("product.price_history", err)
	}
	return out, nil
}

func (s *productService) CreateFromObservation(ctx context.Context, tx *gorm.DB, user *catalog.User, norm *NormalizedObservation) (*catalog.Product, error) {
	p := &catalog.Product{
		UserID:       user.ID,
		Name:         norm.Name,
		SKU:          norm.SKU,
		EAN:          norm.EAN,
		Brand:        norm.Brand,
		CurrencyCode: norm.CurrencyCode,
		IsActive:     true,
	}
	if norm.Brand != nil {
		brand, err := s.repos.Brands.FindOrCreateByName(ctx, tx, user.ID, *norm.Brand)
		if err != nil {
			return nil, apperrs.Storage("product.brand", err)
		}
		p.BrandID = &brand.ID
	}
	if norm.URL != nil {
		p.URL = norm.URL
	}
	if norm.ImageURL != nil {
		p.ImageURL = norm.ImageURL
	}
	if norm.Kind == staging.SourceSupplier {
		p.OurWholesalePrice = decimal.NewNullDecimal(norm.Price)
	}

	created, err := s.repos.Products.Create(ctx, tx, []*catalog.Product{p})
	if err != nil {
		return nil, apperrs.Storage("product.create", err)
	}
	return created[0], nil
}

func (s *productService) Delete(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repos.PriceChanges.DeleteByProductIDs(ctx, tx, userID, ids); err != nil {
			return apperrs.Storage("product.delete.price_changes", err)
		}
		if err := s.repos.Staged.DeleteByProductIDs(ctx, tx, userID, ids); err != nil {
			return apperrs.Storage("product.delete.staged", err)
		}
		if err := s.repos.FieldValues.DeleteByProductIDs(ctx, tx, ids); err != nil {
			return apperrs.Storage("product.delete.field_values", err)
		}
		if err := s.repos.Reviews.DeleteByProductIDs(ctx, tx, userID, ids); err != nil {
			return apperrs.Storage("product.delete.reviews", err)
		}
		if err := s.repos.Products.FullDeleteByIDs(ctx, tx, userID, ids); err != nil {
			return apperrs.Storage("product.delete", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("product cascade delete failed", "user_id", userID, "count", len(ids), "error", err)
		return err
	}
	return nil
}

func (s *productService) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	total, err := s.repos.Products.CountByUser(ctx, nil, userID)
	if err != nil {
		return 0, apperrs.Storage("product.delete_all.count", err)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := s.allProductIDs(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.repos.PriceChanges.DeleteByUser(ctx, tx, userID); err != nil {
			return apperrs.Storage("product.delete_all.price_changes", err)
		}
		if err := s.repos.Staged.DeleteByUser(ctx, tx, userID); err != nil {
			return apperrs.Storage("product.delete_all.staged", err)
		}
		if err := s.repos.FieldValues.DeleteByProductIDs(ctx, tx, ids); err != nil {
			return apperrs.Storage("product.delete_all.field_values", err)
		}
		if err := s.repos.Reviews.DeleteByUser(ctx, tx, userID); err != nil {
			return apperrs.Storage("product.delete_all.reviews", err)
		}
		if err := s.repos.Products.FullDeleteByIDs(ctx, tx, userID, ids); err != nil {
			return apperrs.Storage("product.delete_all", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *productService) allProductIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	batch := 500
	offset := 0
	for {
		page, err := s.repos.Products.ListByUser(ctx, tx, userID, batch, offset)
		if err != nil {
			return nil, apperrs.Storage("product.delete_all.list", err)
		}
		for _, p := range page {
			ids = append(ids, p.ID)
		}
		if len(page) < batch {
			return ids, nil
		}
		offset += batch
	}
}
