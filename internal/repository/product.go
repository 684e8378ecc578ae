package repository

import (
	"context"
	"errors"

	"stockroom/internal/models"
	"stockroom/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const duplicateSKUMessage = "duplicate sku for owner"

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProductRepository returns a new ProductRepository implementation.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db, log: observability.NewRepoLogger("products")}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "products")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = r.db.WithContext(ctx).Create(product).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(duplicateSKUMessage, err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": product.ID, "owner": product.OwnerUserID})
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "products")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var product models.Product
	if err = r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Product", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &product, nil
}

// Update writes every mutable column of product.
func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Update", "products")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":              product.Name,
			"description":       product.Description,
			"sku":               product.SKU,
			"manufacturer":      product.Manufacturer,
			"quantity":          product.Quantity,
			"date_last_updated": product.DateLastUpdated,
		})
	if err = result.Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError(duplicateSKUMessage, err)
		}
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Product", product.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"id": product.ID})
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Product", id)
	}
	r.log.LogDelete(ctx, map[string]any{"id": id})
	return nil
}
