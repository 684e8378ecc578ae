package service

import (
	"context"
	"fmt"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/repository"
	"stockroom/internal/storage"
	"stockroom/internal/validation"

	"github.com/google/uuid"
)

type ProductService struct {
	store   repository.Store
	objects storage.ObjectStore
	now     Clock
}

func NewProductService(store repository.Store, objects storage.ObjectStore) *ProductService {
	return &ProductService{store: store, objects: objects, now: utcNow}
}

// Create stores a product owned by principal.
func (s *ProductService) Create(ctx context.Context, principal *auth.Principal, in *validation.ProductInput) (*models.Product, error) {
	product := &models.Product{OwnerUserID: principal.ID}
	in.Apply(product)
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// Get is public. Any caller may read any product.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.store.Products().GetByID(ctx, id)
}

// Replace overwrites every mutable field.
func (s *ProductService) Replace(ctx context.Context, principal *auth.Principal, id uuid.UUID, in *validation.ProductInput) error {
	product, err := ownedProduct(ctx, s.store.Products(), principal, id)
	if err != nil {
		return err
	}
	in.Apply(product)
	product.DateLastUpdated = s.now()
	return s.store.Products().Update(ctx, product)
}

func (s *ProductService) Patch(ctx context.Context, principal *auth.Principal, id uuid.UUID, patch *models.ProductPatch) error {
	product, err := ownedProduct(ctx, s.store.Products(), principal, id)
	if err != nil {
		return err
	}
	patch.Apply(product)
	product.DateLastUpdated = s.now()
	return s.store.Products().Update(ctx, product)
}

// Delete removes the product's objects first, then its image rows and the
// product row in one transaction. A failed object delete leaves the product
// in place so the call can be retried.
func (s *ProductService) Delete(ctx context.Context, principal *auth.Principal, id uuid.UUID) error {
	product, err := ownedProduct(ctx, s.store.Products(), principal, id)
	if err != nil {
		return err
	}

	images, err := s.store.Images().ListByProduct(ctx, product.ID)
	if err != nil {
		return err
	}
	for _, img := range images {
		if err := s.objects.Delete(ctx, img.S3BucketPath); err != nil {
			return models.NewInternalError(fmt.Errorf("delete image %s: %w", img.ID, err))
		}
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Images().DeleteByProduct(ctx, product.ID); err != nil {
			return err
		}
		return tx.Products().Delete(ctx, product.ID)
	})
}
