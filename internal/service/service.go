// Package service implements the resource lifecycle rules on top of the repositories.
package service

import (
	"context"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/policy"
	"stockroom/internal/repository"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// ownedProduct loads a product and checks that principal owns it.
func ownedProduct(ctx context.Context, products repository.ProductRepository, principal *auth.Principal, id uuid.UUID) (*models.Product, error) {
	product, err := products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(principal, product); err != nil {
		return nil, err
	}
	return product, nil
}
