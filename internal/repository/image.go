package repository

import (
	"context"
	"errors"

	"stockroom/internal/models"
	"stockroom/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ImageRepository defines storage operations for image metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, productID, imageID uuid.UUID) (*models.Image, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Image, error)
	Delete(ctx context.Context, imageID uuid.UUID) error
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type imageRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db, log: observability.NewRepoLogger("images")}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("image key already exists", err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"image_id": image.ID, "product_id": image.ProductID})
	return nil
}

// GetByID only finds images that belong to productID.
func (r *imageRepository) GetByID(ctx context.Context, productID, imageID uuid.UUID) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).
		Where("image_id = ? AND product_id = ?", imageID, productID).
		First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Image", imageID)
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

// ListByProduct returns newest images first.
func (r *imageRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Image, error) {
	images := []models.Image{}
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date_created DESC").
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, imageID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Image{}, "image_id = ?", imageID)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Image", imageID)
	}
	r.log.LogDelete(ctx, map[string]any{"image_id": imageID})
	return nil
}

func (r *imageRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Image{}, "product_id = ?", productID)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "delete")
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
