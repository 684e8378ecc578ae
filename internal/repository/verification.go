package repository

import (
	"context"
	"errors"

	"stockroom/internal/models"
	"stockroom/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTokenConsumed is returned when a token was consumed between lock and update.
var ErrTokenConsumed = errors.New("token already consumed")

// VerificationRepository defines persistence for email verification tokens.
type VerificationRepository interface {
	Create(ctx context.Context, v *models.EmailVerification) error
	// GetByTokenForUpdate locks the row until the surrounding transaction ends.
	GetByTokenForUpdate(ctx context.Context, token string) (*models.EmailVerification, error)
	MarkConsumed(ctx context.Context, id int64) error
}

type verificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVerificationRepository returns a VerificationRepository implementation.
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db, log: observability.NewRepoLogger("email_verifications")}
}

func (r *verificationRepository) Create(ctx context.Context, v *models.EmailVerification) error {
	if err := r.db.WithContext(ctx).Create(v).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"email": v.Email})
	return nil
}

func (r *verificationRepository) GetByTokenForUpdate(ctx context.Context, token string) (*models.EmailVerification, error) {
	var v models.EmailVerification
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("token = ?", token).
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Verification token", nil)
		}
		return nil, models.NewInternalError(err)
	}
	return &v, nil
}

func (r *verificationRepository) MarkConsumed(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.EmailVerification{}).
		Where("id = ? AND consumed = ?", id, false).
		Update("consumed", true)
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "consume")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected != 1 {
		return ErrTokenConsumed
	}
	return nil
}
