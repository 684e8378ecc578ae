package repository

import (
	"context"
	"errors"

	"stockroom/internal/models"
	"stockroom/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	MarkEmailVerified(ctx context.Context, username string) error
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByID", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var user models.User
	if err = r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername expects an already normalized username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, span := observability.StartRepositorySpan(ctx, "GetByUsername", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	var user models.User
	if err = r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", nil)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Create", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if err = r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("username already exists", err)
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": user.ID})
	return nil
}

// Update writes the mutable profile fields.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	ctx, span := observability.StartRepositorySpan(ctx, "Update", "users")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"first_name":      user.FirstName,
			"last_name":       user.LastName,
			"password_hash":   user.PasswordHash,
			"account_updated": user.AccountUpdated,
		})
	if err = result.Error; err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", user.ID)
	}
	r.log.LogUpdate(ctx, map[string]any{"id": user.ID})
	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, username string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("username = ?", username).
		Updates(map[string]interface{}{
			"email_verified":  true,
			"account_updated": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		r.log.LogError(ctx, result.Error, "verify")
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", nil)
	}
	return nil
}
