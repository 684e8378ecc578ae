package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/notifications"
	"stockroom/internal/observability"
	"stockroom/internal/policy"
	"stockroom/internal/repository"
	"stockroom/internal/validation"

	"github.com/google/uuid"
)

const defaultPublishTimeout = 5 * time.Second

// VerificationOptions controls token issuance at signup.
type VerificationOptions struct {
	Enabled bool
	TTL     time.Duration
}

type UserService struct {
	store          repository.Store
	publisher      notifications.Publisher
	bcryptCost     int
	verification   VerificationOptions
	publishTimeout time.Duration
	now            Clock
	pending        sync.WaitGroup
}

func NewUserService(store repository.Store, publisher notifications.Publisher, bcryptCost int, verification VerificationOptions) *UserService {
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	return &UserService{
		store:          store,
		publisher:      publisher,
		bcryptCost:     bcryptCost,
		verification:   verification,
		publishTimeout: defaultPublishTimeout,
		now:            utcNow,
	}
}

// Create stores a new account and, when verification is on, its token in the
// same transaction. The signup message goes out after commit.
func (s *UserService) Create(ctx context.Context, in *validation.NewUserInput) (*models.User, error) {
	digest, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     auth.NormalizeUsername(in.Username),
		PasswordHash: digest,
	}

	var token string
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Users().Create(ctx, user); err != nil {
			return err
		}
		if !s.verification.Enabled {
			return nil
		}
		token = uuid.NewString()
		return tx.Verifications().Create(ctx, &models.EmailVerification{
			Email:     user.Username,
			Token:     token,
			ExpiresAt: s.now().Add(s.verification.TTL),
		})
	})
	if err != nil {
		return nil, err
	}

	if token != "" {
		s.publishSignup(ctx, notifications.NewSignupMessage(user.Username, token))
	}
	return user, nil
}

// publishSignup sends msg in the background. Failures are logged only.
func (s *UserService) publishSignup(ctx context.Context, msg notifications.SignupMessage) {
	fields := map[string]any{"driver": s.publisher.Driver()}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				observability.LogAsyncOperationError(pubCtx, "publish_signup", fmt.Errorf("panic: %v", r), fields)
			}
		}()

		observability.LogAsyncOperationStart(pubCtx, "publish_signup", fields)
		if err := s.publisher.PublishSignup(pubCtx, msg); err != nil {
			observability.LogAsyncOperationError(pubCtx, "publish_signup", err, fields)
			return
		}
		observability.LogAsyncOperationEnd(pubCtx, "publish_signup", fields)
	}()
}

// Wait blocks until background publishes finish.
func (s *UserService) Wait() {
	s.pending.Wait()
}

// Get returns the profile of id if principal is that user.
func (s *UserService) Get(ctx context.Context, principal *auth.Principal, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(principal, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, principal *auth.Principal, id uuid.UUID, in *validation.UserUpdateInput) error {
	user, err := s.Get(ctx, principal, id)
	if err != nil {
		return err
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Password != nil {
		digest, err := auth.HashPassword(*in.Password, s.bcryptCost)
		if err != nil {
			return models.NewInternalError(err)
		}
		user.PasswordHash = digest
	}
	user.AccountUpdated = s.now()

	return s.store.Users().Update(ctx, user)
}
