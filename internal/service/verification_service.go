package service

import (
	"context"
	"errors"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/observability"
	"stockroom/internal/repository"
)

var (
	ErrVerificationMissing = models.NewValidationError("missing email or token")
	ErrTokenInvalid        = models.NewValidationError("invalid token")
	ErrTokenUsed           = models.NewValidationError("token already used")
	ErrTokenExpired        = models.NewValidationError("token expired")
)

type VerificationService struct {
	store repository.Store
	now   Clock
}

func NewVerificationService(store repository.Store) *VerificationService {
	return &VerificationService{store: store, now: utcNow}
}

// Consume marks the account behind email verified and burns token. The token
// row stays locked for the whole transaction, so concurrent calls serialize
// and only one succeeds.
func (s *VerificationService) Consume(ctx context.Context, email, token string) (err error) {
	defer func() {
		observability.VerificationOutcomes.WithLabelValues(verificationOutcome(err)).Inc()
	}()

	email = auth.NormalizeUsername(email)
	if email == "" || token == "" {
		return ErrVerificationMissing
	}

	return s.store.WithTx(ctx, func(tx repository.Store) error {
		v, err := tx.Verifications().GetByTokenForUpdate(ctx, token)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		switch {
		case v.Email != email:
			return ErrTokenInvalid
		case v.Consumed:
			return ErrTokenUsed
		case v.Expired(s.now()):
			return ErrTokenExpired
		}

		if err := tx.Users().MarkEmailVerified(ctx, email); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return ErrTokenInvalid
			}
			return err
		}
		if err := tx.Verifications().MarkConsumed(ctx, v.ID); err != nil {
			if errors.Is(err, repository.ErrTokenConsumed) {
				return ErrTokenUsed
			}
			return err
		}
		return nil
	})
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrVerificationMissing):
		return "invalid"
	case errors.Is(err, ErrTokenUsed):
		return "already_used"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "error"
	}
}
