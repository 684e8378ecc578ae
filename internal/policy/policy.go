// Package policy decides whether a principal may act on an owned resource.
package policy

import (
	"reflect"

	"stockroom/internal/auth"
	"stockroom/internal/models"

	"github.com/google/uuid"
)

// Owned is any resource bound to a single owning user.
type Owned interface {
	OwnerID() uuid.UUID
}

// Authorize returns nil when principal owns resource. A missing resource is
// NotFound and a foreign one is Forbidden, in that order.
func Authorize(principal *auth.Principal, resource Owned) error {
	if isNil(resource) {
		return models.NewNotFoundError("Resource", nil)
	}
	if principal == nil {
		return models.NewUnauthorizedError("Authorization required")
	}
	if resource.OwnerID() != principal.ID {
		return models.NewForbiddenError("forbidden")
	}
	return nil
}

func isNil(resource Owned) bool {
	if resource == nil {
		return true
	}
	v := reflect.ValueOf(resource)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
