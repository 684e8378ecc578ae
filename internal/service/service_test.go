package service

import (
	"testing"

	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testCost = bcrypt.MinCost

type authPrincipal = auth.Principal

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}

func newPrincipal() *auth.Principal {
	return &auth.Principal{ID: uuid.New(), Username: uuid.NewString()[:8] + "@example.com"}
}

func productInput(sku string, quantity int) *validation.ProductInput {
	return &validation.ProductInput{
		Name:         "Widget",
		Description:  "A widget",
		SKU:          sku,
		Manufacturer: "Acme",
		Quantity:     quantity,
	}
}

func ptr[T any](v T) *T { return &v }
