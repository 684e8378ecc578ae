package testutil

import (
	"strings"

	"github.com/brianvoe/gofakeit/v6"
)

// UserPayload is a valid account creation body with fake data.
type UserPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// NewUserPayload returns a unique, valid user body.
func NewUserPayload() UserPayload {
	return UserPayload{
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Username:  strings.ToLower(gofakeit.Username()) + "." + gofakeit.UUID()[:8] + "@example.com",
		Password:  gofakeit.Password(true, true, true, false, false, 14),
	}
}

// ProductPayload is a valid product body with fake data.
type ProductPayload struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SKU          string `json:"sku"`
	Manufacturer string `json:"manufacturer"`
	Quantity     int    `json:"quantity"`
}

// NewProductPayload returns a valid product body with a random SKU.
func NewProductPayload() ProductPayload {
	return ProductPayload{
		Name:         gofakeit.ProductName(),
		Description:  gofakeit.ProductDescription(),
		SKU:          strings.ToUpper(gofakeit.LetterN(3)) + "-" + gofakeit.DigitN(6),
		Manufacturer: gofakeit.Company(),
		Quantity:     gofakeit.Number(0, 500),
	}
}

// PNG is a minimal valid PNG image.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}
