// Package seed fills a development database with demo accounts, products
// and images. It goes through the services so seeded rows obey the same
// rules as API traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"stockroom/internal/auth"
	"stockroom/internal/observability"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/storage"
	"stockroom/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "stockroom-demo-pass"

// Options configuration for the seeder
type Options struct {
	Users            int
	ProductsPerUser  int
	ImagesPerProduct int
	Password         string
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Products int
	Images   int
}

// Seeder creates demo data through the application services.
type Seeder struct {
	faker    *gofakeit.Faker
	users    *service.UserService
	products *service.ProductService
	images   *service.ImageService
}

// NewSeeder wires the services over store and objects. Seeded accounts get
// no verification token and no signup message. A zero seed picks a random one.
func NewSeeder(store repository.Store, objects storage.ObjectStore, bcryptCost int, seed int64) *Seeder {
	return &Seeder{
		faker:    gofakeit.New(seed),
		users:    service.NewUserService(store, nil, bcryptCost, service.VerificationOptions{}),
		products: service.NewProductService(store, objects),
		images:   service.NewImageService(store, objects, service.DefaultImageMaxUploadSizeMB),
	}
}

// Run creates opts.Users accounts, each owning opts.ProductsPerUser products
// with opts.ImagesPerProduct placeholder images.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	password := opts.Password
	if password == "" {
		password = DefaultPassword
	}

	for i := 0; i < opts.Users; i++ {
		user, err := s.users.Create(ctx, s.userInput(password))
		if err != nil {
			return sum, fmt.Errorf("seed user %d: %w", i, err)
		}
		sum.Users++
		principal := &auth.Principal{ID: user.ID, Username: user.Username}

		for j := 0; j < opts.ProductsPerUser; j++ {
			product, err := s.products.Create(ctx, principal, s.productInput(j))
			if err != nil {
				return sum, fmt.Errorf("seed product for %s: %w", user.Username, err)
			}
			sum.Products++

			for k := 0; k < opts.ImagesPerProduct; k++ {
				if _, err := s.images.Upload(ctx, principal, product.ID, service.UploadImageInput{
					FileName:    fmt.Sprintf("%s-%d.png", strings.ToLower(product.SKU), k),
					ContentType: "image/png",
					Content:     placeholderPNG,
				}); err != nil {
					return sum, fmt.Errorf("seed image for %s: %w", product.ID, err)
				}
				sum.Images++
			}
		}

		observability.Logger().InfoContext(ctx, "seeded user",
			slog.String("username", user.Username),
			slog.Int("products", opts.ProductsPerUser),
		)
	}
	return sum, nil
}

func (s *Seeder) userInput(password string) *validation.NewUserInput {
	return &validation.NewUserInput{
		FirstName: s.faker.FirstName(),
		LastName:  s.faker.LastName(),
		Username:  fmt.Sprintf("%s.%s@example.com", strings.ToLower(s.faker.Username()), strings.ToLower(s.faker.LetterN(6))),
		Password:  password,
	}
}

func (s *Seeder) productInput(n int) *validation.ProductInput {
	return &validation.ProductInput{
		Name:         s.faker.ProductName(),
		Description:  s.faker.ProductDescription(),
		SKU:          fmt.Sprintf("%s-%04d-%s", strings.ToUpper(s.faker.LetterN(3)), n, s.faker.DigitN(4)),
		Manufacturer: s.faker.Company(),
		Quantity:     s.faker.Number(0, 250),
	}
}

// 1x1 transparent PNG
var placeholderPNG = []byte{
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
