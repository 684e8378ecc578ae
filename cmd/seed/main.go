// Command seed fills the database with demo accounts and products.
package main

import (
	"context"
	"flag"
	"log"

	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/repository"
	"stockroom/internal/seed"
	"stockroom/internal/storage"
)

func main() {
	users := flag.Int("users", 5, "Number of users to create")
	products := flag.Int("products", 4, "Products per user")
	images := flag.Int("images", 1, "Images per product")
	password := flag.String("password", seed.DefaultPassword, "Password for every seeded user")
	randSeed := flag.Int64("seed", 0, "Fake data seed (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production environment")
	}

	ctx := context.Background()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to configure object store: %v", err)
	}

	s := seed.NewSeeder(repository.NewStore(db), objects, cfg.BcryptCost, *randSeed)
	sum, err := s.Run(ctx, seed.Options{
		Users:            *users,
		ProductsPerUser:  *products,
		ImagesPerProduct: *images,
		Password:         *password,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("seeded %d users, %d products, %d images (password %q)", sum.Users, sum.Products, sum.Images, *password)
}
