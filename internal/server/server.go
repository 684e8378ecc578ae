// Package server contains the HTTP handlers and routing for the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockroom/internal/auth"
	"stockroom/internal/config"
	"stockroom/internal/database"
	"stockroom/internal/middleware"
	"stockroom/internal/models"
	"stockroom/internal/notifications"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Deps are the already-initialized collaborators of a Server.
type Deps struct {
	// DB is optional. When set it backs Store and the readiness probe.
	DB        *gorm.DB
	Store     repository.Store
	Objects   storage.ObjectStore
	Publisher notifications.Publisher
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	store          repository.Store
	objects        storage.ObjectStore
	publisher      notifications.Publisher
	authenticator  auth.Authenticator
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userService         *service.UserService
	productService      *service.ProductService
	imageService        *service.ImageService
	verificationService *service.VerificationService
	tokenService        *service.TokenService
}

// NewServer connects to the database, object store and message bus described by cfg.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	if cfg.DBRunMigrations {
		if err := database.RunMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
	}

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := notifications.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}

	return NewServerWithDeps(cfg, Deps{
		DB:        db,
		Objects:   objects,
		Publisher: publisher,
	})
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when the caller owns the connections.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	store := deps.Store
	if store == nil {
		if deps.DB == nil {
			return nil, errors.New("server needs a store or a database")
		}
		store = repository.NewStore(deps.DB)
	}
	objects := deps.Objects
	if objects == nil {
		objects = storage.NewMemoryStore("local")
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		store:          store,
		objects:        objects,
		publisher:      publisher,
		promMiddleware: middleware.InitMetrics(cfg.ServiceName),
	}

	basic := auth.NewBasicAuthenticator(store.Users())
	switch cfg.AuthScheme {
	case config.AuthSchemeBearer:
		tokens := auth.NewTokenManager(auth.TokenConfig{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      cfg.JWTTTL,
		})
		s.authenticator = auth.NewBearerAuthenticator(tokens)
		s.tokenService = service.NewTokenService(basic, tokens)
	default:
		s.authenticator = basic
	}

	s.userService = service.NewUserService(store, publisher, cfg.BcryptCost, service.VerificationOptions{
		Enabled: cfg.EmailVerificationEnabled,
		TTL:     cfg.VerificationTTL,
	})
	s.productService = service.NewProductService(store, objects)
	s.imageService = service.NewImageService(store, objects, cfg.ImageMaxUploadSizeMB)
	s.verificationService = service.NewVerificationService(store)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/healthz", s.LivenessCheck)
	app.Get("/cicd", s.LivenessCheck)
	app.Get("/readyz", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Get("/validateEmail", s.ValidateEmail)

	requireJSON := middleware.RequireJSON()
	authRequired := middleware.AuthRequired(s.authenticator)

	v1 := app.Group("/v1")

	// Content type is checked before credentials on every JSON write.
	v1.Post("/user", requireJSON, s.CreateUser)
	v1.Get("/user/:id", authRequired, s.GetUser)
	v1.Put("/user/:id", requireJSON, authRequired, s.UpdateUser)

	v1.Post("/product", requireJSON, authRequired, s.CreateProduct)
	v1.Get("/product/:id", s.GetProduct)
	v1.Put("/product/:id", requireJSON, authRequired, s.ReplaceProduct)
	v1.Patch("/product/:id", requireJSON, authRequired, s.PatchProduct)
	v1.Delete("/product/:id", authRequired, s.DeleteProduct)

	v1.Post("/product/:id/image", authRequired, s.UploadImage)
	v1.Get("/product/:id/image", authRequired, s.ListImages)
	v1.Get("/product/:id/image/:imageId", authRequired, s.GetImage)
	v1.Delete("/product/:id/image/:imageId", authRequired, s.DeleteImage)

	if s.tokenService != nil {
		v1.Post("/auth/token", requireJSON, s.IssueToken)
	}
}

// App builds the Fiber app on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	maxUpload := int(s.imageService.MaxUploadBytes())
	app := fiber.New(fiber.Config{
		AppName:      "Stockroom API",
		BodyLimit:    maxUpload + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.app = app
	return app
}

// errorHandler maps errors that escape handlers to the standard error body.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
		case fe.Code < fiber.StatusInternalServerError:
			return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
		}
	}
	return s.respondError(c, err)
}

// LivenessCheck answers 200 with an empty body while the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
	c.Status(fiber.StatusOK)
	return nil
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	check := func(err error) string {
		if err != nil {
			return "unhealthy"
		}
		return "healthy"
	}

	dbStatus := "skipped"
	if s.db != nil {
		dbStatus = check(database.Ping(ctx, s.db))
	}
	objectStatus := check(s.objects.Ping(ctx))
	notifierStatus := check(s.publisher.Ping(ctx))

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || objectStatus == "unhealthy" || notifierStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database":     dbStatus,
			"object_store": objectStatus,
			"notifier":     notifierStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, waits for in-flight signup messages
// and closes the connections.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	done := make(chan struct{})
	go func() {
		s.userService.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		middleware.Logger.Warn("gave up waiting for pending notifications")
	}

	if err := s.publisher.Close(); err != nil {
		middleware.Logger.Error("error closing publisher", slog.String("error", err.Error()))
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
