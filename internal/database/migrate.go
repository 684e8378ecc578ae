package database

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"stockroom/internal/middleware"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const migrationsDir = "migrations"

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	middleware.Logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	middleware.Logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func setupGoose() error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations applies all pending migrations.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// RollbackMigration migrates down until version is the latest applied one.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int64) error {
	if err := setupGoose(); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err := goose.DownToContext(ctx, sqlDB, migrationsDir, version); err != nil {
		return fmt.Errorf("rollback to %d: %w", version, err)
	}
	return nil
}

// MigrationStatus logs the state of every known migration and returns the current version.
func MigrationStatus(ctx context.Context, db *gorm.DB) (int64, error) {
	if err := setupGoose(); err != nil {
		return 0, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return 0, err
	}
	if err := goose.StatusContext(ctx, sqlDB, migrationsDir); err != nil {
		return 0, fmt.Errorf("migration status: %w", err)
	}
	return goose.GetDBVersionContext(ctx, sqlDB)
}
