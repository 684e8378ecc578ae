// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Supported authentication schemes.
const (
	AuthSchemeBasic  = "basic"
	AuthSchemeBearer = "bearer"
)

// Supported notification drivers.
const (
	NotifyDriverNone  = "none"
	NotifyDriverNATS  = "nats"
	NotifyDriverRedis = "redis"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"APP_ENV"`
	ServiceName string `mapstructure:"SERVICE_NAME"`

	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	DBHost          string `mapstructure:"DB_HOST"`
	DBPort          string `mapstructure:"DB_PORT"`
	DBUser          string `mapstructure:"DB_USER"`
	DBPassword      string `mapstructure:"DB_PASSWORD"`
	DBName          string `mapstructure:"DB_NAME"`
	DBSSLMode       string `mapstructure:"DB_SSLMODE"`
	DBMaxOpenConns  int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns  int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBRunMigrations bool   `mapstructure:"DB_RUN_MIGRATIONS"`

	AuthScheme  string        `mapstructure:"AUTH_SCHEME"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTIssuer   string        `mapstructure:"JWT_ISSUER"`
	JWTAudience string        `mapstructure:"JWT_AUDIENCE"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL"`
	BcryptCost  int           `mapstructure:"BCRYPT_COST"`

	EmailVerificationEnabled bool          `mapstructure:"EMAIL_VERIFICATION_ENABLED"`
	VerificationTTL          time.Duration `mapstructure:"VERIFICATION_TTL"`
	NotifyDriver             string        `mapstructure:"NOTIFY_DRIVER"`
	NotifySubject            string        `mapstructure:"NOTIFY_SUBJECT"`
	NATSURL                  string        `mapstructure:"NATS_URL"`
	RedisURL                 string        `mapstructure:"REDIS_URL"`

	S3Bucket             string `mapstructure:"S3_BUCKET"`
	S3Region             string `mapstructure:"S3_REGION"`
	S3Endpoint           string `mapstructure:"S3_ENDPOINT"`
	S3AccessKey          string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey          string `mapstructure:"S3_SECRET_KEY"`
	S3UsePathStyle       bool   `mapstructure:"S3_USE_PATH_STYLE"`
	ImageMaxUploadSizeMB int    `mapstructure:"IMAGE_MAX_UPLOAD_SIZE_MB"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	// The base file is optional
	_ = v.ReadInConfig()

	env := v.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		v.SetConfigName("config." + env)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read profile config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	setDefaults(v, env)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper, env string) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_NAME", "stockroom-api")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "stockroom")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_RUN_MIGRATIONS", true)
	v.SetDefault("AUTH_SCHEME", AuthSchemeBasic)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "stockroom-api")
	v.SetDefault("JWT_AUDIENCE", "stockroom-client")
	v.SetDefault("JWT_TTL", time.Hour)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("EMAIL_VERIFICATION_ENABLED", env != "test")
	v.SetDefault("VERIFICATION_TTL", time.Minute)
	v.SetDefault("NOTIFY_DRIVER", NotifyDriverNone)
	v.SetDefault("NOTIFY_SUBJECT", "user.signup")
	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_USE_PATH_STYLE", false)
	v.SetDefault("IMAGE_MAX_UPLOAD_SIZE_MB", 10)
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_EXPORTER", "stdout")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	v.SetDefault("OTLP_ENDPOINT", "localhost:4318")
}

func (c *Config) normalize() {
	c.AuthScheme = strings.ToLower(strings.TrimSpace(c.AuthScheme))
	c.NotifyDriver = strings.ToLower(strings.TrimSpace(c.NotifyDriver))
	c.DBSSLMode = strings.ToLower(strings.TrimSpace(c.DBSSLMode))
	if c.NotifyDriver == "" {
		c.NotifyDriver = NotifyDriverNone
	}
}

// IsProduction reports whether the app runs with production rules.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	sslMode := c.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, sslMode,
	)
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}

	switch c.AuthScheme {
	case AuthSchemeBasic, AuthSchemeBearer:
	default:
		return fmt.Errorf("AUTH_SCHEME must be %q or %q, got %q", AuthSchemeBasic, AuthSchemeBearer, c.AuthScheme)
	}

	switch c.NotifyDriver {
	case NotifyDriverNone, NotifyDriverNATS, NotifyDriverRedis:
	default:
		return fmt.Errorf("NOTIFY_DRIVER must be one of none, nats, redis, got %q", c.NotifyDriver)
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("BCRYPT_COST must be between 4 and 31")
	}
	if c.EmailVerificationEnabled && c.VerificationTTL <= 0 {
		return errors.New("VERIFICATION_TTL must be positive")
	}

	if c.AuthScheme == AuthSchemeBearer {
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET is required")
		}
		if c.JWTTTL <= 0 {
			return errors.New("JWT_TTL must be positive")
		}
	}

	// Strict checks for production
	if c.IsProduction() {
		if c.AuthScheme == AuthSchemeBearer {
			if c.JWTSecret == defaultJWTSecret {
				return errors.New("JWT_SECRET must be changed from the default value in production")
			}
			if len(c.JWTSecret) < 32 {
				return errors.New("JWT_SECRET must be at least 32 characters in production")
			}
		}
		if c.DatabaseURL == "" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET is required in production")
		}
		if c.DatabaseURL == "" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must enable SSL in production")
		}
	} else if c.AuthScheme == AuthSchemeBearer && len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
