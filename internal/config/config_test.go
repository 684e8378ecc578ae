package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8080",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		AuthScheme:               AuthSchemeBasic,
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		JWTTTL:                   time.Hour,
		BcryptCost:               10,
		EmailVerificationEnabled: true,
		VerificationTTL:          time.Minute,
		NotifyDriver:             NotifyDriverNone,
		S3Bucket:                 "images",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown auth scheme", func(c *Config) { c.AuthScheme = "digest" }},
		{"unknown notify driver", func(c *Config) { c.NotifyDriver = "sns" }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }},
		{"verification ttl zero", func(c *Config) { c.VerificationTTL = 0 }},
		{"bearer without secret", func(c *Config) { c.AuthScheme = AuthSchemeBearer; c.JWTSecret = "" }},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.AuthScheme = AuthSchemeBearer
			c.JWTSecret = defaultJWTSecret
		}},
		{"production without bucket", func(c *Config) { c.Env = "production"; c.S3Bucket = "" }},
		{"production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := validConfig()
	c.DBHost = "db"
	c.DBPort = "5432"
	c.DBUser = "app"
	c.DBName = "stockroom"
	c.DBSSLMode = ""
	assert.Equal(t, "host=db port=5432 user=app password=secure-password dbname=stockroom sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://app@db/stockroom"
	assert.Equal(t, "postgres://app@db/stockroom", c.DSN())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("AUTH_SCHEME", "Bearer")
	t.Setenv("VERIFICATION_TTL", "2m")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, AuthSchemeBearer, c.AuthScheme)
	assert.Equal(t, 2*time.Minute, c.VerificationTTL)
	assert.False(t, c.EmailVerificationEnabled, "verification defaults off in test")
	assert.Equal(t, NotifyDriverNone, c.NotifyDriver)
}
