package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMap(t *testing.T, env map[string]string) (Config, error) {
	t.Helper()
	return load(context.Background(), envconfig.MapLookuper(env))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"JWT_SECRET":   "s3cret",
		"DATABASE_URL": "postgres://localhost/storefront",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "storefront-backend", cfg.JWTIssuer)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "authToken", cfg.AdminCookie)
	assert.Equal(t, "userAuth", cfg.CustomerCookie)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 10, cfg.LoginMaxAttempts)
	assert.Equal(t, time.Minute, cfg.LoginWindow)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.TrustProxyHeaders)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := loadMap(t, map[string]string{
		"JWT_SECRET":           "s3cret",
		"STORE_DRIVER":         "Mongo",
		"MONGO_URI":            "mongodb://localhost:27017",
		"SESSION_TTL":          "24h",
		"COOKIE_SECURE":        "false",
		"TRUST_PROXY_HEADERS":  "true",
		"CORS_ALLOWED_ORIGINS": "https://shop.example.com,https://admin.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.TrustProxyHeaders)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"DATABASE_URL": "x"}, "JWT_SECRET is required"},
		{"missing database url", map[string]string{"JWT_SECRET": "s"}, "DATABASE_URL is required"},
		{"missing mongo uri", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "mongo"}, "MONGO_URI is required"},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}, "unknown STORE_DRIVER"},
		{"shared cookie", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "ADMIN_COOKIE_NAME": "sid", "CUSTOMER_COOKIE_NAME": "sid"}, "distinct"},
		{"half bootstrap", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "BOOTSTRAP_ADMIN_EMAIL": "root@x.com"}, "set together"},
		{"bad ttl", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "memory", "SESSION_TTL": "-1h"}, "SESSION_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMap(t, tt.env)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
