package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars. It is loaded once at start and not mutated.
type Config struct {
	Port     string `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
	// LogFormat is "json" or "console".
	LogFormat string `env:"LOG_FORMAT,default=json"`

	StoreDriver     string `env:"STORE_DRIVER,default=postgres"`
	DatabaseURL     string `env:"DATABASE_URL"`
	AutoMigrate     bool   `env:"AUTO_MIGRATE,default=true"`
	MongoURI        string `env:"MONGO_URI"`
	MongoDatabase   string `env:"MONGO_DATABASE,default=storefront"`
	MongoCollection string `env:"MONGO_USERS_COLLECTION,default=users"`

	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER,default=storefront-backend"`
	// SessionTTL bounds both the signed token and the cookie carrying it.
	SessionTTL     time.Duration `env:"SESSION_TTL,default=720h"`
	BcryptCost     int           `env:"BCRYPT_COST,default=10"`
	AdminCookie    string        `env:"ADMIN_COOKIE_NAME,default=authToken"`
	CustomerCookie string        `env:"CUSTOMER_COOKIE_NAME,default=userAuth"`
	CookieDomain   string        `env:"COOKIE_DOMAIN"`
	CookieSecure   bool          `env:"COOKIE_SECURE,default=true"`

	LoginMaxAttempts int           `env:"LOGIN_MAX_ATTEMPTS,default=10"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW,default=1m"`
	RedisURL         string        `env:"REDIS_URL"`
	RequestsPerMin   int           `env:"RATE_LIMIT_PER_MINUTE,default=300"`
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS,default=false"`

	CORSOrigins  []string `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:3000"`
	OTLPEndpoint string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	BootstrapAdminName     string `env:"BOOTSTRAP_ADMIN_NAME,default=Administrator"`
	BootstrapAdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from the environment and performs minimal validation.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case DriverMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.AdminCookie == "" || c.CustomerCookie == "" || c.AdminCookie == c.CustomerCookie {
		return errors.New("admin and customer cookie names must be set and distinct")
	}
	if c.LoginMaxAttempts <= 0 || c.LoginWindow <= 0 {
		return errors.New("LOGIN_MAX_ATTEMPTS and LOGIN_WINDOW must be positive")
	}
	if (c.BootstrapAdminEmail == "") != (c.BootstrapAdminPassword == "") {
		return errors.New("BOOTSTRAP_ADMIN_EMAIL and BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}
	return nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}
