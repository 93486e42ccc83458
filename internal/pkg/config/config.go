package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ManuelReschke/ComplyTrack/internal/pkg/entitlements"
)

type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"prod"`
	Host           string        `env:"APP_HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"APP_PORT" envDefault:"8080"`
	PublicURL      string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimitMax   int           `env:"RATE_LIMIT_MAX" envDefault:"120"`
	LockTTL        time.Duration `env:"LOCK_TTL" envDefault:"15s"`

	Database Database `envPrefix:"DB_"`
	Cache    Cache    `envPrefix:"CACHE_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Pilot    Pilot    `envPrefix:"PILOT_"`
	Metrics  Metrics  `envPrefix:"METRICS_"`
}

type Database struct {
	// Driver is "mysql" or "sqlite". sqlite is meant for local development and tests.
	Driver   string `env:"DRIVER" envDefault:"mysql"`
	Path     string `env:"PATH" envDefault:"complytrack.db"`
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT" envDefault:"3306"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"complytrack"`
}

// DSN returns the go-sql-driver/mysql data source name.
func (d Database) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL returns the golang-migrate database URL.
func (d Database) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type Cache struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
}

func (c Cache) Addr() string {
	return c.Host + ":" + c.Port
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	// PriceMap seeds the price to plan table, e.g. "price_123=professional:monthly,price_456=professional:yearly".
	PriceMap string `env:"PRICE_MAP"`
}

// Metrics protects /metrics with basic auth when a password is set.
type Metrics struct {
	User     string `env:"USER" envDefault:"admin"`
	Password string `env:"PASSWORD"`
}

type Pilot struct {
	TrialDays     int   `env:"TRIAL_DAYS" envDefault:"15"`
	LockAfterDays int   `env:"LOCK_AFTER_DAYS" envDefault:"30"`
	AssetQuota    int64 `env:"ASSET_QUOTA" envDefault:"50"`
}

// Policy converts the pilot settings into the entitlement policy.
func (p Pilot) Policy() entitlements.Policy {
	return entitlements.Policy{
		TrialDays:     p.TrialDays,
		LockAfterDays: p.LockAfterDays,
		PilotQuota:    p.AssetQuota,
	}.Normalize()
}

// Load parses the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
