package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Checkout CheckoutConfig
	Stripe   StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FURNHAUS_APP_ENV" required:"true"`
	Port         string `envconfig:"FURNHAUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FURNHAUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FURNHAUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FURNHAUS_DB_DSN"`
	Driver string `envconfig:"FURNHAUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FURNHAUS_DB_HOST"`
	LegacyPort     int    `envconfig:"FURNHAUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FURNHAUS_DB_USER"`
	LegacyPassword string `envconfig:"FURNHAUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FURNHAUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FURNHAUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FURNHAUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FURNHAUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FURNHAUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FURNHAUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"FURNHAUS_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FURNHAUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FURNHAUS_REDIS_ADDR"`
	Password     string        `envconfig:"FURNHAUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FURNHAUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FURNHAUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FURNHAUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FURNHAUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FURNHAUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FURNHAUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"FURNHAUS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"FURNHAUS_JWT_ISSUER" required:"true"`
}

// CheckoutConfig carries the fixed-rate money knobs applied per vendor order.
type CheckoutConfig struct {
	TaxRate          string `envconfig:"FURNHAUS_CHECKOUT_TAX_RATE" default:"0.08"`
	ShippingFeeCents int64  `envconfig:"FURNHAUS_CHECKOUT_SHIPPING_FEE_CENTS" default:"1500"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"FURNHAUS_STRIPE_API_KEY"`
	WebhookSecret string        `envconfig:"FURNHAUS_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"FURNHAUS_STRIPE_ENV" default:"test"`
	CallTimeout   time.Duration `envconfig:"FURNHAUS_STRIPE_CALL_TIMEOUT" default:"15s"`

	// AllowUnverifiedWebhooks lets the webhook endpoint accept unsigned events.
	// Only honored outside prod; startup logs a loud warning when it is on.
	AllowUnverifiedWebhooks bool `envconfig:"FURNHAUS_STRIPE_ALLOW_UNVERIFIED_WEBHOOKS" default:"false"`

	WebhookEventTTL time.Duration `envconfig:"FURNHAUS_STRIPE_WEBHOOK_EVENT_TTL" default:"720h"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
