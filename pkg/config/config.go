package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Assistant    AssistantConfig
	Checkout     CheckoutConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if cfg.Assistant.Enabled && strings.TrimSpace(cfg.Assistant.APIKey) == "" {
		return nil, fmt.Errorf("%s is required when the assistant is enabled", EnvGeminiAPIKey)
	}
	if cfg.Checkout.ShippingFee < 0 || cfg.Checkout.FreeShippingThreshold < 0 {
		return nil, fmt.Errorf("checkout shipping settings must be non-negative")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for browser clients.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"STOREFRONT_DB_DSN"`
	SQLitePath string `envconfig:"STOREFRONT_DB_SQLITE_PATH" default:"storefront.db"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a Postgres DSN from the discrete host settings when no
// DSN was provided. SQLite mode never needs one.
func (d *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite || strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	var missing []string
	for key, val := range map[string]string{
		EnvDBHost: d.LegacyHost,
		EnvDBUser: d.LegacyUser,
		EnvDBName: d.LegacyName,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s or %s must be set", EnvDBDSN, strings.Join(legacyDBEnvVars, "/"))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.LegacyUser, d.LegacyPassword),
		Host:   fmt.Sprintf("%s:%d", d.LegacyHost, d.LegacyPort),
		Path:   "/" + d.LegacyName,
	}
	q := u.Query()
	q.Set("sslmode", d.LegacySSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the verification settings for tokens minted by the
// external identity provider. The API never issues tokens itself.
type JWTConfig struct {
	Secret   string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"STOREFRONT_JWT_ISSUER"`
	Audience string `envconfig:"STOREFRONT_JWT_AUDIENCE" default:"authenticated"`
}

type AssistantConfig struct {
	Enabled     bool          `envconfig:"STOREFRONT_ASSISTANT_ENABLED" default:"true"`
	APIKey      string        `envconfig:"STOREFRONT_GEMINI_API_KEY"`
	Model       string        `envconfig:"STOREFRONT_GEMINI_MODEL" default:"gemini-2.5-flash-lite"`
	Temperature float32       `envconfig:"STOREFRONT_GEMINI_TEMPERATURE" default:"0.2"`
	TurnTimeout time.Duration `envconfig:"STOREFRONT_ASSISTANT_TURN_TIMEOUT" default:"60s"`
	MaxMessages int           `envconfig:"STOREFRONT_ASSISTANT_MAX_MESSAGES" default:"50"`
}

type CheckoutConfig struct {
	FreeShippingThreshold float64 `envconfig:"STOREFRONT_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50"`
	ShippingFee           float64 `envconfig:"STOREFRONT_CHECKOUT_SHIPPING_FEE" default:"5"`
}

type CartConfig struct {
	DeviceTTL time.Duration `envconfig:"STOREFRONT_CART_DEVICE_TTL" default:"720h"`
}

type RateLimitConfig struct {
	ChatWindow time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_CHAT_WINDOW" default:"1m"`
	ChatLimit  int           `envconfig:"STOREFRONT_RATE_LIMIT_CHAT_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
	OrdersSubscription string `envconfig:"STOREFRONT_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}
