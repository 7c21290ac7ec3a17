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
	Vault        VaultConfig
	Shopify      ShopifyConfig
	Retry        RetryConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"HOOTER_APP_ENV" required:"true"`
	Port         string `envconfig:"HOOTER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HOOTER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOOTER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOOTER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOOTER_DB_DSN"`
	Driver string `envconfig:"HOOTER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOOTER_DB_HOST"`
	LegacyPort     int    `envconfig:"HOOTER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOOTER_DB_USER"`
	LegacyPassword string `envconfig:"HOOTER_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOOTER_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOOTER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOOTER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOOTER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOOTER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOOTER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOOTER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOOTER_REDIS_ADDR"`
	Password     string        `envconfig:"HOOTER_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOOTER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOOTER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOOTER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOOTER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOOTER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOOTER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HOOTER_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HOOTER_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HOOTER_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime configured in minutes.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type VaultConfig struct {
	SecretKey string `envconfig:"HOOTER_VAULT_SECRET_KEY" required:"true"`
}

type ShopifyConfig struct {
	APIVersion      string        `envconfig:"HOOTER_SHOPIFY_API_VERSION" default:"2024-07"`
	WebhookSecret   string        `envconfig:"HOOTER_SHOPIFY_WEBHOOK_SECRET" required:"true"`
	GraphQLTimeout  time.Duration `envconfig:"HOOTER_SHOPIFY_GRAPHQL_TIMEOUT" default:"15s"`
	RESTTimeout     time.Duration `envconfig:"HOOTER_SHOPIFY_REST_TIMEOUT" default:"30s"`
	ImageTimeout    time.Duration `envconfig:"HOOTER_SHOPIFY_IMAGE_TIMEOUT" default:"5s"`
	ThrottleReserve float64       `envconfig:"HOOTER_SHOPIFY_THROTTLE_RESERVE" default:"0.1"`
}

type RetryConfig struct {
	MaxAttempts int           `envconfig:"HOOTER_RETRY_MAX_ATTEMPTS" default:"3"`
	BaseDelay   time.Duration `envconfig:"HOOTER_RETRY_BASE_DELAY" default:"2s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOOTER_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOOTER_AUTO_MIGRATE" default:"false"`
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
