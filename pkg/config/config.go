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
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	QR           QRConfig
	ScanLimit    ScanRateLimitConfig
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
	if err := cfg.Shopify.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPQR_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPQR_APP_PORT" required:"true"`
	URL          string `envconfig:"SHOPQR_APP_URL" required:"true"`
	LogLevel     string `envconfig:"SHOPQR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPQR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BaseURL returns the public app URL without a trailing slash.
func (a AppConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.URL), "/")
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPQR_DB_DSN"`
	Driver string `envconfig:"SHOPQR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPQR_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPQR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPQR_DB_USER"`
	LegacyPassword string `envconfig:"SHOPQR_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPQR_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPQR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPQR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPQR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPQR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPQR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPQR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPQR_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPQR_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPQR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPQR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPQR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPQR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPQR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPQR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// ShopifyConfig carries the embedded-app credentials. Session tokens minted
// by App Bridge are HS256 JWTs signed with the API secret and addressed to
// the API key.
type ShopifyConfig struct {
	APIKey      string `envconfig:"SHOPQR_SHOPIFY_API_KEY" required:"true"`
	APISecret   string `envconfig:"SHOPQR_SHOPIFY_API_SECRET" required:"true"`
	AdminToken  string `envconfig:"SHOPQR_SHOPIFY_ADMIN_TOKEN"`
	APIVersion  string `envconfig:"SHOPQR_SHOPIFY_API_VERSION" default:"2024-07"`
	GraphQLBase string `envconfig:"SHOPQR_SHOPIFY_GRAPHQL_BASE"`
}

func (s ShopifyConfig) validate() error {
	if strings.TrimSpace(s.APIVersion) == "" {
		return fmt.Errorf("%s cannot be blank", EnvShopifyAPIVersion)
	}
	return nil
}

type QRConfig struct {
	ImageSize int `envconfig:"SHOPQR_QR_IMAGE_SIZE" default:"256"`
}

type ScanRateLimitConfig struct {
	Window  time.Duration `envconfig:"SHOPQR_SCAN_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit int           `envconfig:"SHOPQR_SCAN_RATE_LIMIT_IP_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPQR_AUTO_MIGRATE" default:"false"`
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
