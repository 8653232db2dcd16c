package config

// EnvPrefix is applied by envconfig to every field without an explicit tag.
const EnvPrefix = "SHOPQR"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "SHOPQR_APP_ENV"
	EnvPort   = "SHOPQR_APP_PORT"
	EnvAppURL = "SHOPQR_APP_URL"

	EnvDBDSN  = "SHOPQR_DB_DSN"
	EnvDBHost = "SHOPQR_DB_HOST"
	EnvDBUser = "SHOPQR_DB_USER"
	EnvDBName = "SHOPQR_DB_NAME"

	EnvRedisURL = "SHOPQR_REDIS_URL"

	EnvShopifyAPIKey     = "SHOPQR_SHOPIFY_API_KEY"
	EnvShopifyAPISecret  = "SHOPQR_SHOPIFY_API_SECRET"
	EnvShopifyAPIVersion = "SHOPQR_SHOPIFY_API_VERSION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
