package config

const EnvPrefix = "hooter"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv            = "HOOTER_APP_ENV"
	EnvPort              = "HOOTER_APP_PORT"
	EnvDBDSN             = "HOOTER_DB_DSN"
	EnvDBHost            = "HOOTER_DB_HOST"
	EnvDBUser            = "HOOTER_DB_USER"
	EnvDBName            = "HOOTER_DB_NAME"
	EnvRedisURL          = "HOOTER_REDIS_URL"
	EnvJWTSecret         = "HOOTER_JWT_SECRET"
	EnvJWTIssuer         = "HOOTER_JWT_ISSUER"
	EnvJWTExpMins        = "HOOTER_JWT_EXPIRATION_MINUTES"
	EnvVaultSecretKey    = "HOOTER_VAULT_SECRET_KEY"
	EnvShopifyWebhookKey = "HOOTER_SHOPIFY_WEBHOOK_SECRET"
	EnvShopifyAPIVersion = "HOOTER_SHOPIFY_API_VERSION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
