package config

// EnvPrefix is passed to envconfig; every field carries an explicit variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv           = "HYDRUS_APP_ENV"
	EnvPort             = "HYDRUS_APP_PORT"
	EnvDBDSN            = "HYDRUS_DB_DSN"
	EnvDBDriver         = "HYDRUS_DB_DRIVER"
	EnvDBHost           = "HYDRUS_DB_HOST"
	EnvDBUser           = "HYDRUS_DB_USER"
	EnvDBName           = "HYDRUS_DB_NAME"
	EnvRedisURL         = "HYDRUS_REDIS_URL"
	EnvSessionSecret    = "HYDRUS_SESSION_SECRET"
	EnvStripeAPIKey     = "HYDRUS_STRIPE_API_KEY"
	EnvStripeWebhookKey = "HYDRUS_STRIPE_WEBHOOK_SECRET"
	EnvCORSOrigins      = "HYDRUS_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
