package config

const EnvPrefix = "STOCKPLACE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "STOCKPLACE_APP_ENV"
	EnvPort       = "STOCKPLACE_APP_PORT"
	EnvDBDSN      = "STOCKPLACE_DB_DSN"
	EnvDBHost     = "STOCKPLACE_DB_HOST"
	EnvDBUser     = "STOCKPLACE_DB_USER"
	EnvDBName     = "STOCKPLACE_DB_NAME"
	EnvRedisURL   = "STOCKPLACE_REDIS_URL"
	EnvJWTSecret  = "STOCKPLACE_JWT_SECRET"
	EnvJWTIssuer  = "STOCKPLACE_JWT_ISSUER"
	EnvJWTExpMins = "STOCKPLACE_JWT_EXPIRATION_MINUTES"

	EnvStripeSecretKey     = "STOCKPLACE_STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STOCKPLACE_STRIPE_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
