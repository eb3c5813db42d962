package config

const (
	EnvPrefix = "SERVICEHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SERVICEHUB_APP_ENV"
	EnvPort     = "SERVICEHUB_APP_PORT"
	EnvTimezone = "SERVICEHUB_APP_TIMEZONE"

	EnvDBDSN  = "SERVICEHUB_DB_DSN"
	EnvDBHost = "SERVICEHUB_DB_HOST"
	EnvDBUser = "SERVICEHUB_DB_USER"
	EnvDBName = "SERVICEHUB_DB_NAME"

	EnvRedisURL = "SERVICEHUB_REDIS_URL"

	EnvJWTSecret  = "SERVICEHUB_JWT_SECRET"
	EnvJWTIssuer  = "SERVICEHUB_JWT_ISSUER"
	EnvJWTExpMins = "SERVICEHUB_JWT_EXPIRATION_MINUTES"

	EnvSMTPEnabled = "SERVICEHUB_SMTP_ENABLED"
	EnvSMTPHost    = "SERVICEHUB_SMTP_HOST"
	EnvSMTPFrom    = "SERVICEHUB_SMTP_FROM"

	EnvUseSQLite = "SERVICEHUB_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
