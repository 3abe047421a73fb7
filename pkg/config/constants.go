package config

const (
	EnvPrefix = "AGROMARKET"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	EnvAppEnv   = "AGROMARKET_APP_ENV"
	EnvPort     = "AGROMARKET_APP_PORT"
	EnvLogLevel = "AGROMARKET_LOG_LEVEL"

	EnvDBDSN  = "AGROMARKET_DB_DSN"
	EnvDBHost = "AGROMARKET_DB_HOST"
	EnvDBUser = "AGROMARKET_DB_USER"
	EnvDBName = "AGROMARKET_DB_NAME"

	EnvRedisURL = "AGROMARKET_REDIS_URL"

	EnvSessionCookieName     = "AGROMARKET_SESSION_COOKIE_NAME"
	EnvSessionCookieSecure   = "AGROMARKET_SESSION_COOKIE_SECURE"
	EnvSessionCookieSameSite = "AGROMARKET_SESSION_COOKIE_SAMESITE"
	EnvSessionIdleTimeout    = "AGROMARKET_SESSION_IDLE_TIMEOUT"

	EnvStorageBucket    = "AGROMARKET_STORAGE_BUCKET"
	EnvStorageAccessKey = "AGROMARKET_STORAGE_ACCESS_KEY"
	EnvStorageSecretKey = "AGROMARKET_STORAGE_SECRET_KEY"

	EnvCORSAllowedOrigins = "AGROMARKET_CORS_ALLOWED_ORIGINS"
	EnvUseSQLite          = "AGROMARKET_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
