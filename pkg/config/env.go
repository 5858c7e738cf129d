package config

const (
	EnvPrefix = "BOMCATALOG"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageBackendLocal = "local"
	StorageBackendGCS   = "gcs"

	DefaultSQLiteDSN = "file:bomcatalog.db?_foreign_keys=on"
)

const (
	EnvAppEnv   = "BOMCATALOG_APP_ENV"
	EnvPort     = "BOMCATALOG_APP_PORT"
	EnvLogLevel = "BOMCATALOG_LOG_LEVEL"

	EnvDBDSN  = "BOMCATALOG_DB_DSN"
	EnvDBHost = "BOMCATALOG_DB_HOST"
	EnvDBUser = "BOMCATALOG_DB_USER"
	EnvDBName = "BOMCATALOG_DB_NAME"

	EnvRedisURL = "BOMCATALOG_REDIS_URL"

	EnvJWTSecret  = "BOMCATALOG_JWT_SECRET"
	EnvJWTIssuer  = "BOMCATALOG_JWT_ISSUER"
	EnvJWTExpMins = "BOMCATALOG_JWT_EXPIRATION_MINUTES"

	EnvUseSQLite   = "BOMCATALOG_USE_SQLITE"
	EnvAutoMigrate = "BOMCATALOG_AUTO_MIGRATE"

	EnvStorageBackend = "BOMCATALOG_STORAGE_BACKEND"
	EnvMediaRoot      = "BOMCATALOG_MEDIA_ROOT"
	EnvGCSBucket      = "BOMCATALOG_GCS_BUCKET_NAME"

	EnvMediaQuotaBytes = "BOMCATALOG_MEDIA_QUOTA_BYTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
