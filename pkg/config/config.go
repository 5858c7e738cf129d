package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Admin         AdminSeedConfig
	Storage       StorageConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Media         MediaConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.GCS); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOMCATALOG_APP_ENV" required:"true"`
	Port         string `envconfig:"BOMCATALOG_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOMCATALOG_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOMCATALOG_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"BOMCATALOG_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOMCATALOG_DB_DSN"`
	Driver string `envconfig:"BOMCATALOG_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOMCATALOG_DB_HOST"`
	LegacyPort     int    `envconfig:"BOMCATALOG_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOMCATALOG_DB_USER"`
	LegacyPassword string `envconfig:"BOMCATALOG_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOMCATALOG_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOMCATALOG_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOMCATALOG_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOMCATALOG_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOMCATALOG_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOMCATALOG_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOMCATALOG_REDIS_URL"`
	Address      string        `envconfig:"BOMCATALOG_REDIS_ADDR"`
	Password     string        `envconfig:"BOMCATALOG_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOMCATALOG_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOMCATALOG_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOMCATALOG_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOMCATALOG_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOMCATALOG_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOMCATALOG_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOMCATALOG_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOMCATALOG_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOMCATALOG_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the lifetime shared by access tokens and their sessions.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOMCATALOG_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOMCATALOG_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOMCATALOG_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOMCATALOG_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOMCATALOG_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BOMCATALOG_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"BOMCATALOG_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"BOMCATALOG_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOMCATALOG_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOMCATALOG_AUTO_MIGRATE" default:"false"`
}

// AdminSeedConfig bootstraps the first administrator when both values are set.
type AdminSeedConfig struct {
	Email    string `envconfig:"BOMCATALOG_ADMIN_EMAIL"`
	Password string `envconfig:"BOMCATALOG_ADMIN_PASSWORD"`
}

func (a AdminSeedConfig) Enabled() bool {
	return strings.TrimSpace(a.Email) != "" && a.Password != ""
}

type StorageConfig struct {
	Backend   string `envconfig:"BOMCATALOG_STORAGE_BACKEND" default:"local"`
	LocalRoot string `envconfig:"BOMCATALOG_MEDIA_ROOT" default:"./data/media"`
}

func (s StorageConfig) IsGCS() bool {
	return strings.EqualFold(strings.TrimSpace(s.Backend), StorageBackendGCS)
}

func (s StorageConfig) validate(gcs GCSConfig) error {
	switch strings.ToLower(strings.TrimSpace(s.Backend)) {
	case StorageBackendLocal:
		if strings.TrimSpace(s.LocalRoot) == "" {
			return fmt.Errorf("%s is required for the local storage backend", EnvMediaRoot)
		}
	case StorageBackendGCS:
		if strings.TrimSpace(gcs.BucketName) == "" {
			return fmt.Errorf("%s is required for the gcs storage backend", EnvGCSBucket)
		}
	default:
		return fmt.Errorf("unsupported storage backend %q", s.Backend)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BOMCATALOG_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"BOMCATALOG_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BOMCATALOG_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"BOMCATALOG_GCS_BUCKET_NAME"`
	Prefix     string `envconfig:"BOMCATALOG_GCS_PREFIX" default:"media"`
}

type MediaConfig struct {
	QuotaBytes  int64 `envconfig:"BOMCATALOG_MEDIA_QUOTA_BYTES" default:"1073741824"`
	MaxUploadMB int   `envconfig:"BOMCATALOG_MAX_UPLOAD_MB" default:"200"`
}

// MaxUploadBytes converts the per-request upload cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"BOMCATALOG_CRON_INTERVAL" default:"1h"`
	LockTTL            time.Duration `envconfig:"BOMCATALOG_CRON_LOCK_TTL" default:"10m"`
	OrphanGracePeriod  time.Duration `envconfig:"BOMCATALOG_CRON_ORPHAN_GRACE" default:"24h"`
	OrphanDeleteBudget int           `envconfig:"BOMCATALOG_CRON_ORPHAN_DELETE_BUDGET" default:"500"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
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
