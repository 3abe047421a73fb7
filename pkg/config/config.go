package config

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	Session       SessionConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Storage       StorageConfig
	Media         MediaConfig
	Admin         AdminConfig
	CORS          CORSConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGROMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"AGROMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGROMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGROMARKET_LOG_WARN_STACK" default:"false"`

	ReadTimeout     time.Duration `envconfig:"AGROMARKET_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"AGROMARKET_HTTP_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"AGROMARKET_HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"AGROMARKET_HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"AGROMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"AGROMARKET_DB_DSN"`
	Driver string `envconfig:"AGROMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGROMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"AGROMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGROMARKET_DB_USER"`
	LegacyPassword string `envconfig:"AGROMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGROMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGROMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGROMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGROMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGROMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGROMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

// RedisConfig is optional; an empty URL and address disables the session
// cache, the auth rate limiter and the distributed cron lock.
type RedisConfig struct {
	URL          string        `envconfig:"AGROMARKET_REDIS_URL"`
	Address      string        `envconfig:"AGROMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"AGROMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGROMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGROMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGROMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGROMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGROMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGROMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type SessionConfig struct {
	CookieName     string        `envconfig:"AGROMARKET_SESSION_COOKIE_NAME" default:"AgroMarket.Session"`
	CookieDomain   string        `envconfig:"AGROMARKET_SESSION_COOKIE_DOMAIN"`
	CookieSecure   bool          `envconfig:"AGROMARKET_SESSION_COOKIE_SECURE" default:"true"`
	CookieSameSite string        `envconfig:"AGROMARKET_SESSION_COOKIE_SAMESITE" default:"none"`
	IdleTimeout    time.Duration `envconfig:"AGROMARKET_SESSION_IDLE_TIMEOUT" default:"30m"`
	CacheEnabled   bool          `envconfig:"AGROMARKET_SESSION_CACHE_ENABLED" default:"true"`
}

// SameSiteMode maps the configured value onto net/http's enum.
func (s SessionConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s.CookieSameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

func (s SessionConfig) validate() error {
	if strings.TrimSpace(s.CookieName) == "" {
		return fmt.Errorf("%s must not be empty", EnvSessionCookieName)
	}
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvSessionIdleTimeout)
	}
	// browsers drop SameSite=None cookies that are not Secure
	if s.SameSiteMode() == http.SameSiteNoneMode && !s.CookieSecure {
		return fmt.Errorf("%s=none requires %s=true", EnvSessionCookieSameSite, EnvSessionCookieSecure)
	}
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGROMARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGROMARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGROMARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGROMARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGROMARKET_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"AGROMARKET_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// StorageConfig targets an S3-compatible object store (Yandex Object Storage by default).
type StorageConfig struct {
	Endpoint     string `envconfig:"AGROMARKET_STORAGE_ENDPOINT" default:"https://storage.yandexcloud.net"`
	Region       string `envconfig:"AGROMARKET_STORAGE_REGION" default:"ru-central1"`
	Bucket       string `envconfig:"AGROMARKET_STORAGE_BUCKET" required:"true"`
	AccessKey    string `envconfig:"AGROMARKET_STORAGE_ACCESS_KEY" required:"true"`
	SecretKey    string `envconfig:"AGROMARKET_STORAGE_SECRET_KEY" required:"true"`
	PublicHost   string `envconfig:"AGROMARKET_STORAGE_PUBLIC_HOST"`
	UsePathStyle bool   `envconfig:"AGROMARKET_STORAGE_USE_PATH_STYLE" default:"true"`
	CreateBucket bool   `envconfig:"AGROMARKET_STORAGE_CREATE_BUCKET" default:"false"`
}

type MediaConfig struct {
	MaxUploadMB int    `envconfig:"AGROMARKET_MAX_UPLOAD_MB" default:"100"`
	KeyPrefix   string `envconfig:"AGROMARKET_MEDIA_KEY_PREFIX" default:"products"`
}

// MaxUploadBytes converts the configured upload cap to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 0
	}
	return int64(m.MaxUploadMB) << 20
}

// AdminConfig describes the bootstrap administrator created at startup.
// An empty password makes the API generate a temporary one and log it once.
type AdminConfig struct {
	SeedEnabled bool   `envconfig:"AGROMARKET_ADMIN_SEED" default:"true"`
	Username    string `envconfig:"AGROMARKET_ADMIN_USERNAME" default:"admin"`
	Email       string `envconfig:"AGROMARKET_ADMIN_EMAIL" default:"admin@example.com"`
	Password    string `envconfig:"AGROMARKET_ADMIN_PASSWORD"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"AGROMARKET_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// CronConfig drives housekeeping jobs. Embedded runs them inside the API
// process; disable it when a dedicated cron-worker is deployed.
type CronConfig struct {
	Embedded          bool          `envconfig:"AGROMARKET_CRON_EMBEDDED" default:"true"`
	Interval          time.Duration `envconfig:"AGROMARKET_CRON_INTERVAL" default:"15m"`
	ActivityRetention time.Duration `envconfig:"AGROMARKET_CRON_ACTIVITY_RETENTION" default:"2160h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"AGROMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"AGROMARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when using sqlite", EnvDBDSN)
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
